package prompt

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"cardquery/internal/domain/models"
)

//go:embed templates/*.yaml
var templateFiles embed.FS

// LatestVersion selects the newest embedded template set.
const LatestVersion = 0

type templateFile struct {
	Version     int    `yaml:"version"`
	Description string `yaml:"description"`
	Base        string `yaml:"base"`
	Resolved    string `yaml:"resolved"`
	Candidates  string `yaml:"candidates"`
}

// Directive data passed to the resolved/candidates templates.
type directiveSet struct {
	Code string
	Name string
}

// Builder assembles the model instructions: the versioned base template plus
// an optional set directive.
type Builder struct {
	version    int
	base       string
	resolved   *template.Template
	candidates *template.Template
}

// Registry holds every embedded template version.
type Registry struct {
	mu       sync.RWMutex
	versions map[int]*templateFile
}

// NewRegistry loads the embedded template files.
func NewRegistry() (*Registry, error) {
	entries, err := templateFiles.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	r := &Registry{versions: make(map[int]*templateFile)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		if err := r.loadFile(path.Join("templates", e.Name())); err != nil {
			return nil, err
		}
	}
	if len(r.versions) == 0 {
		return nil, fmt.Errorf("no prompt templates embedded")
	}
	return r, nil
}

func (r *Registry) loadFile(name string) error {
	data, err := templateFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	if tf.Version <= 0 || tf.Base == "" || tf.Resolved == "" || tf.Candidates == "" {
		return fmt.Errorf("%s: version, base, resolved and candidates are required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.versions[tf.Version]; dup {
		return fmt.Errorf("%s: duplicate template version %d", name, tf.Version)
	}
	r.versions[tf.Version] = &tf
	return nil
}

// Versions returns the available versions in ascending order.
func (r *Registry) Versions() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int, 0, len(r.versions))
	for v := range r.versions {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Builder returns a builder for version, or the latest when version is
// LatestVersion.
func (r *Registry) Builder(version int) (*Builder, error) {
	if version == LatestVersion {
		versions := r.Versions()
		version = versions[len(versions)-1]
	}

	r.mu.RLock()
	tf, ok := r.versions[version]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown prompt template version %d", version)
	}

	resolved, err := template.New("resolved").Option("missingkey=error").Parse(tf.Resolved)
	if err != nil {
		return nil, fmt.Errorf("template v%d resolved: %w", version, err)
	}
	candidates, err := template.New("candidates").Option("missingkey=error").Parse(tf.Candidates)
	if err != nil {
		return nil, fmt.Errorf("template v%d candidates: %w", version, err)
	}

	return &Builder{
		version:    version,
		base:       strings.TrimSpace(tf.Base),
		resolved:   resolved,
		candidates: candidates,
	}, nil
}

// Version returns the template version this builder renders.
func (b *Builder) Version() int { return b.version }

// Base returns the instructions without any set directive.
func (b *Builder) Base() string { return b.base }

// WithExplicitCode renders the base instructions plus a mandatory directive
// for a code the user typed.
func (b *Builder) WithExplicitCode(code string) (string, error) {
	return b.render(b.resolved, directiveSet{Code: code, Name: strings.ToUpper(code)})
}

// WithCandidates renders the instructions for resolved candidates:
//   - none: base only
//   - one: mandatory directive naming that code
//   - several: candidate list the model must choose from or omit
func (b *Builder) WithCandidates(cands []models.Candidate) (string, error) {
	switch len(cands) {
	case 0:
		return b.base, nil
	case 1:
		return b.render(b.resolved, directiveSet{Code: cands[0].Set.Code, Name: cands[0].Set.Name})
	default:
		list := make([]directiveSet, len(cands))
		for i, c := range cands {
			list[i] = directiveSet{Code: c.Set.Code, Name: c.Set.Name}
		}
		return b.render(b.candidates, struct{ Candidates []directiveSet }{list})
	}
}

func (b *Builder) render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s directive: %w", t.Name(), err)
	}
	return b.base + "\n\n" + strings.TrimSpace(sb.String()), nil
}

// Build picks the directive for a request: an explicit code wins over any
// resolved candidates.
func (b *Builder) Build(cands []models.Candidate, explicitCode string) (string, error) {
	if explicitCode != "" {
		return b.WithExplicitCode(explicitCode)
	}
	return b.WithCandidates(cands)
}
