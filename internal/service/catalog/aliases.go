package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"cardquery/internal/domain/models"
	"cardquery/internal/utils"
)

//go:embed aliases.yaml
var aliasFile []byte

type aliasDocument struct {
	Version int `yaml:"version"`
	Aliases []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"aliases"`
}

// LoadAliases parses the embedded alias list.
func LoadAliases() ([]models.Set, error) {
	return ParseAliases(aliasFile)
}

// ParseAliases decodes an alias document into catalog sets carrying the
// alias release date.
func ParseAliases(data []byte) ([]models.Set, error) {
	var doc aliasDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse aliases: %w", err)
	}

	sets := make([]models.Set, 0, len(doc.Aliases))
	for i, a := range doc.Aliases {
		if a.Code == "" || a.Name == "" {
			return nil, fmt.Errorf("alias %d: code and name are required", i)
		}
		sets = append(sets, models.Set{
			Code:           normalizeCode(a.Code),
			Name:           a.Name,
			NormalizedName: utils.Normalize(a.Name),
			ReleasedAt:     models.AliasReleaseDate,
		})
	}
	return sets, nil
}
