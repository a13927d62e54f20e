package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"cardquery/internal/config"
	"cardquery/internal/domain/models"
	"cardquery/internal/service/catalog"
	"cardquery/internal/service/completion"
	"cardquery/internal/service/prompt"
	"cardquery/internal/service/resolver"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
)

func main() {
	showPrompt := flag.Bool("prompt", false, "Print the full instructions sent to the model")
	dryRun := flag.Bool("dry-run", false, "Resolve sets only, skip the completion call")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	aliases, err := catalog.LoadAliases()
	if err != nil {
		fail(err)
	}
	cache := catalog.NewCache(
		catalog.NewScryfallClientWithConfig(cfg.CatalogBaseURL, catalog.DefaultScryfallTimeout),
		logger,
		catalog.WithAliases(aliases),
	)

	reg, err := prompt.NewRegistry()
	if err != nil {
		fail(err)
	}
	builder, err := reg.Builder(cfg.PromptVersion)
	if err != nil {
		fail(err)
	}

	var run func(ctx context.Context, instructions, query string) (string, error)
	if !*dryRun {
		completer, err := completion.NewCompleter(cfg, logger)
		if err != nil {
			fail(err)
		}
		run = completer.Complete
	}

	ctx := context.Background()
	queries := flag.Args()
	if len(queries) == 0 {
		queries = readLines(os.Stdin)
	}

	for _, q := range queries {
		if err := convertOne(ctx, os.Stdout, cache, builder, run, q, *showPrompt); err != nil {
			fmt.Fprintf(os.Stderr, "%q: %v\n", q, err)
		}
	}
}

func convertOne(
	ctx context.Context,
	out io.Writer,
	cache *catalog.Cache,
	builder *prompt.Builder,
	run func(ctx context.Context, instructions, query string) (string, error),
	query string,
	showPrompt bool,
) error {
	fmt.Fprintf(out, "%s> %s%s\n", colorBlue, query, colorReset)

	var (
		cands []models.Candidate
		code  string
	)
	if explicit, ok := resolver.ExtractExplicitCode(query); ok {
		code = explicit
		fmt.Fprintf(out, "  explicit code: %s\n", code)
	} else {
		sets, err := cache.Catalog(ctx)
		if err != nil {
			return err
		}
		cands = resolver.Resolve(query, sets, resolver.DefaultLimit)
		for _, c := range cands {
			fmt.Fprintf(out, "  %s%-5s%s %3d  %s\n", colorYellow, c.Set.Code, colorReset, c.Score, c.Set.Name)
		}
	}

	instructions, err := builder.Build(cands, code)
	if err != nil {
		return err
	}
	if showPrompt {
		fmt.Fprintln(out, instructions)
	}
	if run == nil {
		return nil
	}

	syntax, err := run(ctx, instructions, query)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s%s%s\n", colorGreen, strings.TrimSpace(syntax), colorReset)
	return nil
}

func readLines(r io.Reader) []string {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
