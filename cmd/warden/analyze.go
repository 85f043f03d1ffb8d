package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/analysis"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/extractor"
	"github.com/sevigo/pr-warden/internal/logger"
	"github.com/sevigo/pr-warden/internal/normalizer"
	"github.com/sevigo/pr-warden/internal/platform"
)

var (
	analyzeFile  string
	analyzeRepo  string
	analyzeToken string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run deterministic analyzers against a single file",
	Long: `Extracts symbols from one file and runs the heuristic analyzers and
architecture rules engine against it, outside of any PR context. With --repo,
the file is fetched from that repository's main branch; otherwise it is
read from the local filesystem. Unlike review, analyze never talks to an LLM
provider or the vector store.

Example:
  warden analyze --file internal/billing/invoice.go --repo owner/name`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "path of the file to analyze (required)")
	analyzeCmd.Flags().StringVar(&analyzeRepo, "repo", "", "repository in owner/name form; fetches --file from its main branch")
	analyzeCmd.Flags().StringVar(&analyzeToken, "token", "", "platform token (overrides PLATFORM_TOKEN/config), only needed with --repo")
	_ = analyzeCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(analyzeToken, "")
	if err != nil {
		return err
	}
	log := logger.NewLogger(cfg.Logging, nil)

	content, err := readAnalyzeTarget(ctx, cfg, log, analyzeRepo, analyzeFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", analyzeFile, err)
	}

	ex := extractor.New(log.With("component", "extractor"))
	parsed, err := ex.Extract(analyzeRepo, "", analyzeFile, content)
	if err != nil {
		return fmt.Errorf("failed to extract symbols from %s: %w", analyzeFile, err)
	}

	var raw []core.RawFinding
	raw = append(raw, analysis.RunAll(analysis.HeuristicAnalyzers(), parsed.Symbols)...)

	rules, rerr := analysis.LoadArchRules(analyzeRepo)
	if rerr != nil && rerr != analysis.ErrRulesNotFound {
		log.Warn("failed to load architecture rules, using defaults", "error", rerr)
	}
	raw = append(raw, analysis.NewEngine(rules).Apply(parsed.Symbols)...)

	findings := normalizer.Normalize(ctx, raw, nil)
	if len(findings) == 0 {
		fmt.Printf("no findings for %s\n", analyzeFile)
		return nil
	}

	for _, f := range findings {
		fmt.Fprintf(os.Stdout, "%s:%d [%s/%s] %s\n", f.File, f.Line, f.Severity, f.Category, f.Message)
	}
	return nil
}

// readAnalyzeTarget returns --file's contents, fetched from analyzeRepo's
// main branch over a standalone Platform Client when a repo is given, or
// read from the local filesystem otherwise. analyze deliberately avoids
// app.NewApp: it has no need for an LLM, embedder, or vector store, and
// requiring a GitHub credential for a purely local file would contradict
// --repo being optional.
func readAnalyzeTarget(ctx context.Context, cfg *config.Config, log *slog.Logger, repo, path string) (string, error) {
	if repo == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if cfg.GitHub.Token == "" {
		return "", fmt.Errorf("--repo requires a platform token: set --token, PLATFORM_TOKEN, or github.token")
	}
	client := platform.NewPATClient(ctx, cfg.GitHub.Token, log.With("component", "platform"))
	return client.GetFile(ctx, repo, "main", path)
}
