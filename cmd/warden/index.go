package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/app"
	"github.com/sevigo/pr-warden/internal/indexer"
	"github.com/sevigo/pr-warden/internal/logger"
)

var (
	indexRepo    string
	indexBranch  string
	indexToken   string
	indexLLMKey  string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index a repository branch into the vector store",
	Long: `Walks a branch's file tree, extracts symbols, embeds them, and upserts the
result into the vector store, so later reviews can run cross-repo duplicate
detection against it.

Example:
  warden index --repo owner/name --branch main`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexRepo, "repo", "", "repository in owner/name form (required)")
	indexCmd.Flags().StringVar(&indexBranch, "branch", "main", "branch to index")
	indexCmd.Flags().StringVar(&indexToken, "token", "", "platform token (overrides PLATFORM_TOKEN/config)")
	indexCmd.Flags().StringVar(&indexLLMKey, "llm-key", "", "LLM API key (overrides LLM_API_KEY/config)")
	_ = indexCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(indexToken, indexLLMKey)
	if err != nil {
		return err
	}
	if err := cfg.ValidateForCLI(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLogger(cfg.Logging, nil)

	application, cleanup, err := app.NewApp(ctx, cfg, log, "")
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer cleanup()

	idx := indexer.New(application.Platform, application.Extractor, application.Embedder, application.Store, log.With("component", "indexer"), cfg.Pipeline.MaxIndexConcurrency)

	stats, err := idx.IndexBranch(ctx, indexRepo, indexBranch)
	if err != nil {
		return fmt.Errorf("index run failed: %w", err)
	}

	fmt.Printf("indexed %s@%s: %d/%d files, %d symbols stored, %d failed\n",
		indexRepo, indexBranch, stats.FilesIndexed, stats.FilesScanned, stats.SymbolsStored, stats.FilesFailed)
	return nil
}
