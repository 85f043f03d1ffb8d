package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/app"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/history"
	"github.com/sevigo/pr-warden/internal/logger"
	"github.com/sevigo/pr-warden/internal/report"
)

var (
	summarizeRepo  string
	summarizePR    int
	summarizeForce bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print a PR's executive-summary report, reusing a cached run when fresh",
	Long: `Serves the most recent stored run-history Report for the given PR when
one exists and is younger than the staleness window, unless --force is
given; otherwise runs the full review pipeline and serves its Report.

Example:
  warden summarize --repo owner/name --pr 123`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeRepo, "repo", "", "repository in owner/name form (required)")
	summarizeCmd.Flags().IntVar(&summarizePR, "pr", 0, "pull request number (required)")
	summarizeCmd.Flags().BoolVar(&summarizeForce, "force", false, "ignore any cached report and run the pipeline fresh")
	_ = summarizeCmd.MarkFlagRequired("repo")
	_ = summarizeCmd.MarkFlagRequired("pr")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig("", "")
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

	rep, fromCache, err := resolveSummary(ctx, application, summarizeRepo, summarizePR, summarizeForce)
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	if fromCache {
		dimColor.Println("serving cached run (use --force to re-run the pipeline)")
	}

	fmt.Fprintln(os.Stdout, report.Markdown(rep))

	if rep.Degraded {
		exitCode = 3
	}
	return nil
}

// resolveSummary serves application.History's most recent Report for
// (repo, pr) when one exists, is younger than history.StalenessWindow, and
// force is false; otherwise it runs the pipeline fresh.
func resolveSummary(ctx context.Context, application *app.App, repo string, pr int, force bool) (*core.Report, bool, error) {
	if !force && application.History != nil {
		cached, err := application.History.LatestRun(ctx, repo, pr)
		if err == nil && time.Since(cached.GeneratedAt) < history.StalenessWindow {
			return cached, true, nil
		}
	}

	rep, err := application.Orchestrator.Run(ctx, repo, pr, false)
	if err != nil {
		return nil, false, err
	}
	return rep, false, nil
}
