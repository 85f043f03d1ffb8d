package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/app"
	"github.com/sevigo/pr-warden/internal/logger"
	"github.com/sevigo/pr-warden/internal/report"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	warnColor  = color.New(color.FgYellow)
	dimColor   = color.New(color.FgHiBlack)
)

var (
	reviewRepo       string
	reviewPR         int
	reviewEnterprise string
	reviewPost       bool
	reviewToken      string
	reviewLLMKey     string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run a full review of a pull request",
	Long: `Fetches the pull request, runs it through the review pipeline (LLM review,
duplicate and breaking-change detection, architecture rules, heuristics), and
writes a JSON report plus a rendered terminal summary.

Example:
  warden review --repo owner/name --pr 123`,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVar(&reviewRepo, "repo", "", "repository in owner/name form (required)")
	reviewCmd.Flags().IntVar(&reviewPR, "pr", 0, "pull request number (required)")
	reviewCmd.Flags().StringVar(&reviewEnterprise, "enterprise", "", "GitHub Enterprise Server base URL")
	reviewCmd.Flags().BoolVar(&reviewPost, "post", false, "post inline/summary review comments to the PR")
	reviewCmd.Flags().StringVar(&reviewToken, "token", "", "platform token (overrides PLATFORM_TOKEN/config)")
	reviewCmd.Flags().StringVar(&reviewLLMKey, "llm-key", "", "LLM API key (overrides LLM_API_KEY/config)")
	_ = reviewCmd.MarkFlagRequired("repo")
	_ = reviewCmd.MarkFlagRequired("pr")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(reviewToken, reviewLLMKey)
	if err != nil {
		return err
	}
	if reviewEnterprise != "" {
		cfg.GitHub.EnterpriseURL = reviewEnterprise
	}
	if err := cfg.ValidateForCLI(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLogger(cfg.Logging, nil)

	titleColor.Printf("pr-warden review: %s#%d\n", reviewRepo, reviewPR)
	start := time.Now()

	application, cleanup, err := app.NewApp(ctx, cfg, log, "")
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer cleanup()

	rep, err := application.Orchestrator.Run(ctx, reviewRepo, reviewPR, reviewPost)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	dimColor.Printf("completed in %s\n\n", time.Since(start).Round(time.Millisecond))

	if err := report.RenderTerminal(os.Stdout, rep, report.ThemeCyan); err != nil {
		warnColor.Printf("failed to render terminal summary: %v\n", err)
	}

	if rep.Cancelled {
		warnColor.Println("\nrun was cancelled before completing every phase")
	}
	if len(rep.RunDiagnostics) > 0 {
		warnColor.Printf("\n%d diagnostic(s) recorded; see the JSON report for detail\n", len(rep.RunDiagnostics))
	}
	if rep.Degraded {
		exitCode = 3
	}

	return nil
}
