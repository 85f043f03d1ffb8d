// Package orchestrator implements the Orchestrator (C12): the single,
// strictly-sequential driver that runs a PR review from fetch through
// serialize-and-post, wrapping every non-fatal phase so a failure is logged,
// recorded as a core.RunDiagnostic, and never aborts the rest of the run.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sevigo/pr-warden/internal/analysis"
	"github.com/sevigo/pr-warden/internal/comment"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/embedding"
	"github.com/sevigo/pr-warden/internal/extractor"
	"github.com/sevigo/pr-warden/internal/fallback"
	"github.com/sevigo/pr-warden/internal/history"
	"github.com/sevigo/pr-warden/internal/llm"
	"github.com/sevigo/pr-warden/internal/normalizer"
	"github.com/sevigo/pr-warden/internal/platform"
	"github.com/sevigo/pr-warden/internal/report"
	"github.com/sevigo/pr-warden/internal/vectorstore"
)

// Orchestrator runs the full review pipeline in the phase order from §4.12:
// fetch (0, fatal) → baseline load (0.1) → duplicate/breaking/heuristic
// analyzers (0.2) → LLM review (1) → architecture rules (6) → normalize (7,
// no-skip) → summary (8) → recommendations (9) → serialize and optionally
// post (Final). Every phase but 0 and 7 degrades into a recorded diagnostic
// on failure instead of aborting the run.
type Orchestrator struct {
	platform   platform.Client
	extractor  extractor.Extractor
	embedder   embedding.Client
	store      vectorstore.Store
	dup        analysis.DuplicateDetector
	breaking   analysis.BreakingChangeDetector
	arch       analysis.Engine
	heuristics []analysis.HeuristicAnalyzer
	reviewer   llm.Reviewer // nil when no LLM credential is configured
	fallbackGen fallback.Generator
	poster     comment.Poster // nil when --post was not requested
	history    history.Store // nil when --history-db was not requested
	reportPath string
	logger     *slog.Logger
}

// New assembles the Orchestrator from its already-constructed collaborators.
// reviewer, poster, and hist may all be nil; the run degrades gracefully in
// each case rather than requiring them.
func New(
	p platform.Client,
	ex extractor.Extractor,
	emb embedding.Client,
	store vectorstore.Store,
	dup analysis.DuplicateDetector,
	breaking analysis.BreakingChangeDetector,
	arch analysis.Engine,
	heuristics []analysis.HeuristicAnalyzer,
	reviewer llm.Reviewer,
	fallbackGen fallback.Generator,
	poster comment.Poster,
	hist history.Store,
	reportPath string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		platform:    p,
		extractor:   ex,
		embedder:    emb,
		store:       store,
		dup:         dup,
		breaking:    breaking,
		arch:        arch,
		heuristics:  heuristics,
		reviewer:    reviewer,
		fallbackGen: fallbackGen,
		poster:      poster,
		history:     hist,
		reportPath:  reportPath,
		logger:      logger,
	}
}

// fileContext bundles everything Phase 1 needs about a single changed file:
// its own symbols (for the context prompt) and the diff hunk the LLM
// reviews against.
type fileContext struct {
	path    string
	patch   string
	status  string
	symbols []core.Symbol
}

// Run drives a single PR review end to end and returns the finished Report.
// Only a Phase 0 failure (can't fetch the PR at all) returns a non-nil
// error; every later failure is captured as a RunDiagnostic on the returned
// Report instead.
func (o *Orchestrator) Run(ctx context.Context, repo string, number int, post bool) (*core.Report, error) {
	rep := &core.Report{GeneratedAt: time.Now().UTC()}

	// Phase 0 (fatal): fetch PR + extract PR-side symbols.
	pr, err := o.platform.GetPR(ctx, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR %s#%d: %w", repo, number, err)
	}
	rep.PR = core.PRIdentity{
		Repository: repo,
		Number:     number,
		HeadSHA:    pr.HeadSHA,
		BaseSHA:    pr.BaseSHA,
		BaseBranch: pr.BaseBranch,
	}

	files, prSymbols := o.extractChangedFiles(ctx, repo, pr.HeadSHA, pr.Files, rep)

	if ctx.Err() != nil {
		return o.finalizeCancelled(rep), nil
	}

	// Phase 0.1 (skip on error): baseline symbols for breaking-change
	// comparison, extracted fresh from the base branch rather than read back
	// out of the Vector Store, which persists embeddings and metadata, not
	// full Symbol bodies/signatures.
	baseline := o.loadBaseline(ctx, repo, pr.BaseSHA, pr.Files, rep)

	var allRaw []core.RawFinding

	// Phase 0.2 (skip independently): duplicate detection and breaking-change
	// detection.
	allRaw = append(allRaw, o.runDuplicateDetection(ctx, repo, pr.BaseBranch, prSymbols, rep)...)
	allRaw = append(allRaw, o.runBreakingChangeDetection(baseline, prSymbols, rep)...)
	allRaw = append(allRaw, analysis.RunAll(o.heuristics, prSymbols)...)

	if ctx.Err() != nil {
		return o.finalizeCancelled(rep, allRaw...), nil
	}

	// Phase 1: sequential, rate-limited LLM review per changed file, falling
	// back to the deterministic Fallback Generator per-file on failure or
	// when no LLM is configured at all.
	allRaw = append(allRaw, o.reviewFiles(ctx, files, prSymbols, allRaw, rep)...)

	if ctx.Err() != nil {
		return o.finalizeCancelled(rep, allRaw...), nil
	}

	// Phase 6 (skip on error): architecture rules, run after the LLM pass so
	// architecture findings participate in the same normalization batch.
	allRaw = append(allRaw, o.runArchitectureRules(prSymbols, rep)...)

	// Phase 7 (no-skip): confidence assignment & normalization.
	rep.Findings = normalizer.Normalize(ctx, allRaw, mergerOrNil(o.reviewer))
	rep.RecomputeCounts()

	// Phase 8 (skip, template fallback): executive summary.
	rep.Summary = o.summarize(ctx, rep)

	// Phase 9 (skip): cross-finding recommendations.
	rep.Recommendations = o.recommend(ctx, rep)

	return o.finalize(ctx, rep, pr.Files, post)
}

// mergerOrNil adapts a possibly-nil llm.Reviewer to a possibly-nil
// normalizer.Merger without a typed-nil interface footgun: a (*reviewer)(nil)
// boxed into llm.Reviewer would compare non-nil to the Merger interface.
func mergerOrNil(r llm.Reviewer) normalizer.Merger {
	if r == nil {
		return nil
	}
	return r
}

// extractChangedFiles fetches each non-removed changed file's head-branch
// content and extracts its symbols, recording a per-unit diagnostic and
// skipping the file on failure rather than aborting Phase 0 outright: the
// spec marks Phase 0 fatal for "can't fetch the PR at all", not for a single
// file's content being unreachable mid-fetch.
func (o *Orchestrator) extractChangedFiles(ctx context.Context, repo, headSHA string, changed []platform.ChangedFile, rep *core.Report) ([]fileContext, []core.Symbol) {
	var files []fileContext
	var symbols []core.Symbol

	for _, f := range changed {
		if f.Status == "removed" {
			continue
		}
		content, err := o.platform.GetFile(ctx, repo, headSHA, f.Path)
		if err != nil {
			o.logger.Warn("failed to fetch changed file, skipping", "file", f.Path, "error", err)
			rep.AddDiagnostic(core.RunDiagnostic{Phase: "0", Kind: core.DiagnosticPerUnit, File: f.Path, Message: err.Error()})
			continue
		}

		parsed, err := o.extractor.Extract(repo, headSHA, f.Path, content)
		if err != nil {
			o.logger.Warn("failed to extract symbols, skipping", "file", f.Path, "error", err)
			rep.AddDiagnostic(core.RunDiagnostic{Phase: "0", Kind: core.DiagnosticPerUnit, File: f.Path, Message: err.Error()})
			continue
		}

		files = append(files, fileContext{path: f.Path, patch: f.Patch, status: f.Status, symbols: parsed.Symbols})
		symbols = append(symbols, parsed.Symbols...)
	}

	return files, symbols
}

// loadBaseline fetches and extracts each changed (non-added) file's
// base-branch version, giving the Breaking-Change Detector a fresh
// baseline symbol set without depending on the Vector Store's persisted
// shape, which holds vectors and string metadata rather than full Symbols.
func (o *Orchestrator) loadBaseline(ctx context.Context, repo, baseSHA string, changed []platform.ChangedFile, rep *core.Report) []core.Symbol {
	var baseline []core.Symbol
	for _, f := range changed {
		if f.Status == "added" {
			continue
		}
		content, err := o.platform.GetFile(ctx, repo, baseSHA, f.Path)
		if err != nil {
			o.logger.Warn("failed to fetch baseline file, breaking-change detection degraded for it", "file", f.Path, "error", err)
			rep.AddDiagnostic(core.RunDiagnostic{Phase: "0.1", Kind: core.DiagnosticPerUnit, File: f.Path, Message: err.Error()})
			continue
		}
		parsed, err := o.extractor.Extract(repo, baseSHA, f.Path, content)
		if err != nil {
			rep.AddDiagnostic(core.RunDiagnostic{Phase: "0.1", Kind: core.DiagnosticPerUnit, File: f.Path, Message: err.Error()})
			continue
		}
		baseline = append(baseline, parsed.Symbols...)
	}
	return baseline
}

// runDuplicateDetection runs within-PR comparison always, and cross-repo
// comparison whenever both a Vector Store and an Embedding Client are wired;
// the Duplicate Detector itself treats a nil store as a no-op, so this is
// the gate described in §4.3's "missing store is treated as empty", not a
// presence check against the index.
func (o *Orchestrator) runDuplicateDetection(ctx context.Context, repo, baseBranch string, prSymbols []core.Symbol, rep *core.Report) []core.RawFinding {
	if o.dup == nil {
		return nil
	}

	var raw []core.RawFinding

	within, err := o.dup.WithinPR(ctx, prSymbols)
	if err != nil {
		o.logger.Warn("within-pr duplicate detection failed", "error", err)
		rep.AddDiagnostic(core.RunDiagnostic{Phase: "0.2", Kind: core.DiagnosticPerUnit, Message: "duplicate detection (within-pr): " + err.Error()})
	} else {
		rep.DuplicateMatches = append(rep.DuplicateMatches, within...)
		raw = append(raw, analysis.FindingsFromDuplicates(within)...)
	}

	scope := vectorstore.ScopeKey(repo, baseBranch)
	cross, err := o.dup.CrossRepo(ctx, prSymbols, scope)
	if err != nil {
		o.logger.Warn("cross-repo duplicate detection failed", "error", err)
		rep.AddDiagnostic(core.RunDiagnostic{Phase: "0.2", Kind: core.DiagnosticPerUnit, Message: "duplicate detection (cross-repo): " + err.Error()})
	} else {
		rep.DuplicateMatches = append(rep.DuplicateMatches, cross...)
		raw = append(raw, analysis.FindingsFromDuplicates(cross)...)
	}

	return raw
}

func (o *Orchestrator) runBreakingChangeDetection(baseline, prSymbols []core.Symbol, rep *core.Report) []core.RawFinding {
	if o.breaking == nil {
		return nil
	}
	changes, ok := func() (changes []core.BreakingChange, ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		return o.breaking.Detect(baseline, prSymbols), true
	}()
	if !ok {
		rep.AddDiagnostic(core.RunDiagnostic{Phase: "0.2", Kind: core.DiagnosticPerUnit, Message: "breaking-change detection panicked"})
		return nil
	}
	rep.BreakingChanges = changes
	return analysis.FindingsFromBreakingChanges(changes)
}

// runArchitectureRules wraps the Architecture Rules Engine, which has no
// error return of its own, in a recover so a rule-evaluation bug degrades
// this phase instead of the whole run, matching the "skip on error" column
// for Phase 6.
func (o *Orchestrator) runArchitectureRules(prSymbols []core.Symbol, rep *core.Report) []core.RawFinding {
	if o.arch == nil {
		return nil
	}
	findings, ok := func() (findings []core.RawFinding, ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		return o.arch.Apply(prSymbols), true
	}()
	if !ok {
		rep.AddDiagnostic(core.RunDiagnostic{Phase: "6", Kind: core.DiagnosticPerUnit, Message: "architecture rules evaluation panicked"})
		return nil
	}
	return findings
}

// reviewFiles is Phase 1: strictly sequential per the spec's concurrency
// model (throttling lives inside the Reviewer itself, at the single
// component that issues every LLM call), falling back to the deterministic
// generator per file on LLM unavailability or absence.
func (o *Orchestrator) reviewFiles(ctx context.Context, files []fileContext, prSymbols []core.Symbol, priorRaw []core.RawFinding, rep *core.Report) []core.RawFinding {
	var raw []core.RawFinding

	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		if len(f.symbols) == 0 {
			continue
		}

		if o.reviewer == nil {
			raw = append(raw, o.fallbackGen.GenerateForFile(f.path, prSymbols)...)
			continue
		}

		in := llm.ReviewInput{
			FilePath: f.path,
			Diff:     f.patch,
			Context:  buildReviewContext(f, prSymbols, priorRaw),
		}
		found, retried, err := o.reviewer.ReviewFile(ctx, in)
		if err != nil {
			o.logger.Warn("llm review unavailable for file, using fallback generator", "file", f.path, "error", err)
			rep.AddDiagnostic(core.RunDiagnostic{Phase: "1", Kind: core.DiagnosticProviderDegraded, File: f.path, Message: err.Error()})
			raw = append(raw, o.fallbackGen.GenerateForFile(f.path, prSymbols)...)
			continue
		}
		if retried {
			rep.AddDiagnostic(core.RunDiagnostic{Phase: "1", Kind: core.DiagnosticValidation, File: f.path, Message: "llm response required a repair-prompt retry to parse"})
		}
		raw = append(raw, found...)
	}

	return raw
}

// buildReviewContext renders the surrounding-symbols + related-findings
// bundle the LLM Reviewer consumes as free-form context: every symbol
// declared in the file (signature only, not full body, to keep prompts
// bounded) plus any duplicate, breaking-change or heuristic findings already
// anchored at this file from Phase 0.2.
func buildReviewContext(f fileContext, prSymbols []core.Symbol, priorRaw []core.RawFinding) string {
	var b strings.Builder

	if len(f.symbols) > 0 {
		b.WriteString("Symbols declared in this file:\n")
		for _, s := range f.symbols {
			fmt.Fprintf(&b, "- %s %s: %s\n", s.Kind, s.Name, strings.TrimSpace(s.Signature.Text))
		}
	}

	var related []string
	for _, r := range priorRaw {
		if r.File != f.path {
			continue
		}
		related = append(related, fmt.Sprintf("[%s] %s", r.Category, r.Message))
	}
	if len(related) > 0 {
		b.WriteString("\nAlready-known findings for this file from deterministic analysis:\n")
		for _, r := range related {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	return b.String()
}

func (o *Orchestrator) summarize(ctx context.Context, rep *core.Report) string {
	if o.reviewer != nil {
		summary, err := o.reviewer.Summarize(ctx, rep)
		if err == nil {
			return summary
		}
		o.logger.Warn("llm summary unavailable, using template fallback", "error", err)
		rep.AddDiagnostic(core.RunDiagnostic{Phase: "8", Kind: core.DiagnosticProviderDegraded, Message: err.Error()})
	}
	if o.fallbackGen != nil {
		return o.fallbackGen.Summary(rep)
	}
	return ""
}

func (o *Orchestrator) recommend(ctx context.Context, rep *core.Report) string {
	if o.reviewer == nil {
		return ""
	}
	recs, err := o.reviewer.Recommend(ctx, rep)
	if err != nil {
		o.logger.Warn("llm recommendations unavailable", "error", err)
		rep.AddDiagnostic(core.RunDiagnostic{Phase: "9", Kind: core.DiagnosticProviderDegraded, Message: err.Error()})
		return ""
	}
	return recs
}

// finalizeCancelled marks the Report cancelled and serializes whatever was
// built before ctx was done, per §5's "partially built Report is still
// serialized with a cancelled=true marker."
func (o *Orchestrator) finalizeCancelled(rep *core.Report, extraRaw ...core.RawFinding) *core.Report {
	rep.Cancelled = true
	if len(extraRaw) > 0 {
		rep.Findings = normalizer.Normalize(context.Background(), extraRaw, nil)
	}
	rep.RecomputeCounts()
	if err := o.writeReportFile(rep); err != nil {
		o.logger.Warn("failed to write report file for cancelled run", "error", err)
	}
	return rep
}

// finalize is the Final phase: write the JSON report and, if requested,
// post comments through the Comment Poster. The post step is explicitly
// optional per §4.12's "Post step is optional." changedFiles carries the
// original PR diff patches so the Comment Poster can compute diff-visible
// lines for inline eligibility.
func (o *Orchestrator) finalize(ctx context.Context, rep *core.Report, changedFiles []platform.ChangedFile, post bool) (*core.Report, error) {
	if err := o.writeReportFile(rep); err != nil {
		o.logger.Error("failed to write report file", "path", o.reportPath, "error", err)
		rep.AddDiagnostic(core.RunDiagnostic{Phase: "final", Kind: core.DiagnosticValidation, Message: "report serialize: " + err.Error()})
	}

	if post && o.poster != nil {
		if err := o.poster.Post(ctx, rep.PR.Repository, rep.PR.Number, changedFiles, rep.Findings); err != nil {
			o.logger.Error("failed to post review comments", "error", err)
			rep.AddDiagnostic(core.RunDiagnostic{Phase: "final", Kind: core.DiagnosticPerUnit, Message: "comment post: " + err.Error()})
		}
	}

	if o.history != nil {
		if err := o.history.SaveRun(ctx, rep); err != nil {
			o.logger.Warn("failed to record run history", "error", err)
		}
	}

	return rep, nil
}

func (o *Orchestrator) writeReportFile(rep *core.Report) error {
	data, err := report.ToJSON(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if dir := filepath.Dir(o.reportPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	return os.WriteFile(o.reportPath, data, 0o644)
}
