package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/retry"
)

// ErrUnavailable is returned by ReviewFile and Summarize when the LLM could
// not be used for a unit of work after retries/repair are exhausted. Callers
// hand off to the Fallback Generator rather than treat this as fatal (§4.5,
// §7 "provider-degraded").
var ErrUnavailable = errors.New("llm unavailable")

// ReviewInput is the file-level context bundle the Reviewer consumes.
type ReviewInput struct {
	FilePath string
	Diff     string
	Context  string // surrounding symbols, related duplicates/breaking changes, RAG context
}

//go:generate mockgen -destination=../../mocks/mock_llm_reviewer.go -package=mocks github.com/sevigo/pr-warden/internal/llm Reviewer

// Reviewer is the LLM Reviewer (C5): turns a file+diff+context bundle into
// raw findings. Invocation is sequential with a mandatory inter-request
// delay; retries are bounded and rate-limit aware; a response that fails to
// parse is retried once with a repair prompt before giving up.
type Reviewer interface {
	// ReviewFile returns the file's findings and whether the repair-prompt
	// retry had to fire to get a parseable response, so the Orchestrator can
	// record it as a RunDiagnostic (§8 scenario 4) without treating it as a
	// provider-degraded failure.
	ReviewFile(ctx context.Context, in ReviewInput) (findings []core.RawFinding, retried bool, err error)
	Summarize(ctx context.Context, report *core.Report) (string, error)
	Recommend(ctx context.Context, report *core.Report) (string, error)
	// Merge implements normalizer.Merger: it asks the LLM to collapse several
	// Findings that survived at the same (file, line) into one, preserving
	// every distinct contract (§4.11 step 6). The Normalizer falls back to
	// its own deterministic category-group merge when this returns an error.
	Merge(ctx context.Context, findings []core.Finding) (core.Finding, error)
}

type reviewer struct {
	model       llms.Model
	prompts     *PromptManager
	provider    ModelProvider
	logger      *slog.Logger
	interDelay  time.Duration
	retryPolicy retry.Policy

	mu       sync.Mutex
	lastCall time.Time
}

// NewReviewer builds a Reviewer around an already-constructed goframe
// llms.Model (Gemini or Ollama, selected the way config.AIConfig.LLMProvider
// does), enforcing the spec's inter-request delay and retry policy.
func NewReviewer(model llms.Model, prompts *PromptManager, provider string, interDelay time.Duration, maxAttempts int, logger *slog.Logger) Reviewer {
	return &reviewer{
		model:      model,
		prompts:    prompts,
		provider:   ModelProvider(provider),
		logger:     logger,
		interDelay: interDelay,
		retryPolicy: retry.Policy{
			MaxAttempts: maxAttempts,
			BaseDelay:   2 * time.Second,
			MaxDelay:    time.Minute,
			Jitter:      0.2,
			Classify:    classifyLLMError,
		},
	}
}

// codeReviewPromptData is rendered into the code_review prompt template. Its
// field names are part of the prompt template contract.
type codeReviewPromptData struct {
	FilePath string
	Diff     string
	Context  string
}

// ReviewFile enforces the sequential inter-request delay, calls the model
// with retry/backoff, and parses the response; on a single parse failure it
// retries once with a repair prompt before surfacing ErrUnavailable.
func (r *reviewer) ReviewFile(ctx context.Context, in ReviewInput) ([]core.RawFinding, bool, error) {
	r.throttle(ctx)

	prompt, err := r.prompts.Render(CodeReviewPrompt, r.provider, codeReviewPromptData{
		FilePath: in.FilePath,
		Diff:     in.Diff,
		Context:  in.Context,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to render code review prompt: %w", err)
	}

	raw, err := r.call(ctx, prompt)
	if err != nil {
		r.logger.Warn("llm call failed for file, attempts exhausted", "file", in.FilePath, "error", err)
		return nil, false, fmt.Errorf("%w: %s: %w", ErrUnavailable, in.FilePath, err)
	}

	repair := func(parseErr error) (string, error) {
		r.logger.Warn("llm response failed to parse, retrying with repair prompt", "file", in.FilePath, "error", parseErr)
		repairPrompt, rerr := r.prompts.Render(RepairPrompt, r.provider, repairPromptData{
			OriginalResponse: raw,
			ParseError:       parseErr.Error(),
		})
		if rerr != nil {
			return "", fmt.Errorf("failed to render repair prompt: %w", rerr)
		}
		r.throttle(ctx)
		return r.call(ctx, repairPrompt)
	}

	parsed, retried, err := parseWithRepair(raw, repair)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrUnavailable, in.FilePath, err)
	}

	for i := range parsed.Findings {
		if parsed.Findings[i].File == "" {
			parsed.Findings[i].File = in.FilePath
		}
		if parsed.Findings[i].Source == "" {
			parsed.Findings[i].Source = "llm"
		}
	}
	return parsed.Findings, retried, nil
}

// parseWithRepair parses a raw LLM response and, on the first parse failure,
// calls repair once to fetch a corrected response before giving up. It holds
// no state of its own beyond the retry flag, so it's testable without a real
// llms.Model: repair is whatever the caller wires to its repair-prompt call.
func parseWithRepair(raw string, repair func(parseErr error) (string, error)) (*reviewResult, bool, error) {
	parsed, perr := parseReviewMarkdown(raw)
	if perr == nil {
		return parsed, false, nil
	}

	raw2, rerr := repair(perr)
	if rerr != nil {
		return nil, true, fmt.Errorf("repair call failed: %w", rerr)
	}
	parsed, perr = parseReviewMarkdown(raw2)
	if perr != nil {
		return nil, true, fmt.Errorf("response unparseable after repair: %w", perr)
	}
	return parsed, true, nil
}

type repairPromptData struct {
	OriginalResponse string
	ParseError       string
}

type summaryPromptData struct {
	Report *core.Report
}

// Summarize renders the Phase 8 executive summary prompt from the
// aggregated Report.
func (r *reviewer) Summarize(ctx context.Context, report *core.Report) (string, error) {
	r.throttle(ctx)
	prompt, err := r.prompts.Render(SummaryPrompt, r.provider, summaryPromptData{Report: report})
	if err != nil {
		return "", fmt.Errorf("failed to render summary prompt: %w", err)
	}
	resp, err := r.call(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: summary: %w", ErrUnavailable, err)
	}
	return strings.TrimSpace(resp), nil
}

// Recommend renders the Phase 9 cross-finding recommendations prompt.
func (r *reviewer) Recommend(ctx context.Context, report *core.Report) (string, error) {
	r.throttle(ctx)
	prompt, err := r.prompts.Render(RecommendationsPrompt, r.provider, summaryPromptData{Report: report})
	if err != nil {
		return "", fmt.Errorf("failed to render recommendations prompt: %w", err)
	}
	resp, err := r.call(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: recommendations: %w", ErrUnavailable, err)
	}
	return strings.TrimSpace(resp), nil
}

type mergePromptData struct {
	File     string
	Line     int
	Findings []core.Finding
}

// Merge asks the LLM to collapse a group of same-location Findings into one,
// reusing the code-review response parser since the merge prompt asks for
// exactly one "## Finding" block in the same shape.
func (r *reviewer) Merge(ctx context.Context, findings []core.Finding) (core.Finding, error) {
	if len(findings) == 0 {
		return core.Finding{}, fmt.Errorf("merge called with no findings")
	}

	r.throttle(ctx)
	prompt, err := r.prompts.Render(MergePrompt, r.provider, mergePromptData{
		File:     findings[0].File,
		Line:     findings[0].Line,
		Findings: findings,
	})
	if err != nil {
		return core.Finding{}, fmt.Errorf("failed to render merge prompt: %w", err)
	}

	raw, err := r.call(ctx, prompt)
	if err != nil {
		return core.Finding{}, fmt.Errorf("%w: merge %s:%d: %w", ErrUnavailable, findings[0].File, findings[0].Line, err)
	}

	parsed, perr := parseReviewMarkdown(raw)
	if perr != nil || len(parsed.Findings) == 0 {
		return core.Finding{}, fmt.Errorf("merge response did not contain a finding block: %w", perr)
	}

	merged := parsed.Findings[0]
	if merged.File == "" {
		merged.File = findings[0].File
	}
	if merged.Line == 0 {
		merged.Line = findings[0].Line
	}
	merged.Source = "llm-merge"
	return normalizeMerged(merged), nil
}

// normalizeMerged applies the same severity/confidence normalization a
// RawFinding gets on its first pass through the Normalizer, since a merged
// Finding produced here skips that pipeline entirely.
func normalizeMerged(r core.RawFinding) core.Finding {
	f := core.Finding{
		File:       r.File,
		Line:       r.Line,
		Severity:   core.NormalizeSeverity(r.Severity),
		Category:   r.Category,
		Message:    r.Message,
		Suggestion: r.Suggestion,
		Source:     r.Source,
		Related:    r.Related,
	}
	switch f.Severity {
	case core.SeverityHigh:
		f.Confidence = 0.9
	case core.SeverityMedium:
		f.Confidence = 0.75
	default:
		f.Confidence = 0.55
	}
	if f.Suggestion != "" {
		f.Confidence += 0.05
	}
	if f.Confidence > 1 {
		f.Confidence = 1
	}
	return f
}

// call issues a single retried LLM generation, bounded by ctx.
func (r *reviewer) call(ctx context.Context, prompt string) (string, error) {
	var resp string
	err := retry.Do(ctx, r.retryPolicy, func(ctx context.Context) error {
		out, innerErr := r.model.Call(ctx, prompt)
		if innerErr != nil {
			return innerErr
		}
		resp = out
		return nil
	})
	return resp, err
}

// throttle blocks until interDelay has elapsed since the last call, honoring
// ctx cancellation. This is what makes Phase 1 "strictly sequential...with a
// mandated inter-file delay" (§5) true at the single component that issues
// every LLM call.
func (r *reviewer) throttle(ctx context.Context) {
	r.mu.Lock()
	wait := r.interDelay - time.Since(r.lastCall)
	r.mu.Unlock()
	if wait <= 0 {
		r.mu.Lock()
		r.lastCall = time.Now()
		r.mu.Unlock()
		return
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
	r.mu.Lock()
	r.lastCall = time.Now()
	r.mu.Unlock()
}

// classifyLLMError treats provider quota/rate-limit phrasing as RateLimited,
// auth-ish phrasing as Fatal, and everything else as Transient. goframe's
// llms.Model wraps multiple providers (Gemini, Ollama) behind a plain error
// return with no shared typed error, so classification here is
// string-based, same as the donor's own quota-detection in app.go.
func classifyLLMError(err error) (retry.Classification, time.Duration) {
	if err == nil {
		return retry.Transient, 0
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource exhausted"):
		return retry.RateLimited, 0
	case strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "401"),
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "permission denied"):
		return retry.Fatal, 0
	default:
		return retry.Transient, 0
	}
}
