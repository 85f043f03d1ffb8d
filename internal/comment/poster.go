// Package comment implements the Comment Poster (C13): it maps the
// Normalizer's surviving Findings to platform inline review comments and
// per-file summary comments, respecting the platform's rate limits and the
// inline-eligibility rules in §4.13.
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/platform"
)

// maxMediumInlinePerFile caps how many medium-severity
// architecture/breaking-change Findings can be posted inline for a single
// file before the rest fall back to the summary comment (§4.13).
const maxMediumInlinePerFile = 3

// Poster is the Comment Poster contract.
type Poster interface {
	Post(ctx context.Context, repo string, number int, files []platform.ChangedFile, findings []core.Finding) error
}

type poster struct {
	client    platform.Client
	logger    *slog.Logger
	throttle  time.Duration
	lastPost  time.Time
	postLimit int
}

// New builds the Comment Poster around an authenticated Platform Client.
func New(client platform.Client, logger *slog.Logger) Poster {
	return &poster{client: client, logger: logger, throttle: time.Second}
}

func isInlineEligible(f core.Finding, mediumInlineUsed int) (bool, int) {
	if f.Severity == core.SeverityHigh {
		return true, mediumInlineUsed
	}
	if f.Severity == core.SeverityMedium &&
		(f.Category == core.CategoryArchitecture || f.Category == core.CategoryBreakingChange) {
		if mediumInlineUsed < maxMediumInlinePerFile {
			return true, mediumInlineUsed + 1
		}
	}
	return false, mediumInlineUsed
}

// Post groups Findings by file, splits each file's Findings into inline vs
// summary per §4.13's eligibility rules, downgrades inline candidates whose
// line isn't diff-visible, and posts the results through the Platform
// Client, throttled to at most one request per second.
func (p *poster) Post(ctx context.Context, repo string, number int, files []platform.ChangedFile, findings []core.Finding) error {
	validLines := make(map[string]map[int]struct{}, len(files))
	for _, f := range files {
		validLines[f.Path] = platform.ParseValidLinesFromPatch(f.Patch, p.logger)
	}

	byFile := make(map[string][]core.Finding)
	var fileOrder []string
	for _, f := range findings {
		if _, ok := byFile[f.File]; !ok {
			fileOrder = append(fileOrder, f.File)
		}
		byFile[f.File] = append(byFile[f.File], f)
	}
	sort.Strings(fileOrder)

	var allInline []platform.InlineComment
	var summaryParts []string

	for _, file := range fileOrder {
		fileFindings := byFile[file]
		lines := validLines[file]
		mediumUsed := 0

		var inlineForFile []core.Finding
		var summaryForFile []core.Finding

		for _, f := range fileFindings {
			eligible, used := isInlineEligible(f, mediumUsed)
			mediumUsed = used
			if eligible && postable(f, lines) {
				inlineForFile = append(inlineForFile, f)
				continue
			}
			summaryForFile = append(summaryForFile, f)
		}

		for _, f := range inlineForFile {
			allInline = append(allInline, platform.InlineComment{
				Path: f.File,
				Line: f.Line,
				Body: commentBody(f),
			})
		}

		if section := fileSummary(file, summaryForFile); section != "" {
			summaryParts = append(summaryParts, section)
		}
	}

	if len(allInline) > 0 {
		if err := p.throttled(ctx, func() error {
			return p.client.PostInline(ctx, repo, number, allInline, "")
		}); err != nil {
			p.logger.Error("failed to post inline review comments", "repo", repo, "pr", number, "error", err)
		}
	}

	if len(summaryParts) > 0 {
		body := strings.Join(summaryParts, "\n\n")
		if err := p.throttled(ctx, func() error {
			return p.client.PostSummary(ctx, repo, number, body)
		}); err != nil {
			p.logger.Error("failed to post summary comment", "repo", repo, "pr", number, "error", err)
		}
	}

	return nil
}

// postable reports whether a Finding's line is within the PR's diff-visible
// lines for its file; a Finding on a line outside the patch (e.g. a
// cross-repo duplicate pointing at unrelated context) is never inline
// postable and must downgrade to summary.
func postable(f core.Finding, validLines map[int]struct{}) bool {
	if validLines == nil {
		return false
	}
	_, ok := validLines[f.Line]
	return ok
}

func commentBody(f core.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**[%s/%s]** %s", strings.ToUpper(string(f.Severity)), f.Category, f.Message)
	if f.Suggestion != "" {
		fmt.Fprintf(&b, "\n\n```suggestion\n%s\n```", f.Suggestion)
	}
	return b.String()
}

// fileSummary renders a per-file summary section with a heading, or an
// empty string if there's nothing to say (empty summaries are not posted,
// per §4.13).
func fileSummary(file string, findings []core.Finding) string {
	if len(findings) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", file)
	for _, f := range findings {
		fmt.Fprintf(&b, "- **[%s/%s]** line %d: %s\n", strings.ToUpper(string(f.Severity)), f.Category, f.Line, f.Message)
	}
	return b.String()
}

// throttled enforces the at-most-one-request-per-second rate limit shared
// across every platform call this poster makes.
func (p *poster) throttled(ctx context.Context, fn func() error) error {
	wait := p.throttle - time.Since(p.lastPost)
	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.lastPost = time.Now()
	return fn()
}
