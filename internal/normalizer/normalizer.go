// Package normalizer implements the Finding Normalizer (C11): the ordered
// pipeline that turns every analyzer's and the LLM Reviewer's RawFindings
// into the canonical, deduplicated, severity/confidence-normalized
// core.Finding list the rest of the pipeline (summary, comment poster,
// report serializer) consumes.
package normalizer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// Merger attempts an LLM-backed merge of multiple Findings that survive at
// the same (file, line) into a single Finding preserving every contract
// (§4.11 step 6). When unavailable, Normalize falls back to the
// category-grouped concatenation the spec also names.
type Merger interface {
	Merge(ctx context.Context, findings []core.Finding) (core.Finding, error)
}

// Normalize runs the full ordered pipeline from §4.11 over a batch of
// RawFindings from every source (analyzers, LLM, fallback generator) and
// returns the sorted, deduplicated Finding list. merger may be nil, in
// which case step 6 always uses the deterministic category-group fallback.
func Normalize(ctx context.Context, raw []core.RawFinding, merger Merger) []core.Finding {
	findings := make([]core.Finding, 0, len(raw))
	for _, r := range raw {
		findings = append(findings, normalizeOne(r))
	}

	findings = contextFilter(findings)
	findings = dropDuplicateCircularity(findings)
	findings = dedupAndMerge(ctx, findings, merger)

	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Severity.Weight() != b.Severity.Weight() {
			return a.Severity.Weight() > b.Severity.Weight()
		}
		return a.Confidence > b.Confidence
	})
	return findings
}

// normalizeOne performs steps 1-2: severity canonicalization and confidence
// assignment/clamping.
func normalizeOne(r core.RawFinding) core.Finding {
	severity := core.NormalizeSeverity(r.Severity)

	var confidence float64
	if r.Confidence != nil {
		confidence = clamp(*r.Confidence, 0, 1)
	} else {
		switch strings.ToLower(strings.TrimSpace(r.Severity)) {
		case "critical", "high":
			confidence = 0.9
		case "major", "medium":
			confidence = 0.75
		case "minor":
			confidence = 0.55
		default:
			confidence = 0.55
		}
		if r.Suggestion != "" {
			confidence += 0.05
		}
		if isFallbackOrHeuristic(r.Source) && severity == core.SeverityLow {
			confidence -= 0.1
		}
		confidence = clamp(confidence, 0, 1)
	}

	return core.Finding{
		File:       r.File,
		Line:       r.Line,
		Severity:   severity,
		Category:   r.Category,
		Message:    r.Message,
		Suggestion: r.Suggestion,
		Confidence: confidence,
		Source:     r.Source,
		Related:    r.Related,
	}
}

func isFallbackOrHeuristic(source string) bool {
	return strings.HasPrefix(source, "fallback") || strings.HasPrefix(source, "heuristic") || strings.HasPrefix(source, "architecture")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var contextFilteredCategories = map[core.Category]struct{}{
	core.CategoryDocumentation: {},
	core.CategoryObservability: {},
	core.CategoryStyle:         {},
	core.CategoryDuplicate:     {},
}

// contextFilter implements step 3: in test files, drop low-severity
// Findings whose category is one the spec names as noise for test code.
func contextFilter(findings []core.Finding) []core.Finding {
	out := findings[:0:0]
	for _, f := range findings {
		if core.IsTestFile(f.File) && f.Severity == core.SeverityLow {
			if _, filtered := contextFilteredCategories[f.Category]; filtered {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// dropDuplicateCircularity implements step 4: a cross-file duplicate Finding
// where both the anchor file and every related symbol's file are test files
// is dropped, since flagging "these two tests look similar" is rarely
// actionable and would otherwise survive the context filter for non-low
// severities.
func dropDuplicateCircularity(findings []core.Finding) []core.Finding {
	out := findings[:0:0]
	for _, f := range findings {
		if f.Category == core.CategoryDuplicate && core.IsTestFile(f.File) {
			allRelatedAreTests := len(f.Related) > 0
			for _, rel := range f.Related {
				if !core.IsTestFile(rel.FilePath) {
					allRelatedAreTests = false
					break
				}
			}
			if allRelatedAreTests {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// dedupAndMerge implements steps 5-6: groups by (file, line), keeps the
// single highest-priority Finding when only one group member matters, and
// merges when two or more genuinely distinct Findings survive at the same
// location.
func dedupAndMerge(ctx context.Context, findings []core.Finding, merger Merger) []core.Finding {
	type key struct {
		file string
		line int
	}
	groups := make(map[key][]core.Finding)
	var order []key
	for _, f := range findings {
		k := key{f.File, f.Line}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	out := make([]core.Finding, 0, len(order))
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		out = append(out, mergeGroup(ctx, group, merger))
	}
	return out
}

// mergeGroup picks the single surviving Finding for a (file, line) location.
// With exactly one member nothing to merge; with two or more it attempts an
// LLM merge, falling back to deterministic category-grouped concatenation.
func mergeGroup(ctx context.Context, group []core.Finding, merger Merger) core.Finding {
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].Severity.Weight() != group[j].Severity.Weight() {
			return group[i].Severity.Weight() > group[j].Severity.Weight()
		}
		if group[i].Confidence != group[j].Confidence {
			return group[i].Confidence > group[j].Confidence
		}
		return (group[i].Suggestion != "") && (group[j].Suggestion == "")
	})

	if merger != nil {
		if merged, err := merger.Merge(ctx, group); err == nil {
			return merged
		}
	}
	return deterministicMerge(group)
}

// categoryRank orders categories for the merge message per §4.11's
// "security → logic → smell → other" grouping.
func categoryRank(c core.Category) int {
	switch c {
	case core.CategorySecurity:
		return 0
	case core.CategoryCorrectness, core.CategoryBreakingChange:
		return 1
	case core.CategoryStyle, core.CategoryDuplicate, core.CategoryDocumentation:
		return 2
	default:
		return 3
	}
}

// deterministicMerge is the non-LLM fallback: the highest-severity Finding
// becomes the base, its message is prefixed by every surviving category in
// rank order, and suggestions are concatenated.
func deterministicMerge(group []core.Finding) core.Finding {
	sorted := append([]core.Finding{}, group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return categoryRank(sorted[i].Category) < categoryRank(sorted[j].Category)
	})

	base := group[0] // already severity/confidence-sorted by mergeGroup
	var messages []string
	var suggestions []string
	seenCategory := make(map[core.Category]struct{})
	var categories []string
	for _, f := range sorted {
		messages = append(messages, fmt.Sprintf("[%s] %s", f.Category, f.Message))
		if f.Suggestion != "" {
			suggestions = append(suggestions, f.Suggestion)
		}
		if _, ok := seenCategory[f.Category]; !ok {
			seenCategory[f.Category] = struct{}{}
			categories = append(categories, string(f.Category))
		}
	}

	merged := base
	merged.Message = fmt.Sprintf("Multiple issues found (%s): %s", strings.Join(categories, ", "), strings.Join(messages, " | "))
	if len(suggestions) > 0 {
		merged.Suggestion = strings.Join(suggestions, "\n---\n")
	}
	return merged
}
