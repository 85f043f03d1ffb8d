package analysis

import (
	"fmt"

	"github.com/sevigo/pr-warden/internal/core"
)

// FindingsFromDuplicates turns DuplicateMatches into RawFindings so they can
// flow through the same Normalizer pipeline as every other analyzer's
// output. The Finding is anchored at SymbolA (the PR-side symbol); SymbolB
// is carried in Related so posting/reporting can point at the match.
func FindingsFromDuplicates(matches []core.DuplicateMatch) []core.RawFinding {
	findings := make([]core.RawFinding, 0, len(matches))
	for _, m := range matches {
		scopeDesc := "within this PR"
		if m.Scope == core.ScopeCrossRepo {
			scopeDesc = "in the indexed base branch"
		}
		confidence := m.Similarity
		findings = append(findings, core.RawFinding{
			File:     m.SymbolA.FilePath,
			Line:     m.SymbolA.Line,
			Severity: "minor",
			Category: core.CategoryDuplicate,
			Message: fmt.Sprintf("%q looks %.0f%% similar to %q (%s) %s; consider consolidating",
				m.SymbolA.Name, m.Similarity*100, m.SymbolB.Name, m.SymbolB.FilePath, scopeDesc),
			Confidence: &confidence,
			Source:     "duplicate-detector",
			Related:    []core.SymbolRef{m.SymbolB},
		})
	}
	return findings
}

// FindingsFromBreakingChanges turns BreakingChanges into RawFindings anchored
// at the baseline symbol's declared location, with every impacted call site
// carried in Related.
func FindingsFromBreakingChanges(changes []core.BreakingChange) []core.RawFinding {
	findings := make([]core.RawFinding, 0, len(changes))
	for _, c := range changes {
		var msg string
		switch c.Kind {
		case core.BreakingRemoval:
			msg = fmt.Sprintf("%q was removed but is referenced by %d known call site(s)", c.Before.Name, len(c.ImpactedCallsites))
		case core.BreakingVisibility:
			msg = fmt.Sprintf("%q had its visibility narrowed, breaking %d known caller(s)", c.Before.Name, len(c.ImpactedCallsites))
		case core.BreakingSignature:
			msg = fmt.Sprintf("%q changed its parameter list, breaking %d known caller(s)", c.Before.Name, len(c.ImpactedCallsites))
		case core.BreakingReturnType:
			msg = fmt.Sprintf("%q changed its return type, breaking %d known caller(s)", c.Before.Name, len(c.ImpactedCallsites))
		default:
			msg = fmt.Sprintf("%q changed in a way that may break %d known caller(s)", c.Before.Name, len(c.ImpactedCallsites))
		}

		severity := "major"
		if len(c.ImpactedCallsites) == 0 {
			severity = "minor"
		}

		findings = append(findings, core.RawFinding{
			File:     c.Before.FilePath,
			Line:     c.Before.Line,
			Severity: severity,
			Category: core.CategoryBreakingChange,
			Message:  msg,
			Source:   "breaking-change-detector",
			Related:  c.ImpactedCallsites,
		})
	}
	return findings
}
