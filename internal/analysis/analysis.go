// Package analysis implements the deterministic analyzer bundle run in
// Phase 0.2 and Phase 6 of the Orchestrator: the Duplicate Detector (C7),
// the Breaking-Change Detector (C8), the Architecture Rules Engine (C9), and
// the Heuristic Analyzers (C10). Every analyzer here produces
// core.RawFinding (or the dedicated DuplicateMatch/BreakingChange records),
// never a normalized core.Finding directly — normalization is the Finding
// Normalizer's job alone.
package analysis

import (
	"strings"
	"unicode"

	"github.com/sevigo/pr-warden/internal/core"
)

// toRef builds a lightweight symbol reference for Finding.Related and for
// DuplicateMatch/BreakingChange records, so analyzers never hold a direct
// pointer into another component's symbol table (§9 "identity by key").
func toRef(s core.Symbol) core.SymbolRef {
	return core.SymbolRef{FilePath: s.FilePath, Name: s.Name, Line: s.StartLine}
}

// isDocFile reports whether a path is non-source documentation, which the
// Duplicate Detector's hard filtering rules exclude from matching.
func isDocFile(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range []string{".md", ".rst", ".txt", ".adoc"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return strings.Contains(lower, "/docs/") || strings.HasPrefix(lower, "docs/")
}

// categoryAlign reports whether two symbols are comparable for within-PR
// duplicate detection: the spec requires "categories align (e.g., both
// methods)", which this treats as same SymbolKind, collapsing function and
// method together since the boundary between them is language-dependent
// (a "function" in Go can be what another extractor calls a "method").
func categoryAlign(a, b core.SymbolKind) bool {
	norm := func(k core.SymbolKind) core.SymbolKind {
		if k == core.KindFunction {
			return core.KindMethod
		}
		return k
	}
	return norm(a) == norm(b)
}

// tokenize lowercases and splits body text into an identifier-token set for
// the Jaccard fallback similarity used when no embedding is available.
func tokenize(body string) map[string]struct{} {
	tokens := make(map[string]struct{})
	var cur strings.Builder
	flush := func() {
		if cur.Len() >= 2 {
			tokens[strings.ToLower(cur.String())] = struct{}{}
		}
		cur.Reset()
	}
	for _, r := range body {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// jaccard computes the Jaccard index between two token sets, the normalized
// textual similarity fallback §4.7 mandates "when embeddings when
// available; otherwise a normalized textual Jaccard over tokenized bodies."
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
