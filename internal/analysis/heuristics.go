package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// HeuristicAnalyzer is a single deterministic pass over PR symbols. Each
// implementation tags its output with a stable Source id so the Finding
// Normalizer's context filter (§4.11) can recognize heuristic/fallback
// origin Findings.
type HeuristicAnalyzer interface {
	Source() string
	Analyze(symbols []core.Symbol) []core.RawFinding
}

// HeuristicAnalyzers returns the bounded set of passes the spec names in
// §4.10: swallowed exceptions, missing error-boundary logging, missing
// documentation on public symbols, excessive nesting, magic numbers, and
// long methods.
func HeuristicAnalyzers() []HeuristicAnalyzer {
	return []HeuristicAnalyzer{
		swallowedExceptions{},
		missingErrorLogging{},
		missingDocumentation{},
		excessiveNesting{},
		magicNumbers{},
		longMethods{},
	}
}

// RunAll executes every heuristic analyzer against a symbol set, preserving
// the order each analyzer emits Findings in, per §5's ordering guarantee
// ("within a file, Findings preserve the order produced by their analyzer up
// to Normalizer").
func RunAll(analyzers []HeuristicAnalyzer, symbols []core.Symbol) []core.RawFinding {
	var out []core.RawFinding
	for _, a := range analyzers {
		out = append(out, a.Analyze(symbols)...)
	}
	return out
}

var emptyCatchRe = regexp.MustCompile(`(?s)catch\s*\([^)]*\)\s*\{\s*\}`)
var emptyExceptRe = regexp.MustCompile(`(?m)^\s*except[^:]*:\s*(?:pass)?\s*$`)
var emptyIfErrRe = regexp.MustCompile(`(?s)if\s+err\s*!=\s*nil\s*\{\s*\}`)

// swallowedExceptions flags catch/except/if-err blocks with an empty body:
// the error is observed but never handled or logged.
type swallowedExceptions struct{}

func (swallowedExceptions) Source() string { return "heuristic.swallowed_exceptions" }

func (h swallowedExceptions) Analyze(symbols []core.Symbol) []core.RawFinding {
	var findings []core.RawFinding
	for _, s := range symbols {
		if emptyCatchRe.MatchString(s.Body) || emptyExceptRe.MatchString(s.Body) || emptyIfErrRe.MatchString(s.Body) {
			findings = append(findings, core.RawFinding{
				File:     s.FilePath,
				Line:     s.StartLine,
				Severity: "major",
				Category: core.CategoryCorrectness,
				Message:  fmt.Sprintf("%s %q swallows an error/exception without handling or logging it", s.Kind, s.Name),
				Source:   h.Source(),
				Related:  []core.SymbolRef{toRef(s)},
			})
		}
	}
	return findings
}

var errReturnRe = regexp.MustCompile(`return\s+[^,\n]*,?\s*err\b`)
var logCallRe = regexp.MustCompile(`(?i)\b(log|logger|slog)\.`)

// missingErrorLogging flags functions/methods that return an error but never
// invoke a recognizable logging call anywhere in their body, a cheap proxy
// for "errors vanish silently at this boundary."
type missingErrorLogging struct{}

func (missingErrorLogging) Source() string { return "heuristic.missing_error_logging" }

func (h missingErrorLogging) Analyze(symbols []core.Symbol) []core.RawFinding {
	var findings []core.RawFinding
	for _, s := range symbols {
		if s.Kind != core.KindFunction && s.Kind != core.KindMethod {
			continue
		}
		if !errReturnRe.MatchString(s.Body) {
			continue
		}
		if logCallRe.MatchString(s.Body) {
			continue
		}
		findings = append(findings, core.RawFinding{
			File:     s.FilePath,
			Line:     s.StartLine,
			Severity: "minor",
			Category: core.CategoryObservability,
			Message:  fmt.Sprintf("%s %q returns an error without logging at this boundary", s.Kind, s.Name),
			Source:   h.Source(),
			Related:  []core.SymbolRef{toRef(s)},
		})
	}
	return findings
}

// missingDocumentation flags exported/public symbols with no comment at the
// start of their body, mirroring the "missing documentation on
// public symbols" pass named in §4.10.
type missingDocumentation struct{}

func (missingDocumentation) Source() string { return "heuristic.missing_documentation" }

func (h missingDocumentation) Analyze(symbols []core.Symbol) []core.RawFinding {
	var findings []core.RawFinding
	for _, s := range symbols {
		if s.Signature.Visibility != core.VisibilityPublic {
			continue
		}
		if s.Kind != core.KindClass && s.Kind != core.KindFunction && s.Kind != core.KindMethod {
			continue
		}
		if hasLeadingComment(s.Body) {
			continue
		}
		findings = append(findings, core.RawFinding{
			File:     s.FilePath,
			Line:     s.StartLine,
			Severity: "minor",
			Category: core.CategoryDocumentation,
			Message:  fmt.Sprintf("exported %s %q has no doc comment", s.Kind, s.Name),
			Source:   h.Source(),
			Related:  []core.SymbolRef{toRef(s)},
		})
	}
	return findings
}

func hasLeadingComment(body string) bool {
	trimmed := strings.TrimLeft(body, " \t\n")
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''")
}

// excessiveNesting flags bodies whose brace/indent depth exceeds a threshold,
// a cheap proxy for cyclomatic complexity without a real control-flow graph.
type excessiveNesting struct{}

func (excessiveNesting) Source() string { return "heuristic.excessive_nesting" }

const maxNestingDepth = 4

func (h excessiveNesting) Analyze(symbols []core.Symbol) []core.RawFinding {
	var findings []core.RawFinding
	for _, s := range symbols {
		if depth := braceDepth(s.Body); depth > maxNestingDepth {
			findings = append(findings, core.RawFinding{
				File:     s.FilePath,
				Line:     s.StartLine,
				Severity: "minor",
				Category: core.CategoryCorrectness,
				Message:  fmt.Sprintf("%s %q nests %d levels deep, consider extracting helpers", s.Kind, s.Name, depth),
				Source:   h.Source(),
				Related:  []core.SymbolRef{toRef(s)},
			})
		}
	}
	return findings
}

func braceDepth(body string) int {
	depth, max := 0, 0
	for _, r := range body {
		switch r {
		case '{':
			depth++
			if depth > max {
				max = depth
			}
		case '}':
			depth--
		}
	}
	return max
}

var magicNumberRe = regexp.MustCompile(`(?:^|[^.\w])(\d{2,})(?:[^.\w]|$)`)
var allowedMagicNumbers = map[string]struct{}{"100": {}, "1000": {}, "200": {}, "404": {}, "500": {}}

// magicNumbers flags unexplained multi-digit integer literals in a body,
// excluding a small allowlist of common, self-explanatory values (HTTP
// status codes, round percentages).
type magicNumbers struct{}

func (magicNumbers) Source() string { return "heuristic.magic_numbers" }

func (h magicNumbers) Analyze(symbols []core.Symbol) []core.RawFinding {
	var findings []core.RawFinding
	for _, s := range symbols {
		matches := magicNumberRe.FindAllStringSubmatch(s.Body, -1)
		var flagged []string
		for _, m := range matches {
			if _, allowed := allowedMagicNumbers[m[1]]; allowed {
				continue
			}
			flagged = append(flagged, m[1])
		}
		if len(flagged) == 0 {
			continue
		}
		findings = append(findings, core.RawFinding{
			File:     s.FilePath,
			Line:     s.StartLine,
			Severity: "nitpick",
			Category: core.CategoryStyle,
			Message:  fmt.Sprintf("%s %q contains unexplained magic numbers (%s); consider named constants", s.Kind, s.Name, strings.Join(dedupe(flagged), ", ")),
			Source:   h.Source(),
			Related:  []core.SymbolRef{toRef(s)},
		})
	}
	return findings
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// longMethods flags methods/functions whose span exceeds a line-count
// threshold.
type longMethods struct{}

func (longMethods) Source() string { return "heuristic.long_methods" }

const maxMethodLines = 80

func (h longMethods) Analyze(symbols []core.Symbol) []core.RawFinding {
	var findings []core.RawFinding
	for _, s := range symbols {
		if s.Kind != core.KindFunction && s.Kind != core.KindMethod {
			continue
		}
		span := s.EndLine - s.StartLine
		if span > maxMethodLines {
			findings = append(findings, core.RawFinding{
				File:     s.FilePath,
				Line:     s.StartLine,
				Severity: "minor",
				Category: core.CategoryCorrectness,
				Message:  fmt.Sprintf("%s %q is %d lines long, consider splitting it", s.Kind, s.Name, span),
				Source:   h.Source(),
				Related:  []core.SymbolRef{toRef(s)},
			})
		}
	}
	return findings
}
