package extractor

import (
	"regexp"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// regexSpec describes a single construct a regex-based backend can recognize
// for a language: the kind it produces and the pattern whose first capture
// group is the symbol name. Visibility is decided per language by
// regexVisibility, not by the regexSpec entry.
type regexSpec struct {
	kind    core.SymbolKind
	pattern *regexp.Regexp
}

var regexSpecsByLang = map[language][]regexSpec{
	langJava: {
		{core.KindClass, regexp.MustCompile(`(?m)^\s*(?:public|private|protected)?\s*(?:abstract\s+|final\s+)?class\s+(\w+)`)},
		{core.KindMethod, regexp.MustCompile(`(?m)^\s*(?:public|private|protected)\s+(?:static\s+)?(?:[\w<>\[\],\s]+)\s+(\w+)\s*\([^)]*\)\s*(?:throws\s+[\w,\s]+)?\s*\{`)},
	},
	langC: {
		{core.KindFunction, regexp.MustCompile(`(?m)^[\w\*\s]+?\b(\w+)\s*\([^;{]*\)\s*\{`)},
	},
	langCpp: {
		{core.KindClass, regexp.MustCompile(`(?m)^\s*class\s+(\w+)`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^[\w:<>\*\s]+?\b(\w+)\s*\([^;{]*\)\s*(?:const\s*)?\{`)},
	},
	langRuby: {
		{core.KindClass, regexp.MustCompile(`(?m)^\s*class\s+(\w+)`)},
		{core.KindMethod, regexp.MustCompile(`(?m)^\s*def\s+(?:self\.)?(\w+)`)},
	},
	langPHP: {
		{core.KindClass, regexp.MustCompile(`(?m)^\s*(?:abstract\s+|final\s+)?class\s+(\w+)`)},
		{core.KindMethod, regexp.MustCompile(`(?m)^\s*(?:public|private|protected)?\s*(?:static\s+)?function\s+(\w+)\s*\(`)},
	},
	langCSharp: {
		{core.KindClass, regexp.MustCompile(`(?m)^\s*(?:public|private|internal|protected)?\s*(?:abstract\s+|sealed\s+|static\s+)?class\s+(\w+)`)},
		{core.KindMethod, regexp.MustCompile(`(?m)^\s*(?:public|private|internal|protected)\s+(?:static\s+|virtual\s+|override\s+|async\s+)*[\w<>\[\],\s\.]+\s+(\w+)\s*\([^)]*\)\s*\{`)},
	},
	langSwift: {
		{core.KindClass, regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|final\s+)?class\s+(\w+)`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|internal\s+)?func\s+(\w+)\s*\(`)},
	},
	langKotlin: {
		{core.KindClass, regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|internal\s+|open\s+|sealed\s+|data\s+)*class\s+(\w+)`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|internal\s+|override\s+|suspend\s+)*fun\s+(\w+)\s*\(`)},
	},
	langScala: {
		{core.KindClass, regexp.MustCompile(`(?m)^\s*(?:case\s+)?class\s+(\w+)`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^\s*(?:private\s+|protected\s+|override\s+)*def\s+(\w+)\s*[\(\[]`)},
	},
	// Go/JS/TS/Python also fall back here if the grammar-based pass errors.
	langGo: {
		{core.KindClass, regexp.MustCompile(`(?m)^type\s+(\w+)\s+struct`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^func\s+(\w+)\s*\(`)},
		{core.KindMethod, regexp.MustCompile(`(?m)^func\s+\([^)]*\)\s*(\w+)\s*\(`)},
	},
	langJavaScript: {
		{core.KindClass, regexp.MustCompile(`(?m)^\s*class\s+(\w+)`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(`)},
		// Top-level `const/let/var name = (...) => {...}` or `= function(...) {...}`:
		// an anonymous function kept only because it's bound at top level (§4.1).
		{core.KindFunction, regexp.MustCompile(`(?m)^(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\([^)]*\)\s*=>`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?function\b`)},
		{core.KindMethod, regexp.MustCompile(`(?m)^\s*(?:async\s+)?(\w+)\s*\([^)]*\)\s*\{`)},
	},
	langTypeScript: {
		{core.KindClass, regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:abstract\s+)?class\s+(\w+)`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\([^)]*\)(?:\s*:\s*[\w<>\[\],\s]+)?\s*=>`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?function\b`)},
		{core.KindMethod, regexp.MustCompile(`(?m)^\s*(?:public|private|protected)?\s*(?:async\s+)?(\w+)\s*\([^)]*\)\s*:?\s*[\w<>\[\],\s]*\{`)},
	},
	langPython: {
		{core.KindClass, regexp.MustCompile(`(?m)^class\s+(\w+)`)},
		{core.KindFunction, regexp.MustCompile(`(?m)^def\s+(\w+)\s*\(`)},
		{core.KindMethod, regexp.MustCompile(`(?m)^\s+def\s+(\w+)\s*\(`)},
	},
}

// extractRegex is the regex-based fallback backend (§4.1): lower-fidelity
// than the grammar-based extractor (no call-edge resolution, approximate
// spans), used when no grammar is registered for a language or the
// grammar-based parse failed. Every symbol it emits is flagged
// parseQuality=low.
func extractRegex(repository, branch, path, source string, lang language) (core.ParsedFile, error) {
	specs := regexSpecsByLang[lang]
	lines := strings.Split(source, "\n")

	var symbols []core.Symbol
	for _, spec := range specs {
		matches := spec.pattern.FindAllStringSubmatchIndex(source, -1)
		for _, m := range matches {
			if len(m) < 4 {
				continue
			}
			name := source[m[2]:m[3]]
			if name == "unknown" || name == "" {
				continue
			}
			startLine := lineOf(source, m[0])
			endLine := estimateEndLine(lines, startLine)

			symbols = append(symbols, core.Symbol{
				Repository:   repository,
				Branch:       branch,
				FilePath:     path,
				Kind:         spec.kind,
				Name:         name,
				Signature:    core.Signature{Text: strings.TrimSpace(source[m[0]:min(m[1], len(source))]), Visibility: regexVisibility(lang, name)},
				Body:         strings.Join(lines[clampIdx(startLine-1, len(lines)):clampIdx(endLine, len(lines))], "\n"),
				StartLine:    startLine,
				EndLine:      endLine,
				ParseQuality: core.ParseQualityLow,
			})
		}
	}

	return core.ParsedFile{FilePath: path, Symbols: symbols}, nil
}

func regexVisibility(lang language, name string) core.Visibility {
	switch lang {
	case langGo:
		if name != "" && name[0] >= 'A' && name[0] <= 'Z' {
			return core.VisibilityPublic
		}
		return core.VisibilityPrivate
	case langPython, langRuby:
		if strings.HasPrefix(name, "__") {
			return core.VisibilityPrivate
		}
		if strings.HasPrefix(name, "_") {
			return core.VisibilityProtected
		}
		return core.VisibilityPublic
	default:
		return core.VisibilityUnknown
	}
}

func lineOf(source string, byteOffset int) int {
	return strings.Count(source[:byteOffset], "\n") + 1
}

// estimateEndLine finds the matching closing brace/indentation boundary for
// a construct starting at startLine, capped to a reasonable window so a
// single unmatched brace can't make a symbol swallow the rest of the file.
func estimateEndLine(lines []string, startLine int) int {
	const maxWindow = 400
	depth := 0
	seenOpen := false
	for i := startLine - 1; i < len(lines) && i < startLine-1+maxWindow; i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				seenOpen = true
			case '}':
				depth--
			}
		}
		if seenOpen && depth <= 0 {
			return i + 1
		}
	}
	end := startLine
	if end > len(lines) {
		end = len(lines)
	}
	return end
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
