// Package extractor implements the Symbol Extractor (C1): parsing a source
// file into a ParsedFile of Symbols with signature, span, body, and outbound
// call edges. Two implementations are supported polymorphically, as the
// specification requires: a tree-sitter grammar-based extractor (preferred)
// and a regex-based fallback used for languages without a grammar wired in,
// or when the grammar-based parse fails outright.
package extractor

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// Extractor parses a single source file into symbols and call edges.
type Extractor interface {
	Extract(repository, branch, path, source string) (core.ParsedFile, error)
}

// extractor tries the grammar-based backend first and falls back to the
// regex backend on a missing grammar or a parse failure, per §4.1: "try
// grammar-based; on failure (missing grammar, parse error), fall back and
// flag parseQuality = low on each symbol."
type extractor struct {
	grammar *grammarExtractor
	logger  *slog.Logger
}

// New builds the polymorphic Extractor.
func New(logger *slog.Logger) Extractor {
	return &extractor{grammar: newGrammarExtractor(), logger: logger}
}

func (e *extractor) Extract(repository, branch, path, source string) (core.ParsedFile, error) {
	lang := languageFor(path)

	if e.grammar.supports(lang) {
		parsed, err := e.grammar.extract(repository, branch, path, source, lang)
		if err == nil {
			return postProcess(parsed), nil
		}
		if e.logger != nil {
			e.logger.Warn("grammar-based extraction failed, falling back to regex", "path", path, "error", err)
		}
	}

	parsed, err := extractRegex(repository, branch, path, source, lang)
	if err != nil {
		return core.ParsedFile{}, fmt.Errorf("failed to extract symbols from %s: %w", path, err)
	}
	return postProcess(parsed), nil
}

// postProcess enforces the shared invariants every backend must respect:
// symbols named "unknown" are discarded, and outbound call edges are
// deduplicated onto the ParsedFile.
func postProcess(parsed core.ParsedFile) core.ParsedFile {
	kept := parsed.Symbols[:0]
	edgeSet := make(map[string]struct{})
	for _, s := range parsed.Symbols {
		if s.Name == "unknown" || s.Name == "" {
			continue
		}
		if s.StartLine > s.EndLine {
			s.EndLine = s.StartLine
		}
		kept = append(kept, s)
		for _, e := range s.CallEdges {
			edgeSet[e] = struct{}{}
		}
	}
	parsed.Symbols = kept

	edges := make([]string, 0, len(edgeSet))
	for e := range edgeSet {
		edges = append(edges, e)
	}
	parsed.CallEdges = edges
	return parsed
}

// language identifies the source language a file belongs to, independent of
// which backend (if any) can actually parse it.
type language string

const (
	langGo         language = "go"
	langJavaScript language = "javascript"
	langTypeScript language = "typescript"
	langPython     language = "python"
	langRust       language = "rust"
	langJava       language = "java"
	langC          language = "c"
	langCpp        language = "cpp"
	langRuby       language = "ruby"
	langPHP        language = "php"
	langCSharp     language = "csharp"
	langSwift      language = "swift"
	langKotlin     language = "kotlin"
	langScala      language = "scala"
	langUnknown    language = "unknown"
)

func languageFor(path string) language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return langGo
	case ".js", ".jsx", ".mjs", ".cjs":
		return langJavaScript
	case ".ts", ".tsx":
		return langTypeScript
	case ".py":
		return langPython
	case ".rs":
		return langRust
	case ".java":
		return langJava
	case ".c", ".h":
		return langC
	case ".cpp", ".cc", ".hpp":
		return langCpp
	case ".rb":
		return langRuby
	case ".php":
		return langPHP
	case ".cs":
		return langCSharp
	case ".swift":
		return langSwift
	case ".kt", ".kts":
		return langKotlin
	case ".scala":
		return langScala
	default:
		return langUnknown
	}
}
