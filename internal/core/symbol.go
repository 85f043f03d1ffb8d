// Package core defines the shared data model that flows through the review
// pipeline: symbols, findings, duplicate and breaking-change records, and the
// final report. These types are intentionally dependency-free so every
// component (extractor, analyzers, orchestrator, serializer) can share them
// without import cycles.
package core

import (
	"fmt"
	"strings"
)

// SymbolKind enumerates the kinds of named entities a Symbol Extractor can
// emit.
type SymbolKind string

const (
	KindClass    SymbolKind = "class"
	KindMethod   SymbolKind = "method"
	KindFunction SymbolKind = "function"
	KindField    SymbolKind = "field"
	KindEnum     SymbolKind = "enum"
)

// Visibility is ordered from most to least exposed; narrowing a symbol's
// visibility (moving right in this list) is a breaking change.
type Visibility int

const (
	VisibilityUnknown Visibility = iota
	VisibilityPublic
	VisibilityPackage
	VisibilityProtected
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityPackage:
		return "package"
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Signature is the structured form of a symbol's declaration.
type Signature struct {
	Text       string
	Parameters []string
	ReturnType string
	Visibility Visibility
	Modifiers  []string
}

// ParseQuality records how confidently a symbol was extracted.
type ParseQuality string

const (
	ParseQualityHigh ParseQuality = "high"
	ParseQualityLow  ParseQuality = "low"
)

// Symbol is a single named code entity extracted from a source file.
// Identity is (Repository, Branch, FilePath, Kind, Name, StartLine).
type Symbol struct {
	Repository string
	Branch     string
	FilePath   string
	Kind       SymbolKind
	Name       string

	Signature Signature
	Body      string

	StartLine int
	EndLine   int

	CallEdges []string

	ParseQuality ParseQuality
}

// ID returns a stable, human-readable identity string for the symbol,
// suitable as a map key in the Vector Store and Duplicate Detector.
func (s Symbol) ID() string {
	return fmt.Sprintf("%s@%s:%s:%s:%s:%d", s.Repository, s.Branch, s.FilePath, s.Kind, s.Name, s.StartLine)
}

// Valid reports whether the symbol satisfies the Extractor's invariants.
func (s Symbol) Valid() bool {
	if s.Name == "unknown" || s.Name == "" {
		return false
	}
	if s.StartLine > s.EndLine {
		return false
	}
	if s.Signature.Text != "" && s.Name == "" {
		return false
	}
	return true
}

// ParsedFile is the result of extracting symbols from a single source file.
type ParsedFile struct {
	FilePath  string
	Symbols   []Symbol
	CallEdges []string
}

// IsTestFile reports whether a path looks like a test/spec file, per the
// Duplicate Detector's and Finding Normalizer's shared context-filtering
// rules.
func IsTestFile(path string) bool {
	lower := strings.ToLower(path)
	for _, marker := range []string{"/test/", "/spec/", "/tests/"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, suffix := range []string{".test.go", ".test.js", ".test.ts", ".spec.go", ".spec.js", ".spec.ts", "_test.go"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// Embedding is a fixed-dimension vector representation of a Symbol's body,
// produced by the Embedding Client and persisted by the Vector Store.
type Embedding struct {
	SymbolID string
	Vector   []float64
	Metadata map[string]string
}
