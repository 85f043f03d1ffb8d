package analysis

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/pr-warden/internal/core"
)

// ErrRulesNotFound is returned by LoadArchRules when no per-repository
// override file exists; callers treat this as "use the built-in defaults",
// mirroring the donor's ErrConfigNotFound convention in
// internal/config/repo_config.go.
var ErrRulesNotFound = errors.New("architecture rules file not found")

// NamingRule enforces a casing convention for a symbol kind.
type NamingRule struct {
	Kind       core.SymbolKind `yaml:"kind"`
	Convention string          `yaml:"convention"` // "camelCase" or "PascalCase"
}

// ImportRule forbids a layer from importing another, matched by path
// substring against the symbol's file path and its outbound call edges
// (a crude proxy for imports when the extractor doesn't resolve them).
type ImportRule struct {
	FromLayer string `yaml:"from_layer"`
	ToLayer   string `yaml:"to_layer"`
}

// PlacementRule requires symbols of a given kind to live under a path
// prefix.
type PlacementRule struct {
	Kind       core.SymbolKind `yaml:"kind"`
	PathPrefix string          `yaml:"path_prefix"`
}

// Rules is the declarative rule list the Architecture Rules Engine applies,
// loaded from an optional per-repository YAML file
// (`.pr-warden-arch.yml`), mirroring the donor's repo-level-override-with-
// built-in-defaults convention.
type Rules struct {
	Naming    []NamingRule    `yaml:"naming"`
	Imports   []ImportRule    `yaml:"imports"`
	Placement []PlacementRule `yaml:"placement"`
}

// DefaultRules returns sane built-in defaults used when no repository
// override file is present.
func DefaultRules() *Rules {
	return &Rules{
		Naming: []NamingRule{
			{Kind: core.KindMethod, Convention: "camelCase"},
			{Kind: core.KindFunction, Convention: "camelCase"},
			{Kind: core.KindClass, Convention: "PascalCase"},
		},
	}
}

// LoadArchRules loads a `.pr-warden-arch.yml` file from repoPath, falling
// back to DefaultRules (with ErrRulesNotFound) when absent.
func LoadArchRules(repoPath string) (*Rules, error) {
	path := filepath.Join(repoPath, ".pr-warden-arch.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), ErrRulesNotFound
		}
		return nil, fmt.Errorf("failed to read architecture rules file: %w", err)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse architecture rules file: %w", err)
	}
	return rules, nil
}

// Engine is the Architecture Rules Engine (C9): applies a declarative rule
// list to PR symbols and yields Findings with category `architecture`.
type Engine interface {
	Apply(symbols []core.Symbol) []core.RawFinding
}

type engine struct {
	rules *Rules
}

// NewEngine builds the Architecture Rules Engine around a resolved rule set
// (either repo-loaded or DefaultRules()).
func NewEngine(rules *Rules) Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &engine{rules: rules}
}

var pascalRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)

func (e *engine) Apply(symbols []core.Symbol) []core.RawFinding {
	var findings []core.RawFinding

	for _, s := range symbols {
		findings = append(findings, e.checkNaming(s)...)
		findings = append(findings, e.checkPlacement(s)...)
	}
	findings = append(findings, e.checkImports(symbols)...)

	return findings
}

func (e *engine) checkNaming(s core.Symbol) []core.RawFinding {
	for _, rule := range e.rules.Naming {
		if rule.Kind != s.Kind {
			continue
		}
		if !matchesConvention(s.Name, rule.Convention) {
			return []core.RawFinding{{
				File:     s.FilePath,
				Line:     s.StartLine,
				Severity: "minor",
				Category: core.CategoryArchitecture,
				Message:  fmt.Sprintf("%s %q does not follow the %s naming convention required for %s symbols", s.Kind, s.Name, rule.Convention, s.Kind),
				Source:   "architecture.naming",
				Related:  []core.SymbolRef{toRef(s)},
			}}
		}
	}
	return nil
}

func matchesConvention(name, convention string) bool {
	if name == "" {
		return true
	}
	switch convention {
	case "PascalCase":
		return pascalRe.MatchString(name)
	case "camelCase":
		if unicode.IsUpper(rune(name[0])) {
			return false
		}
		return true
	default:
		return true
	}
}

func (e *engine) checkPlacement(s core.Symbol) []core.RawFinding {
	for _, rule := range e.rules.Placement {
		if rule.Kind != s.Kind {
			continue
		}
		if !strings.HasPrefix(s.FilePath, rule.PathPrefix) {
			return []core.RawFinding{{
				File:     s.FilePath,
				Line:     s.StartLine,
				Severity: "minor",
				Category: core.CategoryArchitecture,
				Message:  fmt.Sprintf("%s %q must live under %q per file-placement rules", s.Kind, s.Name, rule.PathPrefix),
				Source:   "architecture.placement",
				Related:  []core.SymbolRef{toRef(s)},
			}}
		}
	}
	return nil
}

// checkImports applies forbidden-layer rules using each symbol's file path
// and outbound call edges as a proxy for its import graph, since the
// extractor reports call names, not resolved imports.
func (e *engine) checkImports(symbols []core.Symbol) []core.RawFinding {
	var findings []core.RawFinding
	for _, rule := range e.rules.Imports {
		for _, s := range symbols {
			if !strings.Contains(s.FilePath, rule.FromLayer) {
				continue
			}
			for _, edge := range s.CallEdges {
				if strings.Contains(edge, rule.ToLayer) {
					findings = append(findings, core.RawFinding{
						File:     s.FilePath,
						Line:     s.StartLine,
						Severity: "major",
						Category: core.CategoryArchitecture,
						Message:  fmt.Sprintf("layer %q must not import from layer %q (call to %q in %s)", rule.FromLayer, rule.ToLayer, edge, s.Name),
						Source:   "architecture.imports",
						Related:  []core.SymbolRef{toRef(s)},
					})
				}
			}
		}
	}
	return findings
}
