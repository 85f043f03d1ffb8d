package analysis

import (
	"sort"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// BreakingChangeDetector is the Breaking-Change Detector (C8): it diffs a
// baseline symbol set against the PR's symbol set and locates impacted call
// sites by textual occurrence of `name(`.
type BreakingChangeDetector interface {
	Detect(baseline, prSymbols []core.Symbol) []core.BreakingChange
}

type breakingChangeDetector struct{}

// NewBreakingChangeDetector builds the detector. It has no external
// collaborators: everything it needs is already-extracted symbols.
func NewBreakingChangeDetector() BreakingChangeDetector {
	return &breakingChangeDetector{}
}

// identity is the (file-path, name) key the spec requires breaking-change
// comparison to use instead of holding direct symbol references (§9).
type identity struct {
	file string
	name string
}

func keyOf(s core.Symbol) identity {
	return identity{file: s.FilePath, name: s.Name}
}

// Detect compares every baseline symbol against its PR counterpart sharing
// (file, name) identity, and reports symbols present in the baseline but
// absent from the PR as removals.
func (d *breakingChangeDetector) Detect(baseline, prSymbols []core.Symbol) []core.BreakingChange {
	prByKey := make(map[identity]core.Symbol, len(prSymbols))
	for _, s := range prSymbols {
		prByKey[keyOf(s)] = s
	}

	allCallSites := append(append([]core.Symbol{}, baseline...), prSymbols...)

	var changes []core.BreakingChange
	for _, before := range baseline {
		key := keyOf(before)
		after, ok := prByKey[key]
		if !ok {
			changes = append(changes, core.BreakingChange{
				Before:            toRef(before),
				After:             nil,
				Kind:              core.BreakingRemoval,
				ImpactedCallsites: callsites(before.Name, allCallSites, before.FilePath),
			})
			continue
		}

		if kind, changed := diffKind(before, after); changed {
			afterRef := toRef(after)
			changes = append(changes, core.BreakingChange{
				Before:            toRef(before),
				After:             &afterRef,
				Kind:              kind,
				ImpactedCallsites: callsites(before.Name, allCallSites, before.FilePath),
			})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Before.FilePath != changes[j].Before.FilePath {
			return changes[i].Before.FilePath < changes[j].Before.FilePath
		}
		return changes[i].Before.Name < changes[j].Before.Name
	})
	return changes
}

// diffKind finds the first structural difference between a baseline symbol
// and its PR counterpart, preferring visibility narrowing > signature >
// return-type when more than one differs, since a narrowed visibility is
// the most consequential single fact to surface per symbol.
func diffKind(before, after core.Symbol) (core.BreakingChangeKind, bool) {
	if before.Signature.Visibility != core.VisibilityUnknown &&
		after.Signature.Visibility != core.VisibilityUnknown &&
		after.Signature.Visibility > before.Signature.Visibility {
		// Visibility is ordered public < package < protected < private
		// (VisibilityPublic=1 ... VisibilityPrivate=4); a larger value means
		// narrower exposure, which is the only breaking direction. This
		// compares the *structured* field, never Signature.Text, per §4.8's
		// explicit warning against surface-text comparison.
		return core.BreakingVisibility, true
	}

	if !stringSlicesEqual(before.Signature.Parameters, after.Signature.Parameters) {
		return core.BreakingSignature, true
	}

	if strings.TrimSpace(before.Signature.ReturnType) != strings.TrimSpace(after.Signature.ReturnType) &&
		before.Signature.ReturnType != "" && after.Signature.ReturnType != "" {
		return core.BreakingReturnType, true
	}

	return "", false
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimSpace(a[i]) != strings.TrimSpace(b[i]) {
			return false
		}
	}
	return true
}

// callsites scans the known symbol bodies (baseline + PR) for a textual
// occurrence of "name(", excluding the declaring file's own declaration
// line, and reports every symbol whose body contains the call.
func callsites(name string, pool []core.Symbol, declFile string) []core.SymbolRef {
	if name == "" {
		return nil
	}
	needle := name + "("
	seen := make(map[string]struct{})
	var out []core.SymbolRef
	for _, s := range pool {
		if s.FilePath == declFile && s.Name == name {
			continue
		}
		if !strings.Contains(s.Body, needle) {
			continue
		}
		key := s.FilePath + ":" + s.Name
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, toRef(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].Line < out[j].Line
	})
	return out
}
