package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

func TestDetect_VisibilityNarrowing(t *testing.T) {
	detector := NewBreakingChangeDetector()

	baseline := []core.Symbol{
		{FilePath: "svc.go", Name: "Compute", Kind: core.KindMethod,
			Signature: core.Signature{Visibility: core.VisibilityPublic, Parameters: []string{"int"}, ReturnType: "int"},
			Body:      "func (s *S) Compute(x int) int { return x }", StartLine: 10, EndLine: 12},
		{FilePath: "caller.go", Name: "Caller", Kind: core.KindFunction,
			Body: "result := svc.Compute(5)", StartLine: 1, EndLine: 3},
	}
	pr := []core.Symbol{
		{FilePath: "svc.go", Name: "Compute", Kind: core.KindMethod,
			Signature: core.Signature{Visibility: core.VisibilityPrivate, Parameters: []string{"int"}, ReturnType: "int"},
			Body:      "func (s *S) compute(x int) int { return x }", StartLine: 10, EndLine: 12},
		{FilePath: "caller.go", Name: "Caller", Kind: core.KindFunction,
			Body: "result := svc.Compute(5)", StartLine: 1, EndLine: 3},
	}

	changes := detector.Detect(baseline, pr)
	require.Len(t, changes, 1)
	assert.Equal(t, core.BreakingVisibility, changes[0].Kind)
	assert.Equal(t, "Compute", changes[0].Before.Name)
	require.NotNil(t, changes[0].After)
	require.Len(t, changes[0].ImpactedCallsites, 1)
	assert.Equal(t, "caller.go", changes[0].ImpactedCallsites[0].FilePath)
}

func TestDetect_Removal(t *testing.T) {
	detector := NewBreakingChangeDetector()

	baseline := []core.Symbol{
		{FilePath: "svc.go", Name: "Deprecated", Kind: core.KindFunction, Body: "func Deprecated() {}", StartLine: 1, EndLine: 2},
	}

	changes := detector.Detect(baseline, nil)
	require.Len(t, changes, 1)
	assert.Equal(t, core.BreakingRemoval, changes[0].Kind)
	assert.Nil(t, changes[0].After)
}

func TestDetect_SignatureChange(t *testing.T) {
	detector := NewBreakingChangeDetector()

	baseline := []core.Symbol{
		{FilePath: "svc.go", Name: "Compute", Kind: core.KindFunction,
			Signature: core.Signature{Parameters: []string{"int"}}, Body: "func Compute(x int) {}", StartLine: 1, EndLine: 1},
	}
	pr := []core.Symbol{
		{FilePath: "svc.go", Name: "Compute", Kind: core.KindFunction,
			Signature: core.Signature{Parameters: []string{"int", "string"}}, Body: "func Compute(x int, y string) {}", StartLine: 1, EndLine: 1},
	}

	changes := detector.Detect(baseline, pr)
	require.Len(t, changes, 1)
	assert.Equal(t, core.BreakingSignature, changes[0].Kind)
}

func TestDetect_NoChangeWhenIdentical(t *testing.T) {
	detector := NewBreakingChangeDetector()

	sym := core.Symbol{FilePath: "svc.go", Name: "Compute", Kind: core.KindFunction,
		Signature: core.Signature{Parameters: []string{"int"}, ReturnType: "int", Visibility: core.VisibilityPublic},
		Body:      "func Compute(x int) int { return x }", StartLine: 1, EndLine: 1}

	changes := detector.Detect([]core.Symbol{sym}, []core.Symbol{sym})
	assert.Empty(t, changes)
}
