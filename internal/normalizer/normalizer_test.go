package normalizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

func ptr(f float64) *float64 { return &f }

func TestNormalize_TestFileKeepsOnlyHighSeveritySQLInjection(t *testing.T) {
	raw := []core.RawFinding{
		{File: "order_test.go", Line: 17, Severity: "minor", Category: core.CategoryDocumentation, Message: "missing doc comment", Source: "heuristic.missing_documentation"},
		{File: "order_test.go", Line: 42, Severity: "critical", Category: core.CategorySecurity, Message: "SQL injection via string concatenation", Source: "llm"},
	}

	findings := Normalize(context.Background(), raw, nil)
	require.Len(t, findings, 1)
	assert.Equal(t, core.SeverityHigh, findings[0].Severity)
	assert.Equal(t, core.CategorySecurity, findings[0].Category)
}

func TestNormalize_MergesThreeFindingsAtSameLocation(t *testing.T) {
	raw := []core.RawFinding{
		{File: "Calculator.java", Line: 17, Severity: "critical", Category: core.CategorySecurity, Message: "SQL injection", Source: "llm", Suggestion: "use prepared statement"},
		{File: "Calculator.java", Line: 17, Severity: "major", Category: core.CategoryCorrectness, Message: "off-by-one in loop", Source: "llm"},
		{File: "Calculator.java", Line: 17, Severity: "minor", Category: core.CategoryStyle, Message: "inconsistent spacing", Source: "heuristic.magic_numbers"},
	}

	findings := Normalize(context.Background(), raw, nil)
	require.Len(t, findings, 1)
	merged := findings[0]
	assert.Equal(t, core.SeverityHigh, merged.Severity)
	assert.Contains(t, merged.Message, "security")
	assert.Contains(t, merged.Message, "correctness")
	assert.Contains(t, merged.Message, "style")
	assert.NotEmpty(t, merged.Suggestion)
}

func TestNormalize_DedupKeepsHighestSeverity(t *testing.T) {
	raw := []core.RawFinding{
		{File: "a.go", Line: 5, Severity: "minor", Category: core.CategoryStyle, Message: "nit"},
		{File: "a.go", Line: 5, Severity: "critical", Category: core.CategorySecurity, Message: "critical"},
	}
	findings := Normalize(context.Background(), raw, nil)
	require.Len(t, findings, 1)
	assert.Equal(t, core.SeverityHigh, findings[0].Severity)
}

func TestNormalize_ExplicitConfidenceClamped(t *testing.T) {
	raw := []core.RawFinding{
		{File: "a.go", Line: 1, Severity: "major", Category: core.CategoryPerformance, Message: "slow loop", Confidence: ptr(1.5)},
	}
	findings := Normalize(context.Background(), raw, nil)
	require.Len(t, findings, 1)
	assert.Equal(t, 1.0, findings[0].Confidence)
}

func TestNormalize_HeuristicLowSeverityConfidencePenalized(t *testing.T) {
	raw := []core.RawFinding{
		{File: "a.go", Line: 1, Severity: "minor", Category: core.CategoryCorrectness, Message: "nested", Source: "heuristic.excessive_nesting"},
	}
	findings := Normalize(context.Background(), raw, nil)
	require.Len(t, findings, 1)
	assert.InDelta(t, 0.45, findings[0].Confidence, 1e-9)
}

func TestNormalize_DropsCrossFileDuplicateBetweenTwoTestFiles(t *testing.T) {
	raw := []core.RawFinding{
		{File: "a_test.go", Line: 10, Severity: "major", Category: core.CategoryDuplicate, Message: "dup",
			Related: []core.SymbolRef{{FilePath: "b_test.go", Name: "TestY"}}},
	}
	findings := Normalize(context.Background(), raw, nil)
	assert.Empty(t, findings)
}

func TestNormalize_SortOrder(t *testing.T) {
	raw := []core.RawFinding{
		{File: "b.go", Line: 1, Severity: "minor", Category: core.CategoryStyle, Message: "m1"},
		{File: "a.go", Line: 5, Severity: "major", Category: core.CategoryCorrectness, Message: "m2"},
		{File: "a.go", Line: 2, Severity: "critical", Category: core.CategorySecurity, Message: "m3"},
	}
	findings := Normalize(context.Background(), raw, nil)
	require.Len(t, findings, 3)
	assert.Equal(t, "a.go", findings[0].File)
	assert.Equal(t, 2, findings[0].Line)
	assert.Equal(t, "b.go", findings[2].File)
}
