package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

func sampleReport() *core.Report {
	r := &core.Report{
		PR: core.PRIdentity{Repository: "org/repo", Number: 42},
		Findings: []core.Finding{
			{File: "a.go", Line: 10, Severity: core.SeverityHigh, Category: core.CategorySecurity, Message: "SQL injection", Confidence: 0.9},
			{File: "b.go", Line: 5, Severity: core.SeverityMedium, Category: core.CategoryPerformance, Message: "N+1 query", Confidence: 0.7},
		},
		Recommendations: "Fix the SQL injection before merge.",
	}
	r.RecomputeCounts()
	return r
}

func TestToJSON_RoundTrips(t *testing.T) {
	r := sampleReport()
	data, err := ToJSON(r)
	require.NoError(t, err)

	var decoded core.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.PR.Repository, decoded.PR.Repository)
	assert.Len(t, decoded.Findings, 2)
}

func TestMarkdown_ContainsAllSections(t *testing.T) {
	r := sampleReport()
	md := Markdown(r)

	assert.Contains(t, md, "Risk assessment")
	assert.Contains(t, md, "Critical issues")
	assert.Contains(t, md, "SQL injection")
	assert.Contains(t, md, "Performance & security highlights")
	assert.Contains(t, md, "N+1 query")
	assert.Contains(t, md, "Duplicates & breaking changes")
	assert.Contains(t, md, "Quality metrics")
	assert.Contains(t, md, "Recommendations")
	assert.Contains(t, md, "Fix the SQL injection before merge.")
}

func TestMarkdown_LowRiskWhenNoHighOrMediumFindings(t *testing.T) {
	r := &core.Report{Findings: []core.Finding{
		{File: "a.go", Line: 1, Severity: core.SeverityLow, Category: core.CategoryStyle, Message: "nit"},
	}}
	r.RecomputeCounts()
	md := Markdown(r)
	assert.Contains(t, md, "Low risk")
	assert.NotContains(t, md, "Critical issues")
}

func TestRenderTerminal_WritesBannerAndBody(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	err := RenderTerminal(&buf, r, ThemeCyan)
	require.NoError(t, err)
	assert.NotEmpty(t, buf.String())
}

func TestRenderTerminal_UnknownThemeFallsBackToCyan(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	err := RenderTerminal(&buf, r, ThemeName("nonexistent"))
	require.NoError(t, err)
	assert.NotEmpty(t, buf.String())
}
