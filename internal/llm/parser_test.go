package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

func TestParseReviewMarkdown_StandardReview(t *testing.T) {
	input := `
# SUMMARY
This is a summary.
Multiline supported.

# FINDINGS

## Finding internal/main.go:10
**Severity:** high
**Category:** security

### Message
This is a message.

### Suggestion
` + "```go\nfmt.Println(\"fixed\")\n```" + `

## Finding cmd/cli.go:20
**Severity:** low
**Category:** style

### Message
Another message.
`

	got, err := parseReviewMarkdown(input)
	require.NoError(t, err)

	assert.Equal(t, "This is a summary.\nMultiline supported.", got.Summary)
	require.Len(t, got.Findings, 2)

	assert.Equal(t, core.RawFinding{
		File:       "internal/main.go",
		Line:       10,
		Severity:   "high",
		Category:   core.CategorySecurity,
		Message:    "This is a message.",
		Suggestion: `fmt.Println("fixed")`,
		Source:     "llm",
	}, got.Findings[0])

	assert.Equal(t, "cmd/cli.go", got.Findings[1].File)
	assert.Equal(t, 20, got.Findings[1].Line)
	assert.Equal(t, "low", got.Findings[1].Severity)
	assert.Equal(t, core.CategoryStyle, got.Findings[1].Category)
	assert.Equal(t, "Another message.", got.Findings[1].Message)
}

func TestParseReviewMarkdown_SummaryOnly(t *testing.T) {
	input := "# SUMMARY\nNo issues found.\n"

	got, err := parseReviewMarkdown(input)
	require.NoError(t, err)
	assert.Equal(t, "No issues found.", got.Summary)
	assert.Empty(t, got.Findings)
}

func TestParseReviewMarkdown_MissingSections(t *testing.T) {
	_, err := parseReviewMarkdown("just some prose with no headers")
	require.Error(t, err)
}

func TestParseReviewMarkdown_FindingMissingMessage(t *testing.T) {
	input := `
# FINDINGS
## Finding file.go:1
**Severity:** low
**Category:** style
`
	_, err := parseReviewMarkdown(input)
	require.Error(t, err)
}
