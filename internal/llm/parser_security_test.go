package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// An LLM response is untrusted input: it must never make the parser hang or
// panic, regardless of how malformed or oversized it is.

func TestParseReviewMarkdown_HugePreambleResilience(t *testing.T) {
	hugePreamble := strings.Repeat("A", 1_000_000)
	input := hugePreamble + "\n# SUMMARY\nfine\n"

	start := time.Now()
	got, err := parseReviewMarkdown(input)
	duration := time.Since(start)

	require.NoError(t, err)
	assert.Contains(t, got.Summary, "fine")
	if duration > 200*time.Millisecond {
		t.Errorf("parsing took too long: %v", duration)
	}
}

func TestParseReviewMarkdown_UnclosedSuggestionFence(t *testing.T) {
	input := `
# FINDINGS
## Finding file.go:1
**Severity:** low
**Category:** style

### Message
m

### Suggestion
` + "```go\nunterminated fence with no closing backticks"

	got, err := parseReviewMarkdown(input)
	require.NoError(t, err)
	require.Len(t, got.Findings, 1)
	assert.Contains(t, got.Findings[0].Suggestion, "unterminated fence")
}

func TestStripCodeFence_MalformedInput(t *testing.T) {
	assert.Equal(t, "bare text", stripCodeFence("bare text"))
	assert.Equal(t, "", stripCodeFence(""))
	assert.Equal(t, "inner", stripCodeFence("```go\ninner\n```"))
}

func TestParseReviewMarkdown_MissingHeaderBlockIsRejected(t *testing.T) {
	_, err := parseReviewMarkdown("## Finding file.go:1\nno headers above this")
	require.Error(t, err)
}
