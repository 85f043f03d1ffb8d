package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReviewMarkdown = `
# SUMMARY
Looks fine.

# FINDINGS

## Finding widget.go:10
**Severity:** minor
**Category:** style

### Message
Recovered after repair.
`

// TestParseWithRepair_FirstAttemptParses covers the common case: no repair
// call should ever happen when the first response already parses.
func TestParseWithRepair_FirstAttemptParses(t *testing.T) {
	repairCalled := false
	parsed, retried, err := parseWithRepair(validReviewMarkdown, func(error) (string, error) {
		repairCalled = true
		return "", nil
	})

	require.NoError(t, err)
	assert.False(t, retried)
	assert.False(t, repairCalled)
	require.Len(t, parsed.Findings, 1)
	assert.Equal(t, "Recovered after repair.", parsed.Findings[0].Message)
}

// TestParseWithRepair_SecondAttemptParses is §8 scenario 4: unparseable on
// attempt 1, parseable once repair supplies a corrected response — findings
// come back with retried=true and no error.
func TestParseWithRepair_SecondAttemptParses(t *testing.T) {
	parsed, retried, err := parseWithRepair("not markdown at all", func(parseErr error) (string, error) {
		require.Error(t, parseErr)
		return validReviewMarkdown, nil
	})

	require.NoError(t, err)
	assert.True(t, retried)
	require.Len(t, parsed.Findings, 1)
	assert.Equal(t, "Recovered after repair.", parsed.Findings[0].Message)
}

// TestParseWithRepair_RepairCallFails surfaces the repair-prompt's own
// transport error rather than the original parse error.
func TestParseWithRepair_RepairCallFails(t *testing.T) {
	_, retried, err := parseWithRepair("not markdown at all", func(error) (string, error) {
		return "", errors.New("model unavailable")
	})

	require.Error(t, err)
	assert.True(t, retried)
	assert.Contains(t, err.Error(), "repair call failed")
}

// TestParseWithRepair_StillUnparseableAfterRepair is the exhausted path:
// both attempts fail, ErrUnavailable's caller-facing wrap happens one level
// up in ReviewFile, but retried must still be true here.
func TestParseWithRepair_StillUnparseableAfterRepair(t *testing.T) {
	_, retried, err := parseWithRepair("not markdown at all", func(error) (string, error) {
		return "still not markdown", nil
	})

	require.Error(t, err)
	assert.True(t, retried)
	assert.Contains(t, err.Error(), "unparseable after repair")
}
