package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValidLinesFromPatch(t *testing.T) {
	patch := "@@ -10,3 +10,4 @@ func foo() {\n" +
		" 	existing line\n" +
		"+	added line one\n" +
		"+	added line two\n" +
		"-	removed line\n" +
		" 	trailing context\n"

	lines := ParseValidLinesFromPatch(patch, nil)

	assert.Contains(t, lines, 10)
	assert.Contains(t, lines, 11)
	assert.Contains(t, lines, 12)
	assert.Contains(t, lines, 13)
	assert.Len(t, lines, 4)
}

func TestParseValidLinesFromPatch_MalformedHeaderIsSkipped(t *testing.T) {
	patch := "not a hunk header\n@@ malformed @@\n+orphan added line\n"
	lines := ParseValidLinesFromPatch(patch, nil)
	assert.Empty(t, lines)
}

func TestParseValidLinesFromPatch_MultipleHunks(t *testing.T) {
	patch := "@@ -1,2 +1,2 @@\n" +
		" 	one\n" +
		"+	two\n" +
		"@@ -20,1 +21,2 @@\n" +
		"+	three\n" +
		"+	four\n"

	lines := ParseValidLinesFromPatch(patch, nil)
	assert.Contains(t, lines, 1)
	assert.Contains(t, lines, 2)
	assert.Contains(t, lines, 21)
	assert.Contains(t, lines, 22)
}

func TestSplitHunks(t *testing.T) {
	patch := "@@ -1,2 +1,2 @@\n" +
		" 	one\n" +
		"+	two\n" +
		"@@ -20,1 +21,2 @@\n" +
		"+	three\n"

	hunks := splitHunks(patch, nil)
	if assert.Len(t, hunks, 2) {
		assert.Equal(t, 1, hunks[0].newStart)
		assert.Equal(t, 21, hunks[1].newStart)
	}
}

func TestDiffHunk_CommentableLines(t *testing.T) {
	h := diffHunk{
		newStart: 5,
		body: []string{
			" 	context",
			"+	added",
			"-	removed",
			"",
		},
	}

	lines := h.commentableLines()
	assert.Contains(t, lines, 5)
	assert.Contains(t, lines, 6)
	assert.Len(t, lines, 2)
}
