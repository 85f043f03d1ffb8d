package platform

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// diffHunk is one `@@ ... @@`-delimited block of a unified diff: the first
// new-side line number it covers, and the body lines that follow until the
// next header (or end of patch).
type diffHunk struct {
	newStart int
	body     []string
}

// splitHunks breaks a patch into its hunks, dropping any leading lines
// before the first header and any hunk whose header doesn't parse (GitHub's
// patch field is truncated for very large diffs, which can leave a dangling
// or malformed header at the end).
func splitHunks(patch string, logger *slog.Logger) []diffHunk {
	var hunks []diffHunk
	var current *diffHunk

	for _, line := range strings.Split(patch, "\n") {
		if !strings.HasPrefix(line, "@@") {
			if current != nil {
				current.body = append(current.body, line)
			}
			continue
		}

		start, ok := newSideStart(line)
		if !ok {
			if logger != nil {
				logger.Warn("skipped malformed hunk header", "line", line)
			}
			current = nil
			continue
		}
		hunks = append(hunks, diffHunk{newStart: start})
		current = &hunks[len(hunks)-1]
	}

	return hunks
}

func newSideStart(header string) (int, bool) {
	matches := hunkHeaderRegex.FindStringSubmatch(header)
	if len(matches) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// commentableLines walks a single hunk's body and returns the set of
// new-side line numbers it puts on the diff: context (' ') and added ('+')
// lines advance the new-side counter and are commentable; removed ('-')
// lines belong only to the old side and never are.
func (h diffHunk) commentableLines() map[int]struct{} {
	lines := make(map[int]struct{}, len(h.body))
	n := h.newStart
	for _, l := range h.body {
		switch {
		case strings.HasPrefix(l, "+"), strings.HasPrefix(l, " "):
			lines[n] = struct{}{}
			n++
		case strings.HasPrefix(l, "-"), l == "":
			// old-side-only or blank separator line: doesn't occupy a new-side slot.
		}
	}
	return lines
}

// ParseValidLinesFromPatch returns every new-side line number across a
// file's patch that GitHub will accept an inline review comment against,
// the set the Comment Poster intersects each candidate Finding's line
// against before deciding whether it can go inline (§4.13).
func ParseValidLinesFromPatch(patch string, logger *slog.Logger) map[int]struct{} {
	valid := make(map[int]struct{})
	for _, h := range splitHunks(patch, logger) {
		for line := range h.commentableLines() {
			valid[line] = struct{}{}
		}
	}
	return valid
}
