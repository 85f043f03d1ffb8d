package llm

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// reviewResult is the parsed shape of an LLM response before RawFinding
// conversion: a free-form summary plus the structured finding blocks.
type reviewResult struct {
	Summary  string
	Findings []core.RawFinding
}

var (
	reFindingHeader = regexp.MustCompile(`^##\s+Finding\s+(.+?):(\d+)$`)
	reSeverity      = regexp.MustCompile(`^\*\*Severity:\*\*\s*(.+)$`)
	reCategory      = regexp.MustCompile(`^\*\*Category:\*\*\s*(.+)$`)
)

// parseReviewMarkdown parses the Markdown response the prompting contract in
// §4.5 of the specification mandates:
//
//	# SUMMARY
//	...
//
//	# FINDINGS
//	## Finding path/to/file.go:42
//	**Severity:** high
//	**Category:** security
//	### Message
//	...
//	### Suggestion
//	```lang
//	...
//	```
//
// A response with neither a SUMMARY nor a single Finding block fails to
// parse, signaling the caller to retry once with a repair prompt before
// handing the file off to the Fallback Generator.
func parseReviewMarkdown(raw string) (*reviewResult, error) {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	result := &reviewResult{}
	var current *core.RawFinding
	var section string // "message" or "suggestion"
	var body strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		text := strings.TrimSpace(body.String())
		switch section {
		case "message":
			current.Message = text
		case "suggestion":
			current.Suggestion = stripCodeFence(text)
		}
		body.Reset()
	}

	finalizeFinding := func() {
		flush()
		if current != nil {
			result.Findings = append(result.Findings, *current)
			current = nil
		}
		section = ""
	}

	const (
		stateNone = iota
		stateSummary
		stateFindings
	)
	state := stateNone

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "# SUMMARY"):
			finalizeFinding()
			state = stateSummary
			continue
		case strings.HasPrefix(line, "# FINDINGS"):
			finalizeFinding()
			state = stateFindings
			continue
		case strings.HasPrefix(line, "## Finding"):
			finalizeFinding()
			if m := reFindingHeader.FindStringSubmatch(line); len(m) == 3 {
				lineNum, _ := strconv.Atoi(m[2])
				current = &core.RawFinding{File: strings.TrimSpace(m[1]), Line: lineNum, Source: "llm"}
			}
			continue
		case strings.HasPrefix(line, "### Message"):
			flush()
			section = "message"
			continue
		case strings.HasPrefix(line, "### Suggestion"):
			flush()
			section = "suggestion"
			continue
		}

		switch state {
		case stateSummary:
			if trimmed != "" || result.Summary != "" {
				if result.Summary != "" {
					result.Summary += "\n"
				}
				result.Summary += line
			}
		case stateFindings:
			if current == nil {
				continue
			}
			if section == "" {
				if m := reSeverity.FindStringSubmatch(trimmed); len(m) == 2 {
					current.Severity = strings.TrimSpace(m[1])
					continue
				}
				if m := reCategory.FindStringSubmatch(trimmed); len(m) == 2 {
					current.Category = core.Category(strings.ToLower(strings.TrimSpace(m[1])))
					continue
				}
				continue
			}
			body.WriteString(line + "\n")
		}
	}
	finalizeFinding()

	result.Summary = strings.TrimSpace(result.Summary)

	if result.Summary == "" && len(result.Findings) == 0 {
		return nil, fmt.Errorf("failed to parse LLM review: no SUMMARY or FINDINGS section found")
	}
	for i, f := range result.Findings {
		if f.File == "" || f.Message == "" {
			return nil, fmt.Errorf("failed to parse LLM review: finding %d missing file or message", i)
		}
	}
	return result, nil
}

// stripCodeFence removes a single surrounding ```lang fence from a suggestion
// block, since the prompting contract asks for a fenced code block but
// downstream consumers want the raw replacement text.
func stripCodeFence(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= 2 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
