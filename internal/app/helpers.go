package app

import (
	"strings"

	"github.com/leynos/claude-q/internal/queue"
)

// splitLines splits content into lines, treating a trailing newline as a
// line terminator rather than the start of an empty final line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// SplitTopicAndBody splits text into a topic (first line, trimmed) and a
// body (the rest). Returns queue.ErrEmptyTopic when the first line is blank.
func SplitTopicAndBody(text string) (topic, body string, err error) {
	first, rest, _ := strings.Cut(text, "\n")
	topic = strings.TrimSpace(first)
	if topic == "" {
		return "", "", queue.ErrEmptyTopic
	}
	return topic, rest, nil
}

// Summarize reduces message content to a single line at most width runes
// wide. Interior whitespace collapses to single spaces, blank content shows
// as "(empty)", and truncation or additional lines are marked with an
// ellipsis.
func Summarize(content string, width int) string {
	lines := splitLines(content)
	first := ""
	if len(lines) > 0 {
		first = lines[0]
	}
	first = strings.Join(strings.Fields(first), " ")
	if first == "" {
		first = "(empty)"
	}

	more := len(lines) > 1
	runes := []rune(first)

	// Reserve room for the ellipsis when truncating.
	switch {
	case len(runes) > width:
		return string(runes[:max(0, width-1)]) + "…"
	case more && len(runes) <= width-2:
		return first + " …"
	case more:
		return string(runes[:max(0, width-1)]) + "…"
	}
	return first
}
