package extraction

import "strings"

// Line is one non-blank line of receipt text. Index is the 0-based position
// among the non-blank lines and is used as a position signal by every
// extractor.
type Line struct {
	Index int
	Text  string
}

// Lines splits raw OCR text into trimmed, non-empty lines in reading order
func Lines(raw string) []Line {
	lines := make([]Line, 0)
	for _, text := range strings.Split(raw, "\n") {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		lines = append(lines, Line{Index: len(lines), Text: text})
	}
	return lines
}

// head returns at most n leading lines
func head(lines []Line, n int) []Line {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
