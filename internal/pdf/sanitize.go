package pdf

import (
	"regexp"
	"strings"
)

// Glyphs the PDF fonts cannot draw. Stripped before layout.
var emojiPattern = regexp.MustCompile(`[\x{1F600}-\x{1F64F}]|[\x{1F300}-\x{1F5FF}]|[\x{1F680}-\x{1F6FF}]|[\x{1F700}-\x{1F77F}]|[\x{1F780}-\x{1F7FF}]|[\x{1F800}-\x{1F8FF}]|[\x{1F900}-\x{1F9FF}]|[\x{1FA00}-\x{1FA6F}]|[\x{1FA70}-\x{1FAFF}]|[\x{2600}-\x{26FF}]|[\x{2700}-\x{27BF}]|[\x{2300}-\x{23FF}]|[\x{2B50}-\x{2B55}]|\x{200D}|\x{FE0F}|[\x{1F1E0}-\x{1F1FF}]`)

var whitespaceRun = regexp.MustCompile(`\s+`)

const (
	checkedBox   = "[x]"
	uncheckedBox = "[  ]"
)

// StripEmoji removes emoji and pictographs and collapses the double spaces
// the removal leaves behind.
func StripEmoji(text string) string {
	if !emojiPattern.MatchString(text) {
		return text
	}
	stripped := emojiPattern.ReplaceAllString(text, "")
	return doubleSpace.ReplaceAllString(stripped, " ")
}

var doubleSpace = regexp.MustCompile(`[ \t]{2,}`)

// collapseWhitespace applies HTML inline whitespace rules to text.
func collapseWhitespace(text string) string {
	return whitespaceRun.ReplaceAllString(text, " ")
}

// Checkbox renders a task list marker as bracket text.
func Checkbox(checked bool) string {
	if checked {
		return checkedBox
	}
	return uncheckedBox
}

// trimSpans drops leading and trailing whitespace across a run of spans and
// removes spans left empty. Hard breaks are kept.
func trimSpans(spans []Span) []Span {
	for len(spans) > 0 {
		spans[0].Text = strings.TrimLeft(spans[0].Text, " \t\n")
		if spans[0].Text != "" {
			break
		}
		spans = spans[1:]
	}
	for len(spans) > 0 {
		last := len(spans) - 1
		spans[last].Text = strings.TrimRight(spans[last].Text, " \t\n")
		if spans[last].Text != "" {
			break
		}
		spans = spans[:last]
	}

	out := spans[:0]
	for _, span := range spans {
		if span.Text == "" {
			continue
		}
		out = append(out, span)
	}
	return out
}
