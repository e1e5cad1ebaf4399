package content

import (
	"html"
	"regexp"
	"strings"
)

// WordsPerMinute is the reading speed behind ReadingMinutes.
const WordsPerMinute = 200

var markupTag = regexp.MustCompile(`<[^>]*>`)

// PlainText strips markup from s. Tags act as word separators and entities are decoded.
func PlainText(s string) string {
	return html.UnescapeString(markupTag.ReplaceAllString(s, " "))
}

// WordCount counts whitespace-delimited words of s after stripping markup.
func WordCount(s string) int {
	return len(strings.Fields(PlainText(s)))
}

// ReadingMinutes is WordCount rounded up to whole minutes.
func ReadingMinutes(s string) int {
	return (WordCount(s) + WordsPerMinute - 1) / WordsPerMinute
}
