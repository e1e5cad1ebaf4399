package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadingMinutes(t *testing.T) {
	assert.Equal(t, 2, ReadingMinutes("<p>"+strings.Repeat("word ", 400)+"</p>"))
	assert.Equal(t, 1, ReadingMinutes("<p>one</p>"))
	assert.Equal(t, 0, ReadingMinutes(EmptyEditorContent))
	assert.Equal(t, 2, ReadingMinutes(strings.Repeat("w ", 201)))
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"<p>hello world</p>", 2},
		{"<p>hello</p><p>world</p>", 2},
		{`<img src="a.png" alt="two words"/>`, 0},
		{"<p>a&nbsp;b &amp; c</p>", 4},
		{"plain   text\nwith\tspaces", 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WordCount(tt.in), tt.in)
	}
}
