package content

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"duplicates keep first position", "#a #b #a #c", []string{"a", "b", "c"}},
		{"no hashtags", "no hashtags here", []string{}},
		{"adjacent", "#a#b", []string{"a", "b"}},
		{"bare hash", "# # #", []string{}},
		{"case preserved", "#Go #go", []string{"Go", "go"}},
		{"embedded in words", "love#golang,and#cms!", []string{"golang", "cms"}},
		{"stops at punctuation", "#foo-bar #x.y", []string{"foo", "x"}},
		{"underscore and digits", "#web_dev #2024", []string{"web_dev", "2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTags(tt.in))
		})
	}
}

func TestExtractTagsCapsAtTen(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "#t%d ", i)
	}
	got := ExtractTags(b.String())
	assert.Len(t, got, MaxTags)
	assert.Equal(t, "t0", got[0])
	assert.Equal(t, "t9", got[9])
}

func TestExtractTagsProperties(t *testing.T) {
	token := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	inputs := []string{
		"",
		"#",
		"##a###b",
		"#a #a #a",
		"#α #beta #gamma_1 #δ",
		strings.Repeat("#x #y #z ", 20) + "#k1 #k2 #k3 #k4 #k5 #k6 #k7 #k8",
		"text #one\n#two\t#three #one",
	}
	for _, in := range inputs {
		got := ExtractTags(in)
		assert.LessOrEqual(t, len(got), MaxTags, in)
		seen := map[string]bool{}
		last := -1
		for _, tag := range got {
			assert.Regexp(t, token, tag)
			assert.False(t, seen[tag], "duplicate %q in %q", tag, in)
			seen[tag] = true
			pos := strings.Index(in, "#"+tag)
			assert.Greater(t, pos, last, "order of %q in %q", tag, in)
			last = pos
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"#go", "go", " cms ", "bad tag", "", "web_dev"})
	assert.Equal(t, []string{"go", "cms", "web_dev"}, got)
}

func TestFormatAndRemoveTag(t *testing.T) {
	tags := []string{"a", "b", "c"}
	assert.Equal(t, "#a #b #c", FormatTagInput(tags))

	removed := RemoveTag(tags, 1)
	assert.Equal(t, []string{"a", "c"}, removed)
	assert.Equal(t, []string{"a", "b", "c"}, tags)
	assert.Equal(t, tags, RemoveTag(tags, 7))
	assert.Equal(t, tags, ExtractTags(FormatTagInput(tags)))
}
