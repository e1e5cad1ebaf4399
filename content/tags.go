package content

import (
	"regexp"
	"strings"
)

// MaxTags caps how many distinct hashtags a post keeps.
const MaxTags = 10

var hashtagPattern = regexp.MustCompile(`#([a-zA-Z0-9_]+)`)

var tagTokenPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ExtractTags returns the distinct #tokens of text in first-seen order.
// Case is preserved and anything past the first MaxTags distinct tokens is dropped.
func ExtractTags(text string) []string {
	tags := make([]string, 0, MaxTags)
	seen := make(map[string]struct{})
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tag := m[1]
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}

// NormalizeTags applies the extractor rules to an already split tag list:
// a leading '#' is stripped, invalid tokens and duplicates are skipped, and the
// result is capped at MaxTags.
func NormalizeTags(in []string) []string {
	tags := make([]string, 0, len(in))
	seen := make(map[string]struct{})
	for _, raw := range in {
		tag := strings.TrimPrefix(strings.TrimSpace(raw), "#")
		if !tagTokenPattern.MatchString(tag) {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}

// FormatTagInput renders tags back into the "#a #b" form the tag input shows.
func FormatTagInput(tags []string) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = "#" + t
	}
	return strings.Join(parts, " ")
}

// RemoveTag returns a copy of tags without the element at index i.
// Out of range indexes return an unchanged copy.
func RemoveTag(tags []string, i int) []string {
	out := make([]string, 0, len(tags))
	for j, t := range tags {
		if j != i {
			out = append(out, t)
		}
	}
	return out
}
