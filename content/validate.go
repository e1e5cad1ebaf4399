package content

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ParseStatus maps the wire value to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusPublished:
		return StatusPublished, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// EmptyEditorContent is what the rich-text editor emits when nothing was typed.
const EmptyEditorContent = "<p><br></p>"

// MinPublishTags is the tag count a post needs before it can be published.
const MinPublishTags = 3

// Field names reported by ValidationError.
const (
	FieldTitle     = "title"
	FieldContent   = "content"
	FieldExcerpt   = "excerpt"
	FieldCategory  = "category"
	FieldTags      = "tags"
	FieldThumbnail = "thumbnail"
)

// ErrUnknownStatus is returned for a validation target other than draft/published.
var ErrUnknownStatus = errors.New("unknown post status")

// Draft is the in-progress post the validator inspects.
type Draft struct {
	Title      string   `yaml:"title" json:"title"`
	Excerpt    string   `yaml:"excerpt" json:"excerpt"`
	Content    string   `yaml:"content" json:"content"`
	CategoryID int64    `yaml:"category" json:"category"` // 0 means unset
	Tags       []string `yaml:"tags" json:"tags"`
	Thumbnail  string   `yaml:"thumbnail" json:"thumbnail"`
	Status     Status   `yaml:"status" json:"status"`
}

// ValidationError identifies the first field that blocks saving.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks d against the rules of the target status and reports only the
// first failing field. Drafts need a title and content; publishing additionally
// needs an excerpt, a category, MinPublishTags tags and a thumbnail.
func Validate(d Draft, target Status) error {
	if target != StatusDraft && target != StatusPublished {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}

	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: FieldTitle, Message: "Please enter a blog title."}
	}
	if IsBlankContent(d.Content) {
		return &ValidationError{Field: FieldContent, Message: "Please add some content to your blog post."}
	}
	if target == StatusDraft {
		return nil
	}

	if strings.TrimSpace(d.Excerpt) == "" {
		return &ValidationError{Field: FieldExcerpt, Message: "Please add an excerpt for your blog post."}
	}
	if d.CategoryID <= 0 {
		return &ValidationError{Field: FieldCategory, Message: "Please select a category."}
	}
	if len(d.Tags) < MinPublishTags {
		return &ValidationError{Field: FieldTags, Message: fmt.Sprintf("Please add at least %d tags before publishing.", MinPublishTags)}
	}
	if strings.TrimSpace(d.Thumbnail) == "" {
		return &ValidationError{Field: FieldThumbnail, Message: "Please add a thumbnail image before publishing."}
	}
	return nil
}

// IsBlankContent reports whether html carries no content at all.
func IsBlankContent(html string) bool {
	trimmed := strings.TrimSpace(html)
	return trimmed == "" || trimmed == EmptyEditorContent
}
