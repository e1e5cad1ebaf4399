// Package editor holds one post while it is being written. It keeps the tag
// input and tag list in sync, validates before any network call and reports
// every outcome through a notifier.
package editor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"cms-platform/client"
	"cms-platform/content"
	"cms-platform/notify"
)

// MaxThumbnailBytes is the largest thumbnail the editor will upload.
const MaxThumbnailBytes = 5 << 20

var (
	ErrClosed = errors.New("editor closed")
	// ErrNotImage is returned when a thumbnail does not sniff as image/*.
	ErrNotImage = errors.New("thumbnail is not an image")
	ErrTooLarge = errors.New("thumbnail is too large")
	// ErrStale is returned when the editor was closed or reopened while a request was in flight.
	ErrStale = errors.New("editor changed while the request was in flight")
)

// PostStore saves posts. id zero creates a new post. *client.Client implements it.
type PostStore interface {
	SavePost(ctx context.Context, id int64, in client.PostInput) (client.Post, error)
}

// Uploader stores an image and returns its public URL. *client.Client implements it.
type Uploader interface {
	UploadImage(ctx context.Context, name string, data []byte) (string, error)
}

// Stats are the derived metrics shown next to the editor.
type Stats struct {
	Words   int `json:"words"`
	Minutes int `json:"reading_minutes"`
}

// Editor is safe for use from several goroutines, but only one request runs per action.
type Editor struct {
	posts    PostStore
	uploader Uploader
	notifier notify.Notifier

	mu       sync.Mutex
	open     bool
	gen      uint64
	id       int64
	draft    content.Draft
	baseline content.Draft
	tagInput string
}

func New(posts PostStore, uploader Uploader, notifier notify.Notifier) *Editor {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Editor{posts: posts, uploader: uploader, notifier: notifier}
}

// DraftFromPost copies the editable fields of a stored post.
func DraftFromPost(p client.Post) content.Draft {
	d := content.Draft{
		Title:     p.Title,
		Excerpt:   p.Excerpt,
		Content:   p.Content,
		Tags:      append([]string{}, p.Tags...),
		Thumbnail: p.Thumbnail,
		Status:    content.Status(p.Status),
	}
	if p.Category != nil {
		d.CategoryID = p.Category.ID
	}
	return d
}

// InputFromDraft builds the request body for saving d with the given status.
func InputFromDraft(d content.Draft, status content.Status) client.PostInput {
	cat := d.CategoryID
	return client.PostInput{
		Title:     strings.TrimSpace(d.Title),
		Content:   d.Content,
		Excerpt:   strings.TrimSpace(d.Excerpt),
		Category:  &cat,
		Status:    string(status),
		Tags:      append([]string{}, d.Tags...),
		Thumbnail: d.Thumbnail,
	}
}

// Open starts editing a stored post.
func (e *Editor) Open(p client.Post) {
	e.reset(p.ID, DraftFromPost(p))
}

// OpenNew starts a blank draft.
func (e *Editor) OpenNew() {
	e.reset(0, content.Draft{Status: content.StatusDraft, Tags: []string{}})
}

func (e *Editor) reset(id int64, d content.Draft) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = true
	e.gen++
	e.id = id
	e.draft = d
	e.baseline = cloneDraft(d)
	e.tagInput = content.FormatTagInput(d.Tags)
}

// Close discards the draft. Requests still in flight no longer change anything.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = false
	e.gen++
	e.id = 0
	e.draft = content.Draft{}
	e.baseline = content.Draft{}
	e.tagInput = ""
}

func cloneDraft(d content.Draft) content.Draft {
	d.Tags = append([]string{}, d.Tags...)
	return d
}

// edit applies fn to the open draft.
func (e *Editor) edit(fn func(d *content.Draft)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return ErrClosed
	}
	fn(&e.draft)
	return nil
}

func (e *Editor) SetTitle(s string) error {
	return e.edit(func(d *content.Draft) { d.Title = s })
}

func (e *Editor) SetExcerpt(s string) error {
	return e.edit(func(d *content.Draft) { d.Excerpt = s })
}

func (e *Editor) SetContent(html string) error {
	return e.edit(func(d *content.Draft) { d.Content = html })
}

// SetCategory selects a category. Zero clears it.
func (e *Editor) SetCategory(id int64) error {
	return e.edit(func(d *content.Draft) { d.CategoryID = id })
}

// SetThumbnail uses an image that is already hosted.
func (e *Editor) SetThumbnail(url string) error {
	return e.edit(func(d *content.Draft) { d.Thumbnail = strings.TrimSpace(url) })
}

func (e *Editor) RemoveThumbnail() error {
	return e.edit(func(d *content.Draft) { d.Thumbnail = "" })
}

// SetTagInput stores the raw tag text and replaces the tag list with the hashtags found in it.
func (e *Editor) SetTagInput(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return ErrClosed
	}
	e.tagInput = text
	e.draft.Tags = content.ExtractTags(text)
	return nil
}

// RemoveTag drops the i-th tag and rewrites the tag input to match.
func (e *Editor) RemoveTag(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return ErrClosed
	}
	e.draft.Tags = content.RemoveTag(e.draft.Tags, i)
	e.tagInput = content.FormatTagInput(e.draft.Tags)
	return nil
}

// Draft returns a copy of the draft being edited.
func (e *Editor) Draft() content.Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneDraft(e.draft)
}

func (e *Editor) TagInput() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tagInput
}

// PostID is zero until a new draft is first saved.
func (e *Editor) PostID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Dirty reports whether the draft differs from what was opened or last saved.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, b := e.draft, e.baseline
	if a.Title != b.Title || a.Excerpt != b.Excerpt || a.Content != b.Content ||
		a.CategoryID != b.CategoryID || a.Thumbnail != b.Thumbnail || len(a.Tags) != len(b.Tags) {
		return true
	}
	for i := range a.Tags {
		if a.Tags[i] != b.Tags[i] {
			return true
		}
	}
	return false
}

func (e *Editor) Stats() Stats {
	e.mu.Lock()
	html := e.draft.Content
	e.mu.Unlock()
	return Stats{Words: content.WordCount(html), Minutes: content.ReadingMinutes(html)}
}

// snapshot returns the generation, post id and a copy of the draft for a request.
func (e *Editor) snapshot() (uint64, int64, content.Draft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return 0, 0, content.Draft{}, ErrClosed
	}
	return e.gen, e.id, cloneDraft(e.draft), nil
}

// UploadThumbnail checks data is an image of at most MaxThumbnailBytes, uploads
// it and sets the returned URL as the thumbnail.
func (e *Editor) UploadThumbnail(ctx context.Context, name string, data []byte) (string, error) {
	gen, _, _, err := e.snapshot()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		e.notifier.Error("Please select an image file")
		return "", ErrNotImage
	}
	if len(data) > MaxThumbnailBytes {
		e.notifier.Error("Image size should be less than 5MB")
		return "", ErrTooLarge
	}
	url, err := e.uploader.UploadImage(ctx, name, data)
	if err != nil {
		e.notifier.Error("Failed to upload thumbnail. Please try again.")
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open || e.gen != gen {
		return "", ErrStale
	}
	e.draft.Thumbnail = url
	return url, nil
}

// SaveDraft saves the post as a draft.
func (e *Editor) SaveDraft(ctx context.Context) (client.Post, error) {
	return e.save(ctx, content.StatusDraft, "Draft updated successfully!", "Failed to update draft. Please try again.")
}

// Publish saves the post as published. It needs everything a published post requires.
func (e *Editor) Publish(ctx context.Context) (client.Post, error) {
	return e.save(ctx, content.StatusPublished, "Blog post published successfully!", "Failed to publish blog post. Please try again.")
}

func (e *Editor) save(ctx context.Context, status content.Status, okMsg, failMsg string) (client.Post, error) {
	gen, id, d, err := e.snapshot()
	if err != nil {
		return client.Post{}, err
	}
	if err := content.Validate(d, status); err != nil {
		e.notifier.Error(err.Error())
		return client.Post{}, err
	}

	stored, err := e.posts.SavePost(ctx, id, InputFromDraft(d, status))
	if err != nil {
		e.notifier.Error(failureMessage(err, failMsg))
		return client.Post{}, err
	}

	e.mu.Lock()
	if !e.open || e.gen != gen {
		e.mu.Unlock()
		return stored, ErrStale
	}
	e.id = stored.ID
	e.draft = DraftFromPost(stored)
	e.baseline = cloneDraft(e.draft)
	e.tagInput = content.FormatTagInput(e.draft.Tags)
	e.mu.Unlock()

	e.notifier.Success(okMsg)
	return stored, nil
}

// failureMessage prefers the server's field-level message over the generic copy.
func failureMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Field != "" && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
