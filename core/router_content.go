package core

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cms-platform/content"
)

// postPayload carries create and update requests. Absent fields keep their stored values.
type postPayload struct {
	Title     *string   `json:"title"`
	Content   *string   `json:"content"`
	Excerpt   *string   `json:"excerpt"`
	Category  *int64    `json:"category"`
	Status    *string   `json:"status"`
	Tags      *[]string `json:"tags"`
	Thumbnail *string   `json:"thumbnail"`
}

// apply merges p over in.
func (p postPayload) apply(in PostInput) (PostInput, error) {
	if p.Title != nil {
		in.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		in.Content = *p.Content
	}
	if p.Excerpt != nil {
		in.Excerpt = strings.TrimSpace(*p.Excerpt)
	}
	if p.Category != nil {
		in.CategoryID = nil
		if *p.Category > 0 {
			id := *p.Category
			in.CategoryID = &id
		}
	}
	if p.Status != nil {
		st, err := content.ParseStatus(*p.Status)
		if err != nil {
			return in, fieldError("status", "Invalid status.")
		}
		in.Status = st
	}
	if p.Tags != nil {
		in.Tags = content.NormalizeTags(*p.Tags)
	}
	if p.Thumbnail != nil {
		in.Thumbnail = strings.TrimSpace(*p.Thumbnail)
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return in, nil
}

func inputFromPost(p *Post) PostInput {
	in := PostInput{
		Title:     p.Title,
		Content:   p.Content,
		Excerpt:   p.Excerpt,
		Status:    p.Status,
		Tags:      p.Tags,
		Thumbnail: p.Thumbnail,
	}
	if p.Category != nil {
		id := p.Category.ID
		in.CategoryID = &id
	}
	return in
}

func draftOf(in PostInput) content.Draft {
	d := content.Draft{
		Title:     in.Title,
		Excerpt:   in.Excerpt,
		Content:   in.Content,
		Tags:      in.Tags,
		Thumbnail: in.Thumbnail,
		Status:    in.Status,
	}
	if in.CategoryID != nil {
		d.CategoryID = *in.CategoryID
	}
	return d
}

func (s *server) registerContentRoutes(api *gin.RouterGroup) {
	api.GET("/user/content-categories", s.listCategories)

	user := api.Group("/user/blogs")
	user.POST("", s.createPost)
	user.GET("", s.listOwnPosts)
	user.POST("/import", s.importPost)
	user.GET("/:id", s.getOwnPost)
	user.PUT("/:id", s.updatePost)
	user.DELETE("/:id", s.deletePost)

	api.POST("/uploads/image", s.uploadImage)
}

func (s *server) listCategories(c *gin.Context) {
	items, err := s.deps.Categories.List(c.Request.Context())
	if err != nil {
		respondInternal(c, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, items)
}

// Column widths of blog_posts.
const (
	maxTitleRunes     = 100
	maxExcerptRunes   = 500
	maxThumbnailRunes = 500
)

// checkLengths rejects values wider than their columns.
func checkLengths(in PostInput) error {
	for _, f := range []struct {
		field, value string
		max          int
	}{
		{content.FieldTitle, in.Title, maxTitleRunes},
		{content.FieldExcerpt, in.Excerpt, maxExcerptRunes},
		{content.FieldThumbnail, in.Thumbnail, maxThumbnailRunes},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			return fieldError(f.field, fmt.Sprintf("Ensure this field has no more than %d characters.", f.max))
		}
	}
	return nil
}

// checkPost validates in for its target status and that its category is usable.
func (s *server) checkPost(c *gin.Context, in PostInput) bool {
	if err := checkLengths(in); err != nil {
		respondValidation(c, err)
		return false
	}
	if err := content.Validate(draftOf(in), in.Status); err != nil {
		if !respondValidation(c, err) {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		}
		return false
	}
	if in.CategoryID == nil {
		return true
	}
	cat, err := s.deps.Categories.Get(c.Request.Context(), *in.CategoryID)
	if errors.Is(err, ErrNotFound) || (err == nil && !cat.Active) {
		respondValidation(c, fieldError(content.FieldCategory, "Invalid category."))
		return false
	}
	if err != nil {
		respondInternal(c, "failed to load category")
		return false
	}
	return true
}

func (s *server) createPost(c *gin.Context) {
	userID, ok := requireLogin(c)
	if !ok {
		return
	}
	var req postPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return
	}
	in, err := req.apply(PostInput{Status: content.StatusDraft})
	if err != nil {
		respondValidation(c, err)
		return
	}
	if !s.checkPost(c, in) {
		return
	}
	post, err := s.deps.Posts.Create(c.Request.Context(), userID, in)
	if err != nil {
		log.Printf("create post: %v", err)
		respondInternal(c, "failed to create post")
		return
	}
	s.enqueueIndex(c.Request.Context(), post)
	c.JSON(http.StatusCreated, post)
}

func (s *server) listOwnPosts(c *gin.Context) {
	userID, ok := requireLogin(c)
	if !ok {
		return
	}
	var status *content.Status
	if raw := c.Query("status"); raw != "" {
		st, err := content.ParseStatus(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "status must be draft or published")
			return
		}
		status = &st
	}
	items, err := s.deps.Posts.ListByAuthor(c.Request.Context(), userID, status)
	if err != nil {
		respondInternal(c, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, items)
}

// ownPost loads the post named by :id and checks the session user wrote it.
func (s *server) ownPost(c *gin.Context) (*Post, bool) {
	userID, ok := requireLogin(c)
	if !ok {
		return nil, false
	}
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	post, err := s.deps.Posts.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Post not found.")
		return nil, false
	}
	if err != nil {
		respondInternal(c, "failed to load post")
		return nil, false
	}
	if post.Author.ID != userID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only manage your own posts.")
		return nil, false
	}
	return post, true
}

func (s *server) getOwnPost(c *gin.Context) {
	post, ok := s.ownPost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *server) updatePost(c *gin.Context) {
	post, ok := s.ownPost(c)
	if !ok {
		return
	}
	var req postPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return
	}
	in, err := req.apply(inputFromPost(post))
	if err != nil {
		respondValidation(c, err)
		return
	}
	if !s.checkPost(c, in) {
		return
	}
	updated, err := s.deps.Posts.Update(c.Request.Context(), post.ID, in)
	if err != nil {
		log.Printf("update post=%d: %v", post.ID, err)
		respondInternal(c, "failed to update post")
		return
	}
	s.enqueueIndex(c.Request.Context(), updated)
	c.JSON(http.StatusOK, updated)
}

func (s *server) deletePost(c *gin.Context) {
	post, ok := s.ownPost(c)
	if !ok {
		return
	}
	if err := s.deps.Posts.Delete(c.Request.Context(), post.ID); err != nil && !errors.Is(err, ErrNotFound) {
		respondInternal(c, "failed to delete post")
		return
	}
	c.Status(http.StatusNoContent)
}

// readUpload reads the multipart "file" field, rejecting bodies over limit with 413.
func readUpload(c *gin.Context, limit int64) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		return "", nil, false
	}
	if fh.Size > limit {
		respondError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "file is too large")
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "cannot read file")
		return "", nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "cannot read file")
		return "", nil, false
	}
	if int64(len(data)) > limit {
		respondError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "file is too large")
		return "", nil, false
	}
	return fh.Filename, data, true
}

func (s *server) importPost(c *gin.Context) {
	userID, ok := requireLogin(c)
	if !ok {
		return
	}
	_, data, ok := readUpload(c, maxBundleTotalSize)
	if !ok {
		return
	}
	bundle, err := ParsePostBundle(data)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	in := PostInput{
		Title:     bundle.Meta.Title,
		Content:   bundle.Content,
		Excerpt:   bundle.Meta.Excerpt,
		Status:    content.StatusDraft,
		Tags:      bundle.Meta.Tags,
		Thumbnail: bundle.Meta.Thumbnail,
	}
	if name := bundle.Meta.Category; name != "" {
		cats, err := s.deps.Categories.List(c.Request.Context())
		if err != nil {
			respondInternal(c, "failed to list categories")
			return
		}
		for _, cat := range cats {
			if strings.EqualFold(cat.Name, name) {
				id := cat.ID
				in.CategoryID = &id
				break
			}
		}
		if in.CategoryID == nil {
			respondValidation(c, fieldError(content.FieldCategory, "Unknown category "+name+"."))
			return
		}
	}
	if !s.checkPost(c, in) {
		return
	}
	post, err := s.deps.Posts.Create(c.Request.Context(), userID, in)
	if err != nil {
		log.Printf("import post: %v", err)
		respondInternal(c, "failed to import post")
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *server) uploadImage(c *gin.Context) {
	if _, ok := requireLogin(c); !ok {
		return
	}
	if s.deps.Uploader == nil {
		respondError(c, http.StatusServiceUnavailable, "UPLOAD_UNAVAILABLE", "image upload is not configured")
		return
	}
	name, data, ok := readUpload(c, int64(s.cfg.UploadMaxBytes))
	if !ok {
		return
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		respondError(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "only image files are accepted")
		return
	}

	stored := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	url, err := s.deps.Uploader.Upload(c.Request.Context(), stored, data)
	if errors.Is(err, ErrUploadNotConfigured) {
		respondError(c, http.StatusServiceUnavailable, "UPLOAD_UNAVAILABLE", "image upload is not configured")
		return
	}
	if err != nil {
		log.Printf("upload image: %v", err)
		respondError(c, http.StatusBadGateway, "UPLOAD_FAILED", "image upload failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
