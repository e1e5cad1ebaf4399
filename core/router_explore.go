package core

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"cms-platform/content"
)

const explorePageSize = 9

func (s *server) registerExploreRoutes(g *gin.RouterGroup) {
	g.GET("/blogs", s.explorePosts)
	g.GET("/blogs/:id", s.explorePost)
	g.POST("/blogs/:id/like", s.toggleLike)
	g.GET("/blogs/:id/comments", s.listComments)
	g.POST("/blogs/:id/comments", s.createComment)
	g.PUT("/comments/:id", s.updateComment)
	g.DELETE("/comments/:id", s.deleteComment)
}

func (s *server) explorePosts(c *gin.Context) {
	if _, ok := requireLogin(c); !ok {
		return
	}
	page, perPage, err := parsePagination(c.Query("page"), c.Query("page_size"), explorePageSize)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	sortBy := strings.ToLower(strings.TrimSpace(c.Query("sort_by")))
	switch sortBy {
	case "":
		sortBy = SortLatest
	case SortLatest, SortPopular, SortMostCommented:
	default:
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "sort_by must be latest, popular or most-commented")
		return
	}
	f := ExploreFilter{Search: c.Query("search"), Category: c.Query("category"), SortBy: sortBy}
	items, total, err := s.deps.Posts.Explore(c.Request.Context(), f, page, perPage)
	if err != nil {
		respondInternal(c, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, pageResponse(items, total, page, perPage))
}

// visiblePost loads :id and hides drafts and moderated posts behind 404.
func (s *server) visiblePost(c *gin.Context) (*Post, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	post, err := s.deps.Posts.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) || (err == nil && (post.Status != content.StatusPublished || !post.Show)) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Post not found.")
		return nil, false
	}
	if err != nil {
		respondInternal(c, "failed to load post")
		return nil, false
	}
	return post, true
}

func (s *server) explorePost(c *gin.Context) {
	if _, ok := requireLogin(c); !ok {
		return
	}
	post, ok := s.visiblePost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *server) toggleLike(c *gin.Context) {
	userID, ok := requireLogin(c)
	if !ok {
		return
	}
	post, ok := s.visiblePost(c)
	if !ok {
		return
	}
	liked, count, err := s.deps.Posts.ToggleLike(c.Request.Context(), post.ID, userID)
	if errors.Is(err, ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Post not found.")
		return
	}
	if err != nil {
		respondInternal(c, "failed to toggle like")
		return
	}
	action := "unliked"
	if liked {
		action = "liked"
	}
	c.JSON(http.StatusOK, gin.H{"action": action, "likes_count": count})
}

func (s *server) listComments(c *gin.Context) {
	if _, ok := requireLogin(c); !ok {
		return
	}
	post, ok := s.visiblePost(c)
	if !ok {
		return
	}
	items, err := s.deps.Comments.ListByPost(c.Request.Context(), post.ID)
	if err != nil {
		respondInternal(c, "failed to list comments")
		return
	}
	c.JSON(http.StatusOK, items)
}

type commentPayload struct {
	Content string `json:"content"`
}

func bindComment(c *gin.Context) (string, bool) {
	var req commentPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return "", false
	}
	body := strings.TrimSpace(req.Content)
	if body == "" {
		respondValidation(c, fieldError("content", "This field may not be blank."))
		return "", false
	}
	if utf8.RuneCountInString(body) > MaxCommentLength {
		respondValidation(c, fieldError("content", "Comment is too long."))
		return "", false
	}
	return body, true
}

func (s *server) createComment(c *gin.Context) {
	userID, ok := requireLogin(c)
	if !ok {
		return
	}
	post, ok := s.visiblePost(c)
	if !ok {
		return
	}
	body, ok := bindComment(c)
	if !ok {
		return
	}
	m, err := s.deps.Comments.Create(c.Request.Context(), post.ID, userID, body)
	if err != nil {
		log.Printf("create comment post=%d: %v", post.ID, err)
		respondInternal(c, "failed to create comment")
		return
	}
	c.JSON(http.StatusCreated, m)
}

// commentFor loads :id for mutation by the session user. Admins may delete any comment.
func (s *server) commentFor(c *gin.Context, allowAdmin bool) (*Comment, bool) {
	userID, ok := requireLogin(c)
	if !ok {
		return nil, false
	}
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	m, err := s.deps.Comments.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Comment not found.")
		return nil, false
	}
	if err != nil {
		respondInternal(c, "failed to load comment")
		return nil, false
	}
	if m.User.ID != userID && !(allowAdmin && sessionRole(c) == RoleAdmin) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only change your own comments.")
		return nil, false
	}
	return m, true
}

func (s *server) updateComment(c *gin.Context) {
	m, ok := s.commentFor(c, false)
	if !ok {
		return
	}
	body, ok := bindComment(c)
	if !ok {
		return
	}
	updated, err := s.deps.Comments.Update(c.Request.Context(), m.ID, body)
	if err != nil {
		respondInternal(c, "failed to update comment")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *server) deleteComment(c *gin.Context) {
	m, ok := s.commentFor(c, true)
	if !ok {
		return
	}
	if err := s.deps.Comments.Delete(c.Request.Context(), m.ID); err != nil && !errors.Is(err, ErrNotFound) {
		respondInternal(c, "failed to delete comment")
		return
	}
	c.Status(http.StatusNoContent)
}
