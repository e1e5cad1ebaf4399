package core

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cms-platform/content"
)

func (s *server) registerAdminRoutes(g *gin.RouterGroup) {
	g.POST("/login", s.adminLogin)

	a := g.Group("", AdminOnly())
	a.GET("/users", s.adminListUsers)
	a.PATCH("/users/:id/status", s.adminSetUserStatus)
	a.GET("/posts", s.adminListPosts)
	a.PATCH("/posts/:id/delete", s.adminSetPostVisible(false))
	a.PATCH("/posts/:id/restore", s.adminSetPostVisible(true))
	a.GET("/blog/:id", s.adminPostDetail)
	a.DELETE("/blog/:id", s.adminDeleteComment)
	a.GET("/blog/:id/export", s.adminExportPost)

	a.GET("/metrics/overview", s.metricsOverview)
	a.GET("/metrics/queues", s.metricsQueue)
	a.GET("/metrics/workers", s.metricsWorkers)
	a.GET("/metrics/workers/:id", s.metricsWorker)
	a.GET("/system/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, CollectSystemStatus(c.Request.Context(), s.deps.Metrics, s.startedAt))
	})
}

func (s *server) adminLogin(c *gin.Context) {
	req, ok := s.bindCredentials(c)
	if !ok {
		return
	}
	user, ok := s.authenticate(c, req)
	if !ok {
		return
	}
	if user.Role != RoleAdmin {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You are not authorized to access admin")
		return
	}
	if err := s.startSession(c, user); err != nil {
		respondInternal(c, "failed to set session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "role": RoleAdmin, "user": userSummary(user)})
}

func (s *server) adminListUsers(c *gin.Context) {
	page, perPage, err := parsePagination(c.Query("page"), c.Query("page_size"), defaultPerPage)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	f := UserFilter{Search: c.Query("search")}
	switch strings.ToLower(c.Query("status")) {
	case "":
	case "active":
		f.Active = boolPtr(true)
	case "inactive":
		f.Active = boolPtr(false)
	default:
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "status must be active or inactive")
		return
	}
	items, total, err := s.deps.Users.List(c.Request.Context(), f, page, perPage)
	if err != nil {
		respondInternal(c, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, pageResponse(items, total, page, perPage))
}

func (s *server) adminSetUserStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return
	}
	var active bool
	switch strings.ToLower(req.Status) {
	case "active":
		active = true
	case "inactive":
	default:
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status.")
		return
	}
	if !active && id == sessionUserID(c) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "You cannot deactivate your own account.")
		return
	}
	item, err := s.deps.Users.SetActive(c.Request.Context(), id, active)
	if errors.Is(err, ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "User not found.")
		return
	}
	if err != nil {
		respondInternal(c, "failed to update user")
		return
	}
	log.Printf("admin user=%d set user=%d active=%t", sessionUserID(c), id, active)
	c.JSON(http.StatusOK, item)
}

func (s *server) adminListPosts(c *gin.Context) {
	page, perPage, err := parsePagination(c.Query("page"), c.Query("page_size"), defaultPerPage)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	f := AdminPostFilter{Search: c.Query("search")}
	if raw := c.Query("status"); raw != "" {
		st, err := content.ParseStatus(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "status must be draft or published")
			return
		}
		f.Status = &st
	}
	if raw := c.Query("show"); raw != "" {
		show, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "show must be true or false")
			return
		}
		f.Show = &show
	}
	items, total, err := s.deps.Posts.AdminList(c.Request.Context(), f, page, perPage)
	if err != nil {
		respondInternal(c, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, pageResponse(items, total, page, perPage))
}

func (s *server) adminSetPostVisible(show bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		post, err := s.deps.Posts.SetVisible(c.Request.Context(), id, show)
		if errors.Is(err, ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Post not found.")
			return
		}
		if err != nil {
			respondInternal(c, "failed to update post")
			return
		}
		log.Printf("admin user=%d set post=%d show=%t", sessionUserID(c), id, show)
		c.JSON(http.StatusOK, post)
	}
}

func (s *server) adminPost(c *gin.Context) (*Post, bool) {
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
	return post, true
}

func (s *server) adminPostDetail(c *gin.Context) {
	post, ok := s.adminPost(c)
	if !ok {
		return
	}
	comments, err := s.deps.Comments.ListByPost(c.Request.Context(), post.ID)
	if err != nil {
		respondInternal(c, "failed to list comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post, "comments": comments})
}

// adminDeleteComment removes ?comment_id= from the post named by :id.
func (s *server) adminDeleteComment(c *gin.Context) {
	blogID, ok := paramID(c, "id")
	if !ok {
		return
	}
	commentID, err := strconv.ParseInt(c.Query("comment_id"), 10, 64)
	if err != nil || commentID <= 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "comment_id query param is required")
		return
	}
	ctx := c.Request.Context()
	m, err := s.deps.Comments.Get(ctx, commentID)
	if errors.Is(err, ErrNotFound) || (err == nil && m.BlogID != blogID) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Comment not found.")
		return
	}
	if err != nil {
		respondInternal(c, "failed to load comment")
		return
	}
	if err := s.deps.Comments.Delete(ctx, commentID); err != nil && !errors.Is(err, ErrNotFound) {
		respondInternal(c, "failed to delete comment")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) adminExportPost(c *gin.Context) {
	post, ok := s.adminPost(c)
	if !ok {
		return
	}
	data, err := BuildPostBundle(post)
	if err != nil {
		respondInternal(c, "failed to build bundle")
		return
	}
	name := BundleSlug(post.Title)
	if name == "" {
		name = fmt.Sprintf("post-%d", post.ID)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.zip"`, name))
	c.Data(http.StatusOK, "application/zip", data)
}

func (s *server) requireMetrics(c *gin.Context) bool {
	if s.deps.Metrics == nil {
		respondError(c, http.StatusServiceUnavailable, "METRICS_UNAVAILABLE", "metrics backend is not configured")
		return false
	}
	return true
}

func (s *server) metricsOverview(c *gin.Context) {
	if !s.requireMetrics(c) {
		return
	}
	queue, workers, err := s.deps.Metrics.Overview(c.Request.Context())
	if err != nil {
		respondInternal(c, "failed to read metrics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue, "workers": workers})
}

func (s *server) metricsQueue(c *gin.Context) {
	if !s.requireMetrics(c) {
		return
	}
	queue, err := s.deps.Metrics.Queue(c.Request.Context())
	if err != nil {
		respondInternal(c, "failed to read queue metrics")
		return
	}
	c.JSON(http.StatusOK, queue)
}

func (s *server) metricsWorkers(c *gin.Context) {
	if !s.requireMetrics(c) {
		return
	}
	workers, err := s.deps.Metrics.Workers(c.Request.Context())
	if err != nil {
		respondInternal(c, "failed to read workers")
		return
	}
	c.JSON(http.StatusOK, workers)
}

func (s *server) metricsWorker(c *gin.Context) {
	if !s.requireMetrics(c) {
		return
	}
	hb, err := s.deps.Metrics.WorkerByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrWorkerNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "worker not found")
		return
	}
	if err != nil {
		respondInternal(c, "failed to read worker")
		return
	}
	c.JSON(http.StatusOK, hb)
}

func boolPtr(v bool) *bool { return &v }
