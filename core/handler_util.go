package core

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"cms-platform/content"
)

// Session value keys.
const (
	sessionUserIDKey = "user_id"
	sessionRoleKey   = "role"
	sessionCSRFKey   = "csrf_token"
)

// inactiveAccountKey marks requests whose session belonged to a deactivated account.
const inactiveAccountKey = "inactive_account"

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// respondError sends the unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondValidation reports a field-level failure as 422 with the offending field.
func respondValidation(c *gin.Context, err error) bool {
	var ve *content.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gin.H{
		"code":    "VALIDATION_ERROR",
		"message": ve.Message,
		"field":   ve.Field,
	}})
	return true
}

func respondInternal(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message)
}

func fieldError(field, message string) error {
	return &content.ValidationError{Field: field, Message: message}
}

func currentSession(c *gin.Context) *sessions.Session {
	v, _ := c.Get("session")
	sess, _ := v.(*sessions.Session)
	return sess
}

// sessionUserID returns the logged-in user id, or 0 for anonymous requests.
func sessionUserID(c *gin.Context) int64 {
	sess := currentSession(c)
	if sess == nil {
		return 0
	}
	id, _ := sess.Values[sessionUserIDKey].(int64)
	return id
}

func sessionRole(c *gin.Context) string {
	sess := currentSession(c)
	if sess == nil {
		return ""
	}
	role, _ := sess.Values[sessionRoleKey].(string)
	return role
}

// requireLogin writes 401 and returns false for anonymous requests.
func requireLogin(c *gin.Context) (int64, bool) {
	id := sessionUserID(c)
	if id <= 0 {
		if c.GetBool(inactiveAccountKey) {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "This account has been deactivated.")
			return 0, false
		}
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication credentials were not provided.")
		return 0, false
	}
	return id, true
}

// paramID parses a positive integer path parameter, writing 400 on failure.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid "+name)
		return 0, false
	}
	return id, true
}

func parsePagination(pageStr, perPageStr string, fallbackPerPage int) (int, int, error) {
	page := 1
	perPage := fallbackPerPage
	if strings.TrimSpace(pageStr) != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, errors.New("page must be a positive integer")
		}
		page = p
	}
	if strings.TrimSpace(perPageStr) != "" {
		p, err := strconv.Atoi(perPageStr)
		if err != nil || p <= 0 {
			return 0, 0, errors.New("page_size must be a positive integer")
		}
		if p > maxPerPage {
			p = maxPerPage
		}
		perPage = p
	}
	return page, perPage, nil
}

func calcTotalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// pageResponse is the envelope shared by paginated listings.
func pageResponse(results interface{}, total, page, perPage int) gin.H {
	return gin.H{
		"count":       total,
		"total_pages": calcTotalPages(total, perPage),
		"page":        page,
		"results":     results,
	}
}
