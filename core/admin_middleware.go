package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminOnly rejects anonymous requests with 401 and non-admins with 403.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireLogin(c); !ok {
			c.Abort()
			return
		}
		if sessionRole(c) != RoleAdmin {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action.")
			c.Abort()
			return
		}
		c.Next()
	}
}
