package core

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) registerAuthRoutes(g *gin.RouterGroup) {
	g.POST("/token", s.login)
	g.POST("/logout", s.logout)
	g.POST("/register", s.register)
	g.GET("/authenticated", func(c *gin.Context) {
		if _, ok := requireLogin(c); !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"authenticated": true})
	})
	g.GET("/user-details", s.userDetails)
}

func (s *server) bindCredentials(c *gin.Context) (credentials, bool) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return req, false
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return req, false
	}
	return req, true
}

// authenticate writes the failure response itself and reports success.
func (s *server) authenticate(c *gin.Context, req credentials) (User, bool) {
	user, err := s.deps.Auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		return user, true
	case errors.Is(err, ErrInactiveUser):
		respondError(c, http.StatusForbidden, "INACTIVE_USER", "This account has been deactivated.")
	case errors.Is(err, ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "No active account found with the given credentials")
	default:
		log.Printf("authenticate: %v", err)
		respondInternal(c, "authentication failed")
	}
	return User{}, false
}

func (s *server) login(c *gin.Context) {
	req, ok := s.bindCredentials(c)
	if !ok {
		return
	}
	user, ok := s.authenticate(c, req)
	if !ok {
		return
	}
	if err := s.startSession(c, user); err != nil {
		respondInternal(c, "failed to set session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "role": user.Role, "user": userSummary(user)})
}

func (s *server) logout(c *gin.Context) {
	sess := currentSession(c)
	sess.Values = map[interface{}]interface{}{}
	if _, err := rotateCSRFToken(s.cfg, c, sess); err != nil {
		respondInternal(c, "failed to clear session")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) register(c *gin.Context) {
	var req RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return
	}
	user, err := s.deps.Auth.Register(c.Request.Context(), req)
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		if errors.Is(err, ErrDuplicateEmail) {
			respondError(c, http.StatusConflict, "DUPLICATE_EMAIL", "A user with that email already exists.")
			return
		}
		log.Printf("register: %v", err)
		respondInternal(c, "failed to register user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": userSummary(user)})
}

func (s *server) userDetails(c *gin.Context) {
	id, ok := requireLogin(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	u, err := s.deps.Users.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not found")
		return
	}
	if err != nil {
		respondInternal(c, "failed to load user")
		return
	}
	interests, err := s.deps.Users.Interests(ctx, id)
	if err != nil {
		respondInternal(c, "failed to load interests")
		return
	}
	c.JSON(http.StatusOK, UserProfile{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		DateOfBirth: u.DateOfBirth,
		Role:        u.Role,
		Interests:   interests,
	})
}

func userSummary(u User) gin.H {
	return gin.H{"id": u.ID, "email": u.Email, "username": u.Username}
}
