package core

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"cms-platform/content"
)

// Deps are the collaborators the HTTP handlers depend on. Queue and Metrics may
// be nil, in which case publishing skips indexing and the metrics routes report 503.
type Deps struct {
	Auth       AuthService
	Users      UserRepository
	Categories CategoryRepository
	Posts      PostRepository
	Comments   CommentRepository
	Queue      JobQueue
	Metrics    *MetricsService
	Uploader   ImageUploader
}

type server struct {
	cfg       Config
	store     *sessions.CookieStore
	deps      Deps
	startedAt time.Time
}

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, store *sessions.CookieStore, deps Deps) *gin.Engine {
	s := &server{cfg: cfg, store: store, deps: deps, startedAt: time.Now()}
	r := gin.New()
	r.MaxMultipartMemory = int64(maxBundleTotalSize)

	// recovery -> request-id -> access log -> origin/CORS -> session -> CSRF
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(AccessLogMiddleware())
	r.Use(OriginRefererMiddleware(cfg))
	r.Use(SessionMiddleware(cfg, store))
	r.Use(CSRFMiddleware(cfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1", s.activeSession())
	s.registerAuthRoutes(api.Group("/auth"))
	s.registerContentRoutes(api)
	s.registerExploreRoutes(api.Group("/explore"))
	s.registerAdminRoutes(api.Group("/admin"))
	return r
}

// activeSession re-checks the account behind a logged-in session on every API
// request. Sessions of deleted or deactivated accounts lose their login, and the
// stored role follows the account.
func (s *server) activeSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sessionUserID(c)
		if id <= 0 {
			c.Next()
			return
		}
		u, err := s.deps.Users.FindByID(c.Request.Context(), id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("load session user=%d: %v", id, err)
			respondInternal(c, "failed to load user")
			c.Abort()
			return
		}
		sess := currentSession(c)
		switch {
		case err != nil || u == nil || !u.IsActive:
			delete(sess.Values, sessionUserIDKey)
			delete(sess.Values, sessionRoleKey)
			if err == nil && u != nil {
				c.Set(inactiveAccountKey, true)
			}
		case u.Role != sessionRole(c):
			sess.Values[sessionRoleKey] = u.Role
		default:
			c.Next()
			return
		}
		if err := sess.Save(c.Request, c.Writer); err != nil {
			respondInternal(c, "failed to persist session")
			c.Abort()
			return
		}
		c.Next()
	}
}

// startSession replaces the session contents with u and issues a fresh CSRF token.
func (s *server) startSession(c *gin.Context, u User) error {
	sess := currentSession(c)
	sess.Values = map[interface{}]interface{}{}
	sess.Values[sessionUserIDKey] = u.ID
	sess.Values[sessionRoleKey] = u.Role
	_, err := rotateCSRFToken(s.cfg, c, sess)
	return err
}

// enqueueIndex schedules a published post for indexing. Failures are logged
// and the next save of the post retries.
func (s *server) enqueueIndex(ctx context.Context, p *Post) {
	if s.deps.Queue == nil || p == nil || p.Status != content.StatusPublished {
		return
	}
	if err := EnqueuePost(ctx, s.deps.Queue, p.ID); err != nil {
		log.Printf("enqueue index post=%d: %v", p.ID, err)
	}
}
