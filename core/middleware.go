package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	sessionName     = "cms_session"
	sessionMaxAge   = 7 * 24 * 3600
	requestIDHeader = "X-Request-ID"
	csrfHeader      = "X-CSRF-Token"
)

// csrfExempt lists the credential-exchange endpoints called before a token exists.
var csrfExempt = map[string]struct{}{
	"/api/v1/auth/token":    {},
	"/api/v1/auth/register": {},
	"/api/v1/admin/login":   {},
}

// RequestIDMiddleware propagates or assigns an X-Request-ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = NewRequestID()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// SessionMiddleware ensures a session exists and applies consistent cookie options.
func SessionMiddleware(cfg Config, store *sessions.CookieStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		// A cookie that fails to decode still yields a fresh session.
		session, err := store.Get(c.Request, sessionName)
		if session == nil {
			respondInternal(c, "session error")
			c.Abort()
			return
		}

		if err != nil {
			session.Values = map[interface{}]interface{}{}
		}
		applySessionOptions(cfg, session)
		// Saved eagerly so cookie options reach anonymous clients too.
		if err := session.Save(c.Request, c.Writer); err != nil {
			respondInternal(c, "failed to persist session")
			c.Abort()
			return
		}

		c.Set("session", session)
		c.Next()
	}
}

// OriginRefererMiddleware validates Origin/Referer against allowed list and sets CORS headers.
func OriginRefererMiddleware(cfg Config) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}

	isAllowed := func(origin string) bool {
		if origin == "" {
			return true
		}
		if len(allowed) == 0 {
			return false
		}
		origin = strings.ToLower(origin)
		_, ok := allowed[origin]
		return ok
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")
		if origin == "" && referer != "" {
			if u, err := url.Parse(referer); err == nil {
				origin = u.Scheme + "://" + u.Host
			}
		}

		if c.Request.Method == http.MethodOptions && origin != "" {
			if !isAllowed(origin) {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
				c.Abort()
				return
			}
			setCORSHeaders(c, origin)
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		if !isAllowed(origin) {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
			c.Abort()
			return
		}
		if origin != "" {
			setCORSHeaders(c, origin)
		}
		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, origin string) {
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	c.Header("Access-Control-Allow-Credentials", "true")
	c.Header("Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token, X-Request-ID")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Expose-Headers", "X-CSRF-Token, X-Request-ID")
}

// CSRFMiddleware issues a per-session token and requires it on unsafe methods.
func CSRFMiddleware(cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := currentSession(c)
		if session == nil {
			respondInternal(c, "session error")
			c.Abort()
			return
		}

		token, _ := session.Values[sessionCSRFKey].(string)
		if token == "" {
			var err error
			if token, err = rotateCSRFToken(cfg, c, session); err != nil {
				respondInternal(c, "failed to issue csrf token")
				c.Abort()
				return
			}
		}

		if !isSafeMethod(c.Request.Method) && !csrfExemptPath(c.Request.URL.Path) {
			header := c.GetHeader(csrfHeader)
			if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(token)) != 1 {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "CSRF token missing or incorrect.")
				c.Abort()
				return
			}
		}

		c.Header(csrfHeader, token)
		c.Next()
	}
}

// rotateCSRFToken stores a fresh token in the session, saves it and exposes it in the response header.
func rotateCSRFToken(cfg Config, c *gin.Context, session *sessions.Session) (string, error) {
	token, err := generateCSRFToken()
	if err != nil {
		return "", err
	}
	session.Values[sessionCSRFKey] = token
	applySessionOptions(cfg, session)
	if err := session.Save(c.Request, c.Writer); err != nil {
		return "", err
	}
	c.Header(csrfHeader, token)
	return token, nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

func csrfExemptPath(path string) bool {
	_, ok := csrfExempt[path]
	return ok
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func applySessionOptions(cfg Config, session *sessions.Session) {
	if session.Options == nil {
		session.Options = &sessions.Options{}
	}
	session.Options.Path = "/"
	session.Options.MaxAge = sessionMaxAge
	session.Options.HttpOnly = true
	session.Options.Secure = cfg.CookieSecure
	session.Options.SameSite = sameSiteFromString(cfg.CookieSameSite)
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
