package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupLogging sends the standard logger and gin's writers to stdout and to
// <cfg.LogDir>/<service>.log. Lines are prefixed with the service name.
// Caller should close the returned io.Closer on shutdown.
func SetupLogging(cfg Config, service string) (io.Closer, error) {
	if service == "" {
		service = "cms"
	}
	dir := cfg.LogDir
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, service+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	mw := io.MultiWriter(os.Stdout, f)
	log.SetOutput(mw)
	log.SetPrefix("[" + service + "] ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	gin.DefaultWriter = mw
	gin.DefaultErrorWriter = mw

	return f, nil
}

// AccessLogMiddleware writes one line per request through the standard logger,
// tagged with the request id set by RequestIDMiddleware.
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		rid, _ := c.Get("request_id")
		user := sessionUserID(c)
		log.Printf("%s %s %d %s rid=%v user=%d bytes=%d",
			c.Request.Method, path, c.Writer.Status(), time.Since(start).Round(time.Microsecond), rid, user, c.Writer.Size())
	}
}
