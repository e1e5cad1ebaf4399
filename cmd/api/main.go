package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"

	"cms-platform/core"
)

func main() {
	cfg := core.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCloser, err := core.SetupLogging(cfg, "api")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()
	if err := core.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	store := sessions.NewCookieStore([]byte(cfg.SessionKey))

	userRepo := core.NewPgUserRepository(db)
	categoryRepo := core.NewPgCategoryRepository(db)
	if err := core.BootstrapAdmin(ctx, userRepo, cfg); err != nil {
		log.Fatalf("bootstrap admin failed: %v", err)
	}
	if err := core.SeedCategories(ctx, categoryRepo, cfg); err != nil {
		log.Fatalf("seed categories failed: %v", err)
	}

	deps := core.Deps{
		Auth:       core.NewRepositoryAuthService(userRepo),
		Users:      userRepo,
		Categories: categoryRepo,
		Posts:      core.NewPgPostRepository(db),
		Comments:   core.NewPgCommentRepository(db),
		Queue:      core.NewRedisQueue(redisClient, core.PublicationQueueKeys),
		Metrics:    core.NewMetricsService(redisClient, core.PublicationQueueKeys),
		Uploader:   core.NewHTTPUploadClient(cfg.UploadURL, cfg.UploadPreset),
	}
	if cfg.UploadURL == "" {
		log.Printf("UPLOAD_URL not set; image uploads are disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           core.NewRouter(cfg, store, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("starting api server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
	log.Printf("api server stopped")
}
