package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/handlers"
	"yatube/internal/logger"
	"yatube/internal/router"
	"yatube/internal/services"
	"yatube/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	l := logger.L()
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Initialize Database
	gdb, err := db.Open(cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("open database")
	}

	store, mediaDir, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		l.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("open storage")
	}

	pageStore, closeStore, err := openCacheStore(ctx, cfg)
	if err != nil {
		l.Fatal().Err(err).Str("backend", cfg.Cache.Backend).Msg("open page cache")
	}
	defer closeStore()
	pageCache := cache.New(pageStore, cache.SystemClock)

	// Services
	users := services.NewUserService(gdb)
	images := services.NewImageService(store)
	posts := services.NewPostService(gdb, images)
	follows := services.NewFollowService(gdb, users)
	comments := services.NewCommentService(gdb)

	views, err := handlers.LoadTemplates(cfg.Templates.Dir, images.URL)
	if err != nil {
		l.Fatal().Err(err).Str("dir", cfg.Templates.Dir).Msg("load templates")
	}

	var google *handlers.GoogleAuthHandler
	if cfg.OAuth.GoogleClientID != "" {
		google = handlers.NewGoogleAuthHandler(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.Server.SiteURL, users)
	}

	r := router.NewEngine(router.Options{
		Logger:        l,
		SessionSecret: cfg.Server.SessionSecret,
		Views:         views,
		Users:         users,
		MediaDir:      mediaDir,
		MediaURL:      cfg.Storage.Local.URLPrefix,
	}, router.Handlers{
		Auth:    handlers.NewAuthHandler(users, google != nil),
		Posts:   handlers.NewPostHandler(posts, comments, pageCache, views, cfg.Cache.IndexTTL),
		Profile: handlers.NewProfileHandler(posts, follows),
		SEO:     handlers.NewSEOHandler(posts, cfg.Server.SiteURL),
		Google:  google,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Int("port", cfg.Server.Port).Str("db", cfg.Database.Driver).Msg("yatube server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}
}

// openStorage returns the image store and, for local storage, the
// directory to serve statically.
func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, string, error) {
	switch cfg.Backend {
	case "", "local":
		s, err := storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.URLPrefix)
		if err != nil {
			return nil, "", err
		}
		return s, s.BasePath(), nil
	case "s3":
		s, err := storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			PublicURL:       cfg.S3.PublicURL,
		})
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	}
	return nil, "", fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func openCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, func(), error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		s, err := cache.NewMemoryStore(cfg.Cache.Size)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "redis":
		s, err := cache.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}
