package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/classroom"
	"github.com/revisehub/revisehub/internal/content"
	"github.com/revisehub/revisehub/internal/engagement"
	"github.com/revisehub/revisehub/internal/httpapi"
	"github.com/revisehub/revisehub/internal/platform/cache"
	"github.com/revisehub/revisehub/internal/platform/config"
	"github.com/revisehub/revisehub/internal/platform/database"
	"github.com/revisehub/revisehub/internal/progress"
	"github.com/revisehub/revisehub/internal/quiz"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// The cache is optional: without Redis, sessions live in memory and
	// the dashboard is computed per request.
	var redis *cache.Cache
	if c, err := cache.New(ctx, cfg.Cache.URL); err != nil {
		slog.Warn("cache unavailable, continuing without it", "error", err)
	} else {
		redis = c
		defer redis.Close()
	}

	handler, err := buildHandler(ctx, cfg, db, redis)
	if err != nil {
		slog.Error("failed to build services", "error", err)
		os.Exit(1)
	}

	mux := newMux(db, redis)
	handler.Register(mux)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// buildHandler wires the storage layer into the services and the
// services into the API handler.
func buildHandler(ctx context.Context, cfg *config.Config, db *database.DB, redis *cache.Cache) (*httpapi.Handler, error) {
	contentStore, err := content.NewPostgresStore(db.Pool)
	if err != nil {
		return nil, err
	}
	progressStore, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		return nil, err
	}
	engagementStore, err := engagement.NewPostgresStore(db.Pool)
	if err != nil {
		return nil, err
	}
	sessionStore, err := quiz.NewPostgresSessionStore(db.Pool)
	if err != nil {
		return nil, err
	}
	eventStore, err := quiz.NewPostgresEventStore(db.Pool)
	if err != nil {
		return nil, err
	}
	userStore, err := auth.NewPostgresUserStore(db.Pool)
	if err != nil {
		return nil, err
	}
	classStore, err := classroom.NewPostgresStore(db.Pool)
	if err != nil {
		return nil, err
	}

	if cfg.PacksDir != "" {
		n, err := content.LoadPacks(ctx, cfg.PacksDir, contentStore)
		if err != nil {
			slog.Warn("loading content packs failed", "dir", cfg.PacksDir, "error", err)
		} else {
			slog.Info("content packs loaded", "dir", cfg.PacksDir, "items", n)
		}
	}

	var tokens auth.TokenStore
	if redis != nil {
		tokens = auth.NewRedisTokenStore(redis)
	}
	manager := auth.NewManager(auth.ManagerConfig{
		Users:  userStore,
		Tokens: tokens,
		TTL:    time.Duration(cfg.Auth.SessionTTL) * 24 * time.Hour,
	})

	progressTracker := progress.NewTracker(progress.Config{Store: progressStore})
	engagementTracker := engagement.NewTracker(engagementStore)
	feed := httpapi.NewFeed(classStore)

	quizService := quiz.NewService(quiz.Config{
		Content:      contentStore,
		Progress:     progressTracker,
		Engagement:   engagementTracker,
		Sessions:     sessionStore,
		Events:       eventStore,
		Sink:         feed,
		DefaultCount: cfg.Quiz.DefaultQuestionCount,
		MaxCount:     cfg.Quiz.MaxQuestionCount,
	})
	classroomService := classroom.NewService(classroom.Config{
		Store:      classStore,
		Users:      userStore,
		Content:    contentStore,
		Progress:   progressTracker,
		Engagement: engagementTracker,
	})

	return httpapi.New(httpapi.Config{
		Auth:       manager,
		Quiz:       quizService,
		Content:    contentStore,
		Importer:   content.NewImporter(contentStore),
		Progress:   progressTracker,
		Engagement: engagementTracker,
		Classroom:  classroomService,
		Cache:      redis,
		Feed:       feed,
	}), nil
}

// newMux creates the HTTP router with health check endpoints.
func newMux(db *database.DB, redis *cache.Cache) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz(db, redis))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReadyz(db *database.DB, redis *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"database unavailable"}`))
				return
			}
		}
		if redis != nil {
			if err := redis.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"cache unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
