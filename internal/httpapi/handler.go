// Package httpapi exposes the platform over HTTP. Handlers stay thin:
// decode, call a service, map the error taxonomy to a status code.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/classroom"
	"github.com/revisehub/revisehub/internal/content"
	"github.com/revisehub/revisehub/internal/engagement"
	"github.com/revisehub/revisehub/internal/platform/cache"
	"github.com/revisehub/revisehub/internal/platform/errs"
	"github.com/revisehub/revisehub/internal/progress"
	"github.com/revisehub/revisehub/internal/quiz"
)

const sessionCookie = "session_token"

// Config holds the services the API fronts. Cache and Feed are
// optional; without them the dashboard is computed per request and the
// live feed routes are not registered.
type Config struct {
	Auth       *auth.Manager
	Quiz       *quiz.Service
	Content    content.Store
	Importer   *content.Importer
	Progress   *progress.Tracker
	Engagement *engagement.Tracker
	Classroom  *classroom.Service
	Cache      *cache.Cache
	Feed       *Feed
	Now        func() time.Time
}

// Handler serves the REST API.
type Handler struct {
	auth       *auth.Manager
	quiz       *quiz.Service
	content    content.Store
	importer   *content.Importer
	progress   *progress.Tracker
	engagement *engagement.Tracker
	classroom  *classroom.Service
	cache      *cache.Cache
	feed       *Feed
	now        func() time.Time
}

// New creates the API handler.
func New(cfg Config) *Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Handler{
		auth:       cfg.Auth,
		quiz:       cfg.Quiz,
		content:    cfg.Content,
		importer:   cfg.Importer,
		progress:   cfg.Progress,
		engagement: cfg.Engagement,
		classroom:  cfg.Classroom,
		cache:      cfg.Cache,
		feed:       cfg.Feed,
		now:        cfg.Now,
	}
}

// Register wires all API routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signin", h.handleSignIn)
	mux.HandleFunc("GET /api/auth/me", h.withUser(h.handleMe))
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	mux.HandleFunc("POST /api/auth/update-role", h.withUser(h.handleUpdateRole))

	mux.HandleFunc("POST /api/content/upload", h.withUser(h.handleContentUpload))
	mux.HandleFunc("GET /api/content/list", h.withUser(h.handleContentList))
	mux.HandleFunc("GET /api/content/{contentID}", h.withUser(h.handleContentGet))

	mux.HandleFunc("POST /api/quiz/start", h.withUser(h.handleQuizStart))
	mux.HandleFunc("POST /api/quiz/{sessionID}/answer", h.withUser(h.handleQuizAnswer))
	mux.HandleFunc("POST /api/quiz/{sessionID}/complete", h.withUser(h.handleQuizComplete))

	mux.HandleFunc("GET /api/student/dashboard", h.withUser(h.handleDashboard))
	mux.HandleFunc("GET /api/student/review-bank", h.withUser(h.handleReviewBank))
	mux.HandleFunc("POST /api/student/class/join", h.withUser(h.handleClassJoin))

	mux.HandleFunc("POST /api/teacher/class", h.withUser(h.handleClassCreate))
	mux.HandleFunc("GET /api/teacher/classes", h.withUser(h.handleClassList))
	mux.HandleFunc("POST /api/teacher/class/{classID}/add-student", h.withUser(h.handleClassAddStudent))
	mux.HandleFunc("GET /api/teacher/analytics/{classID}", h.withUser(h.handleClassAnalytics))
	mux.HandleFunc("GET /api/teacher/student/{studentID}/progress", h.withUser(h.handleStudentProgress))

	if h.feed != nil {
		mux.HandleFunc("GET /api/teacher/class/{classID}/feed", h.withUser(h.handleClassFeed))
	}
}

// Routes returns a mux with all API routes registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

// withUser resolves the session token before running next. The token is
// read from the session cookie, falling back to a bearer header.
func (h *Handler) withUser(next func(http.ResponseWriter, *http.Request, auth.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.auth.Resolve(r.Context(), requestToken(r))
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, u)
	}
}

func requestToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if bearer := r.Header.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
		return strings.TrimPrefix(bearer, "Bearer ")
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errs.NotFound(err):
		status = http.StatusNotFound
	case errs.Forbidden(err):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrAlreadyCompleted):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.ErrInvalidInput
	}
	return nil
}
