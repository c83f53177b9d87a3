package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/content"
	"github.com/revisehub/revisehub/internal/engagement"
	"github.com/revisehub/revisehub/internal/progress"
	"github.com/revisehub/revisehub/internal/quiz"
)

const (
	dashboardTTL    = time.Minute
	reviewBankLimit = 50
)

// Dashboard is the student home screen snapshot.
type Dashboard struct {
	Streak        engagement.Streak  `json:"streak"`
	Rewards       engagement.Rewards `json:"rewards"`
	Progress      progress.Stats     `json:"progress"`
	RecentQuizzes []quiz.Session     `json:"recent_quizzes"`
}

func dashboardKey(learnerID string) string { return "dashboard:" + learnerID }

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request, u auth.User) {
	if err := auth.RequireRole(u, auth.RoleStudent); err != nil {
		writeError(w, err)
		return
	}

	if h.cache != nil {
		var cached Dashboard
		if err := h.cache.GetJSON(r.Context(), dashboardKey(u.ID), &cached); err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	d, err := h.buildDashboard(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(r.Context(), dashboardKey(u.ID), d, dashboardTTL); err != nil {
			slog.Warn("dashboard cache write failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) buildDashboard(ctx context.Context, learnerID string) (Dashboard, error) {
	streak, err := h.engagement.StreakFor(ctx, learnerID)
	if err != nil {
		return Dashboard{}, err
	}
	rewards, err := h.engagement.RewardsFor(ctx, learnerID)
	if err != nil {
		return Dashboard{}, err
	}
	stats, err := h.progress.StatsFor(ctx, learnerID, h.now())
	if err != nil {
		return Dashboard{}, err
	}
	recent, err := h.quiz.Recent(ctx, learnerID, 5)
	if err != nil {
		return Dashboard{}, err
	}
	if recent == nil {
		recent = []quiz.Session{}
	}
	return Dashboard{Streak: streak, Rewards: rewards, Progress: stats, RecentQuizzes: recent}, nil
}

func (h *Handler) invalidateDashboard(ctx context.Context, learnerID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, dashboardKey(learnerID)); err != nil {
		slog.Warn("dashboard cache invalidation failed", "error", err)
	}
}

// ReviewBankEntry pairs a weak item with the learner's record on it.
type ReviewBankEntry struct {
	content.Item
	Attempts   int     `json:"attempts"`
	Confidence float64 `json:"confidence_score"`
}

// handleReviewBank lists low-confidence items, most recently seen
// first.
func (h *Handler) handleReviewBank(w http.ResponseWriter, r *http.Request, u auth.User) {
	if err := auth.RequireRole(u, auth.RoleStudent); err != nil {
		writeError(w, err)
		return
	}

	weak, err := h.progress.WeakItems(r.Context(), u.ID, reviewBankLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	entries := []ReviewBankEntry{}
	if len(weak) > 0 {
		ids := make([]string, len(weak))
		for i, rec := range weak {
			ids[i] = rec.ItemID
		}
		items, err := h.content.GetMany(r.Context(), ids)
		if err != nil {
			writeError(w, err)
			return
		}
		byID := make(map[string]content.Item, len(items))
		for _, item := range items {
			byID[item.ID] = item
		}
		for _, rec := range weak {
			item, ok := byID[rec.ItemID]
			if !ok {
				continue
			}
			entries = append(entries, ReviewBankEntry{
				Item:       item,
				Attempts:   rec.Attempts,
				Confidence: rec.Confidence,
			})
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

type classJoinRequest struct {
	Code string `json:"class_code"`
}

func (h *Handler) handleClassJoin(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req classJoinRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := h.classroom.Join(r.Context(), u, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
