package httpapi

import (
	"net/http"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/content"
	"github.com/revisehub/revisehub/internal/quiz"
)

type quizStartRequest struct {
	Grade         string `json:"grade"`
	Term          string `json:"term"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"question_count"`
}

type quizStartResponse struct {
	Session quiz.Session   `json:"session"`
	Items   []content.Item `json:"items"`
}

func (h *Handler) handleQuizStart(w http.ResponseWriter, r *http.Request, u auth.User) {
	if err := auth.RequireRole(u, auth.RoleStudent); err != nil {
		writeError(w, err)
		return
	}

	var req quizStartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, items, err := h.quiz.Start(r.Context(), u.ID, quiz.StartParams{
		Grade:      req.Grade,
		Term:       req.Term,
		Difficulty: content.Difficulty(req.Difficulty),
		Count:      req.QuestionCount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []content.Item{}
	}
	writeJSON(w, http.StatusOK, quizStartResponse{Session: sess, Items: items})
}

type quizAnswerRequest struct {
	ContentID  string `json:"content_id"`
	UserAnswer string `json:"user_answer"`
}

func (h *Handler) handleQuizAnswer(w http.ResponseWriter, r *http.Request, u auth.User) {
	if err := auth.RequireRole(u, auth.RoleStudent); err != nil {
		writeError(w, err)
		return
	}

	var req quizAnswerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.quiz.SubmitAnswer(r.Context(), u.ID, r.PathValue("sessionID"), req.ContentID, req.UserAnswer)
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidateDashboard(r.Context(), u.ID)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleQuizComplete(w http.ResponseWriter, r *http.Request, u auth.User) {
	if err := auth.RequireRole(u, auth.RoleStudent); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.quiz.Complete(r.Context(), u.ID, r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidateDashboard(r.Context(), u.ID)
	writeJSON(w, http.StatusOK, result)
}
