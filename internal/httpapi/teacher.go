package httpapi

import (
	"net/http"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/classroom"
)

type classCreateRequest struct {
	Name string `json:"class_name"`
}

func (h *Handler) handleClassCreate(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req classCreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := h.classroom.Create(r.Context(), u, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleClassList(w http.ResponseWriter, r *http.Request, u auth.User) {
	classes, err := h.classroom.List(r.Context(), u)
	if err != nil {
		writeError(w, err)
		return
	}
	if classes == nil {
		classes = []classroom.Class{}
	}
	writeJSON(w, http.StatusOK, classes)
}

type addStudentRequest struct {
	StudentEmail string `json:"student_email"`
}

func (h *Handler) handleClassAddStudent(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req addStudentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.classroom.AddStudent(r.Context(), u, r.PathValue("classID"), req.StudentEmail); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Student added"})
}

func (h *Handler) handleClassAnalytics(w http.ResponseWriter, r *http.Request, u auth.User) {
	analytics, err := h.classroom.Analytics(r.Context(), u, r.PathValue("classID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (h *Handler) handleStudentProgress(w http.ResponseWriter, r *http.Request, u auth.User) {
	report, err := h.classroom.StudentProgress(r.Context(), u, r.PathValue("studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
