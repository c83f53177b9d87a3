package httpapi

import (
	"fmt"
	"net/http"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/content"
	"github.com/revisehub/revisehub/internal/platform/errs"
)

// handleContentUpload bulk-imports items from a multipart file upload.
// CSV, XLSX and JSON are accepted; the format is picked by extension.
func (h *Handler) handleContentUpload(w http.ResponseWriter, r *http.Request, u auth.User) {
	if err := auth.RequireRole(u, auth.RoleTeacher); err != nil {
		writeError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: file field is required", errs.ErrInvalidInput))
		return
	}
	defer file.Close()

	result, err := h.importer.Import(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleContentList(w http.ResponseWriter, r *http.Request, _ auth.User) {
	q := r.URL.Query()
	f := content.Filter{
		Grade:      q.Get("grade"),
		Term:       q.Get("term"),
		Topic:      q.Get("topic"),
		Difficulty: content.Difficulty(q.Get("difficulty")),
	}

	items, err := h.content.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []content.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleContentGet(w http.ResponseWriter, r *http.Request, _ auth.User) {
	item, err := h.content.Get(r.Context(), r.PathValue("contentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
