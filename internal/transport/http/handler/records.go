package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/token-check-api/internal/application/checker"
)

// RecordHandler serves the saved verified-token records.
type RecordHandler struct {
	svc checker.Service
}

func NewRecordHandler(svc checker.Service) *RecordHandler { return &RecordHandler{svc: svc} }

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.ListSaved(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error while retrieving saved tokens")
		return
	}
	writeJSON(w, http.StatusOK, SavedTokensEnvelope{Tokens: recs, Count: len(recs)})
}

func (h *RecordHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.ListSavedByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error while retrieving user tokens")
		return
	}
	writeJSON(w, http.StatusOK, SavedTokensEnvelope{Tokens: recs, Count: len(recs)})
}
