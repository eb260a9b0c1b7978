package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/token-check-api/internal/application/checker"
	"github.com/token-check-api/internal/domain"
	"github.com/token-check-api/internal/pkg/validate"
)

// TokenHandler handles the check endpoints.
type TokenHandler struct {
	svc checker.Service
}

func NewTokenHandler(svc checker.Service) *TokenHandler { return &TokenHandler{svc: svc} }

// CheckOne verifies a single token. Both valid and invalid tokens answer 200;
// validity travels in the body so single and bulk callers behave uniformly.
func (h *TokenHandler) CheckOne(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.CheckOne(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrBadRequest) {
			writeError(w, http.StatusBadRequest,
				"Invalid token format. Token must be at least 50 characters and contain a period (.)")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error while checking token")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CheckMany verifies a newline-delimited blob of tokens.
func (h *TokenHandler) CheckMany(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid input format, expected a string of tokens")
		return
	}
	result, err := h.svc.CheckMany(r.Context(), req.Tokens)
	if err != nil {
		if errors.Is(err, domain.ErrBadRequest) {
			writeError(w, http.StatusBadRequest,
				"No valid tokens provided. Please enter at least one token.")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error while checking tokens")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
