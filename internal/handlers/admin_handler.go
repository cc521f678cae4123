package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"phrasebot/internal/curriculum"
	"phrasebot/internal/security"
)

// Reloader reloads the curriculum from the store
type Reloader interface {
	Load(ctx context.Context) (*curriculum.Index, error)
}

// AdminHandler serves the maintenance endpoints
type AdminHandler struct {
	auth     *security.AdminAuth
	reloader Reloader
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(auth *security.AdminAuth, reloader Reloader, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{auth: auth, reloader: reloader, logger: logger}
}

type tokenRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken handles POST /admin/token
func (h *AdminHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}

	token, expires, err := h.auth.IssueToken(req.Password)
	switch {
	case errors.Is(err, security.ErrAdminDisabled):
		respondWithError(w, h.logger, http.StatusServiceUnavailable, ErrAdminNotConfigured, "", nil)
		return
	case errors.Is(err, security.ErrInvalidCredentials):
		h.logger.Warn("admin login failed", slog.String("remote", r.RemoteAddr))
		respondWithError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	case err != nil:
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to issue admin token", err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires})
}

// Reload handles POST /admin/reload
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	idx, err := h.reloader.Load(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to reload curriculum", err)
		return
	}

	h.logger.Info("curriculum reloaded by admin",
		slog.Int("topics", idx.TopicCount()),
		slog.Int("sentences", idx.SentenceCount()))
	respondList(w, idx.TopicCount(), overview{Topics: idx.TopicCount(), Sentences: idx.SentenceCount()})
}
