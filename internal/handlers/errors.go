package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// ErrRenderTargetStale means the message an instruction targets can no
// longer be edited, so a fresh message has to be sent instead.
var ErrRenderTargetStale = errors.New("render target is no longer editable")

type errorResponse struct {
	Error string `json:"error"`
}

// listResponse is the envelope every status endpoint returns
type listResponse struct {
	Len      int `json:"len"`
	Response any `json:"response"`
}

func respondWithError(w http.ResponseWriter, logger *slog.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger.Error(logMsg, slog.Int("status", status), slog.Any("error", err))
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func respondList(w http.ResponseWriter, n int, v any) {
	respondJSON(w, http.StatusOK, listResponse{Len: n, Response: v})
}
