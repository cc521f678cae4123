package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"phrasebot/internal/security"
)

// RequestLogger logs HTTP requests with their request id, status and latency
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("latency", time.Since(start)))
		})
	}
}

// RequireAdmin guards a route with an admin bearer token
func RequireAdmin(auth *security.AdminAuth, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Enabled() {
				respondWithError(w, logger, http.StatusServiceUnavailable, ErrAdminNotConfigured, "", nil)
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || auth.VerifyToken(strings.TrimSpace(token)) != nil {
				respondWithError(w, logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverUpdates keeps a panicking update handler from taking the bot down
func RecoverUpdates(logger *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("panic in update handler",
						slog.Int64("update_id", update.ID),
						slog.Any("panic", p),
						slog.String("stack", string(debug.Stack())))
				}
			}()
			next(ctx, b, update)
		}
	}
}
