package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"phrasebot/internal/curriculum"
	"phrasebot/internal/models"
	"phrasebot/internal/quiz"
)

// StatsSource aggregates recorded attempts
type StatsSource interface {
	GetStats(ctx context.Context) (models.AttemptStats, error)
	GetTopicStats(ctx context.Context) ([]models.AttemptStats, error)
	GetUserStats(ctx context.Context, userID int64) (models.AttemptStats, error)
	GetUserAttempts(ctx context.Context, userID int64, limit int) ([]models.Attempt, error)
}

// recentAttemptsLimit caps the attempts listed by UserStats
const recentAttemptsLimit = 20

// APIHandler serves the read-only status endpoints
type APIHandler struct {
	content quiz.CurriculumSource
	stats   StatsSource
	engine  *quiz.Engine
	logger  *slog.Logger
}

// NewAPIHandler creates the status API handler
func NewAPIHandler(content quiz.CurriculumSource, stats StatsSource, engine *quiz.Engine, logger *slog.Logger) *APIHandler {
	return &APIHandler{content: content, stats: stats, engine: engine, logger: logger}
}

type overview struct {
	Topics         int `json:"topics"`
	Sentences      int `json:"sentences"`
	ActiveSessions int `json:"active_sessions"`
}

type sentenceView struct {
	Index      int                     `json:"index"`
	Command    string                  `json:"command"`
	Base       string                  `json:"base"`
	Target     string                  `json:"target"`
	Vocabulary []models.VocabularyPair `json:"vocabulary"`
}

type statsView struct {
	models.AttemptStats
	Accuracy float64 `json:"accuracy"`
}

type userStatsResponse struct {
	Stats  statsView        `json:"stats"`
	Recent []models.Attempt `json:"recent"`
}

type statsResponse struct {
	Overall statsView   `json:"overall"`
	Topics  []statsView `json:"topics"`
}

// index fetches the curriculum or writes the error response
func (h *APIHandler) index(w http.ResponseWriter, r *http.Request) (*curriculum.Index, bool) {
	idx, err := h.content.Index(r.Context())
	if errors.Is(err, curriculum.ErrContentNotLoaded) {
		w.Header().Set("Retry-After", "5")
		respondWithError(w, h.logger, http.StatusServiceUnavailable, ErrCurriculumLoading, "", nil)
		return nil, false
	}
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to get curriculum", err)
		return nil, false
	}
	return idx, true
}

// Overview handles GET /
func (h *APIHandler) Overview(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.index(w, r)
	if !ok {
		return
	}

	resp := overview{Topics: idx.TopicCount(), Sentences: idx.SentenceCount()}
	if h.engine != nil {
		resp.ActiveSessions = h.engine.ActiveSessions()
	}
	respondList(w, resp.Topics, resp)
}

// Topics handles GET /topics
func (h *APIHandler) Topics(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.index(w, r)
	if !ok {
		return
	}

	summaries := idx.Summaries()
	respondList(w, len(summaries), summaries)
}

// TopicSentences handles GET /topics/{n}/sentences
func (h *APIHandler) TopicSentences(w http.ResponseWriter, r *http.Request) {
	topic, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}

	idx, ok := h.index(w, r)
	if !ok {
		return
	}

	sentences, err := idx.SentencesOf(topic)
	if err != nil {
		respondWithError(w, h.logger, http.StatusNotFound, ErrTopicNotFound, "", nil)
		return
	}

	views := make([]sentenceView, 0, len(sentences))
	for i, s := range sentences {
		views = append(views, sentenceView{
			Index:      i + 1,
			Command:    fmt.Sprintf("/%d_%d", topic, i+1),
			Base:       s.BaseText,
			Target:     s.TargetText,
			Vocabulary: s.Vocabulary,
		})
	}
	respondList(w, len(views), views)
}

// Stats handles GET /stats
func (h *APIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	overall, err := h.stats.GetStats(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to get stats", err)
		return
	}
	perTopic, err := h.stats.GetTopicStats(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to get topic stats", err)
		return
	}

	resp := statsResponse{
		Overall: statsView{AttemptStats: overall, Accuracy: overall.Accuracy()},
		Topics:  make([]statsView, 0, len(perTopic)),
	}
	for _, s := range perTopic {
		resp.Topics = append(resp.Topics, statsView{AttemptStats: s, Accuracy: s.Accuracy()})
	}
	respondList(w, len(resp.Topics), resp)
}

// UserStats handles GET /stats/users/{id}
func (h *APIHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID <= 0 {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest, "", nil)
		return
	}

	stats, err := h.stats.GetUserStats(r.Context(), userID)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to get user stats", err)
		return
	}
	recent, err := h.stats.GetUserAttempts(r.Context(), userID, recentAttemptsLimit)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to get user attempts", err)
		return
	}
	if recent == nil {
		recent = []models.Attempt{}
	}

	resp := userStatsResponse{
		Stats:  statsView{AttemptStats: stats, Accuracy: stats.Accuracy()},
		Recent: recent,
	}
	respondList(w, len(recent), resp)
}
