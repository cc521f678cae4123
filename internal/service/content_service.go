package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"phrasebot/internal/curriculum"
	"phrasebot/internal/models"
)

// CurriculumStore reads the stored curriculum
type CurriculumStore interface {
	GetTopics(ctx context.Context) ([]models.Topic, error)
	GetAllSentences(ctx context.Context) ([]models.Sentence, error)
}

// LoadCallback receives the outcome of a background load
type LoadCallback func(idx *curriculum.Index, err error)

// ContentService owns the in-memory curriculum index. The index is loaded
// from the store once in the background; until then Index reports
// curriculum.ErrContentNotLoaded and kicks off a load if none is running.
type ContentService struct {
	store   CurriculumStore
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	idx     *curriculum.Index
	loading bool
	waiters []LoadCallback
}

// NewContentService creates a content service over a store
func NewContentService(store CurriculumStore, logger *slog.Logger) *ContentService {
	return &ContentService{
		store:   store,
		logger:  logger,
		timeout: 2 * time.Minute,
	}
}

// Index returns the loaded curriculum. While it is missing a background load
// is started and curriculum.ErrContentNotLoaded is returned.
func (s *ContentService) Index(ctx context.Context) (*curriculum.Index, error) {
	s.mu.Lock()
	idx := s.idx
	s.mu.Unlock()

	if idx != nil {
		return idx, nil
	}
	s.LoadAsync(nil)
	return nil, curriculum.ErrContentNotLoaded
}

// Loaded reports whether an index is available
func (s *ContentService) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx != nil
}

// LoadAsync calls done once a curriculum is available. If one is loaded
// already, done runs right away; otherwise it waits for the running load,
// starting one if needed. done may be nil.
func (s *ContentService) LoadAsync(done LoadCallback) {
	s.mu.Lock()
	if s.idx != nil {
		idx := s.idx
		s.mu.Unlock()
		if done != nil {
			done(idx, nil)
		}
		return
	}

	if done != nil {
		s.waiters = append(s.waiters, done)
	}
	if s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_, _ = s.load(ctx)
	}()
}

// Load reads the curriculum synchronously and replaces the current index.
// It is used at startup and by the admin reload.
func (s *ContentService) Load(ctx context.Context) (*curriculum.Index, error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	return s.load(ctx)
}

func (s *ContentService) load(ctx context.Context) (*curriculum.Index, error) {
	start := time.Now()
	idx, err := s.build(ctx)

	s.mu.Lock()
	if err == nil {
		s.idx = idx
	}
	s.loading = false
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("failed to load curriculum", slog.Any("error", err))
	} else {
		s.logger.Info("curriculum loaded",
			slog.Int("topics", idx.TopicCount()),
			slog.Int("sentences", idx.SentenceCount()),
			slog.Duration("took", time.Since(start)))
	}

	for _, done := range waiters {
		done(idx, err)
	}
	return idx, err
}

func (s *ContentService) build(ctx context.Context) (*curriculum.Index, error) {
	topics, err := s.store.GetTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}
	sentences, err := s.store.GetAllSentences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentences: %w", err)
	}

	idx, orphans := curriculum.Build(topics, sentences)
	if orphans > 0 {
		s.logger.Warn("sentences reference missing topics", slog.Int("count", orphans))
	}
	return idx, nil
}
