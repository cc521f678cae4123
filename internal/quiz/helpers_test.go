package quiz

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"phrasebot/internal/curriculum"
	"phrasebot/internal/logging"
	"phrasebot/internal/models"
)

type staticSource struct {
	idx *curriculum.Index
	err error
}

func (s staticSource) Index(context.Context) (*curriculum.Index, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.idx, nil
}

type recordedAttempts struct {
	mu       sync.Mutex
	attempts []models.Attempt
}

func (r *recordedAttempts) RecordAttempt(_ context.Context, a *models.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, *a)
	return nil
}

// buildIndex creates topics whose sentences have the given targets
func buildIndex(topics ...[]string) *curriculum.Index {
	var ts []models.Topic
	var ss []models.Sentence
	for i, targets := range topics {
		id := int64(i + 1)
		ts = append(ts, models.Topic{ID: id, Title: fmt.Sprintf("Topic %d", i+1)})
		for p, target := range targets {
			ss = append(ss, models.Sentence{
				TopicID:    id,
				Position:   p,
				BaseText:   "Я вижу [кошку|cat].",
				TargetText: target,
			})
		}
	}
	idx, _ := curriculum.Build(ts, ss)
	return idx
}

func noShuffle([]string) {}

func newTestEngine(idx *curriculum.Index, opts Options, extra ...Option) *Engine {
	options := append([]Option{WithShuffle(noShuffle)}, extra...)
	return NewEngine(NewSessionStore(), staticSource{idx: idx}, logging.Discard(), opts, options...)
}

// pickWord picks the first bank occurrence of word
func pickWord(t *testing.T, e *Engine, userID int64, word string) []RenderInstruction {
	t.Helper()
	s, ok := e.Session(userID)
	require.True(t, ok, "no session for user %d", userID)
	for i, w := range s.RemainingBank {
		if w == word {
			out, err := e.Pick(context.Background(), userID, i)
			require.NoError(t, err)
			return out
		}
	}
	t.Fatalf("word %q not in bank %v", word, s.RemainingBank)
	return nil
}

func intPtr(v int) *int { return &v }
