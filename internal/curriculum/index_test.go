package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phrasebot/internal/models"
)

// fixture builds topics with the given sentence counts, ids 10, 20, 30...
func fixture(counts ...int) *Index {
	var topics []models.Topic
	var sentences []models.Sentence
	for i, n := range counts {
		id := int64((i + 1) * 10)
		topics = append(topics, models.Topic{ID: id, Title: "Topic"})
		// insert in reverse to check ordering by Position
		for p := n - 1; p >= 0; p-- {
			sentences = append(sentences, models.Sentence{TopicID: id, Position: p, TargetText: "s"})
		}
	}
	idx, _ := Build(topics, sentences)
	return idx
}

func TestBuild(t *testing.T) {
	topics := []models.Topic{{ID: 7, Title: "Greetings"}, {ID: 3, Title: "Questions"}}
	sentences := []models.Sentence{
		{TopicID: 3, Position: 2, TargetText: "c"},
		{TopicID: 3, Position: 1, TargetText: "b"},
		{TopicID: 7, Position: 0, TargetText: "a"},
		{TopicID: 99, Position: 0, TargetText: "orphan"},
	}

	idx, orphans := Build(topics, sentences)

	assert.Equal(t, 1, orphans)
	assert.Equal(t, 2, idx.TopicCount())
	assert.Equal(t, 3, idx.SentenceCount())

	title, err := idx.TopicTitle(2)
	require.NoError(t, err)
	assert.Equal(t, "Questions", title)
	summaries := idx.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries[1].Number)
	assert.Equal(t, 2, summaries[1].Sentences)

	got, err := idx.SentencesOf(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].TargetText)
	assert.Equal(t, "c", got[1].TargetText)
}

func TestTopicLookupErrors(t *testing.T) {
	idx := fixture(3, 0)

	_, err := idx.TopicTitle(0)
	assert.ErrorIs(t, err, ErrInvalidTopic)

	_, err = idx.SentencesOf(3)
	assert.ErrorIs(t, err, ErrInvalidTopic)

	_, err = idx.Sentence(2, 0)
	assert.ErrorIs(t, err, ErrEmptyTopic)

	_, err = idx.Sentence(1, 3)
	assert.ErrorIs(t, err, ErrInvalidSentenceIndex)

	_, err = idx.Sentence(1, -1)
	assert.ErrorIs(t, err, ErrInvalidSentenceIndex)
}

func TestNextPosition(t *testing.T) {
	idx := fixture(3, 3, 3)

	tests := []struct {
		name     string
		topic    int
		sentence int
		want     Position
	}{
		{name: "first to second", topic: 2, sentence: 0, want: Position{Topic: 2, Sentence: 1}},
		{name: "second to third", topic: 2, sentence: 1, want: Position{Topic: 2, Sentence: 2}},
		{name: "last of middle topic advances", topic: 2, sentence: 2, want: Position{Topic: 3, Sentence: 0}},
		{name: "last of last topic wraps", topic: 3, sentence: 2, want: Position{Topic: 1, Sentence: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.NextPosition(tt.topic, tt.sentence)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextPositionWhenTopicTwoIsLast(t *testing.T) {
	idx := fixture(3, 3)

	got, err := idx.NextPosition(2, 2)
	require.NoError(t, err)
	assert.Equal(t, Position{Topic: 1, Sentence: 0}, got)
}

func TestNextNonEmpty(t *testing.T) {
	t.Run("skips empty topics", func(t *testing.T) {
		idx := fixture(1, 0, 0, 2)
		got, err := idx.NextNonEmpty(1, 0)
		require.NoError(t, err)
		assert.Equal(t, Position{Topic: 4, Sentence: 0}, got)
	})

	t.Run("wraps over empty first topic", func(t *testing.T) {
		idx := fixture(0, 2)
		got, err := idx.NextNonEmpty(2, 1)
		require.NoError(t, err)
		assert.Equal(t, Position{Topic: 2, Sentence: 0}, got)
	})

	t.Run("all empty", func(t *testing.T) {
		idx := fixture(0, 0)
		_, err := idx.NextNonEmpty(1, 0)
		assert.ErrorIs(t, err, ErrEmptyTopic)
	})
}

func TestSummaries(t *testing.T) {
	idx := fixture(2, 0)

	got := idx.Summaries()
	require.Len(t, got, 2)
	assert.Equal(t, models.TopicSummary{Number: 1, Title: "Topic", Sentences: 2}, got[0])
	assert.Equal(t, 0, got[1].Sentences)
}
