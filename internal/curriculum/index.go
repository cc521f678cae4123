// Package curriculum indexes topics and their sentences for constant-time
// navigation by the quiz engine.
package curriculum

import (
	"errors"
	"sort"

	"phrasebot/internal/models"
)

var (
	ErrContentNotLoaded     = errors.New("curriculum not loaded")
	ErrInvalidTopic         = errors.New("invalid topic")
	ErrInvalidSentenceIndex = errors.New("invalid sentence index")
	ErrEmptyTopic           = errors.New("topic has no sentences")
)

// Position addresses one sentence: a 1-based topic number and a 0-based index
type Position struct {
	Topic    int
	Sentence int
}

type topicEntry struct {
	topic     models.Topic
	sentences []models.Sentence
}

// Index is an immutable view of the curriculum. It is safe for concurrent use.
type Index struct {
	topics    []topicEntry
	sentences int
}

// Build groups sentences under their topics. Topics keep the given order and
// are numbered from 1; sentences are ordered by Position within a topic.
// The second return value counts sentences whose topic was not found.
func Build(topics []models.Topic, sentences []models.Sentence) (*Index, int) {
	idx := &Index{topics: make([]topicEntry, len(topics))}
	byID := make(map[int64]int, len(topics))

	for i, t := range topics {
		t.Number = i + 1
		idx.topics[i] = topicEntry{topic: t}
		byID[t.ID] = i
	}

	orphans := 0
	for _, s := range sentences {
		i, ok := byID[s.TopicID]
		if !ok {
			orphans++
			continue
		}
		idx.topics[i].sentences = append(idx.topics[i].sentences, s)
		idx.sentences++
	}

	for i := range idx.topics {
		sort.SliceStable(idx.topics[i].sentences, func(a, b int) bool {
			return idx.topics[i].sentences[a].Position < idx.topics[i].sentences[b].Position
		})
	}

	return idx, orphans
}

// TopicCount returns the number of topics
func (x *Index) TopicCount() int {
	return len(x.topics)
}

// SentenceCount returns the number of sentences across all topics
func (x *Index) SentenceCount() int {
	return x.sentences
}

func (x *Index) entry(topic int) (*topicEntry, error) {
	if topic < 1 || topic > len(x.topics) {
		return nil, ErrInvalidTopic
	}
	return &x.topics[topic-1], nil
}

// TopicTitle returns the display title of a topic
func (x *Index) TopicTitle(topic int) (string, error) {
	e, err := x.entry(topic)
	if err != nil {
		return "", err
	}
	return e.topic.Title, nil
}

// SentencesOf returns the ordered sentences of a topic. The slice is shared;
// callers must not modify it.
func (x *Index) SentencesOf(topic int) ([]models.Sentence, error) {
	e, err := x.entry(topic)
	if err != nil {
		return nil, err
	}
	return e.sentences, nil
}

// Sentence returns one sentence by position
func (x *Index) Sentence(topic, sentence int) (models.Sentence, error) {
	sentences, err := x.SentencesOf(topic)
	if err != nil {
		return models.Sentence{}, err
	}
	if len(sentences) == 0 {
		return models.Sentence{}, ErrEmptyTopic
	}
	if sentence < 0 || sentence >= len(sentences) {
		return models.Sentence{}, ErrInvalidSentenceIndex
	}
	return sentences[sentence], nil
}

// NextPosition advances one sentence, moving to the next topic after the
// last sentence and wrapping from the last topic back to (1, 0).
func (x *Index) NextPosition(topic, sentence int) (Position, error) {
	sentences, err := x.SentencesOf(topic)
	if err != nil {
		return Position{}, err
	}
	if sentence+1 < len(sentences) {
		return Position{Topic: topic, Sentence: sentence + 1}, nil
	}
	if topic == x.TopicCount() {
		return Position{Topic: 1, Sentence: 0}, nil
	}
	return Position{Topic: topic + 1, Sentence: 0}, nil
}

// NextNonEmpty is NextPosition that skips topics without sentences.
func (x *Index) NextNonEmpty(topic, sentence int) (Position, error) {
	pos, err := x.NextPosition(topic, sentence)
	if err != nil {
		return Position{}, err
	}
	for i, n := 0, x.TopicCount(); i < n; i++ {
		if len(x.topics[pos.Topic-1].sentences) > 0 {
			return pos, nil
		}
		pos, _ = x.NextPosition(pos.Topic, 0)
	}
	return Position{}, ErrEmptyTopic
}

// Summaries lists every topic with its sentence count
func (x *Index) Summaries() []models.TopicSummary {
	out := make([]models.TopicSummary, len(x.topics))
	for i, e := range x.topics {
		out[i] = models.TopicSummary{
			Number:    e.topic.Number,
			Title:     e.topic.Title,
			Sentences: len(e.sentences),
		}
	}
	return out
}
