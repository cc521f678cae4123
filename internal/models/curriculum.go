package models

import "time"

// Topic is a named group of sentences (a lesson)
type Topic struct {
	ID        int64
	Number    int // 1-based ordinal in store order, assigned when the index is built
	Title     string
	Position  int
	CreatedAt time.Time
}

// Sentence is one bilingual exercise unit
type Sentence struct {
	ID         int64
	TopicID    int64
	Position   int
	BaseText   string // may embed [base|target] gloss markup
	TargetText string
	Vocabulary []VocabularyPair
	CreatedAt  time.Time
}

// VocabularyPair is a display-only gloss shown above the sentence
type VocabularyPair struct {
	Base   string `json:"base" yaml:"base" validate:"required"`
	Target string `json:"target" yaml:"target" validate:"required"`
}

// TopicSummary is what the status API and the contents message list
type TopicSummary struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Sentences int    `json:"sentences"`
}
