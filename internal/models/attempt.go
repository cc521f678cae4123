package models

import "time"

// Attempt records one graded answer
type Attempt struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	UserID        int64     `json:"user_id"`
	TopicNumber   int       `json:"topic_number"`
	SentenceIndex int       `json:"sentence_index"`
	AnswerText    string    `json:"answer_text"`
	IsCorrect     bool      `json:"is_correct"`
	AttemptedAt   time.Time `json:"attempted_at"`
}

// AttemptStats aggregates attempts, globally or per topic
type AttemptStats struct {
	TopicNumber int `json:"topic_number,omitempty"`
	Total       int `json:"total"`
	Correct     int `json:"correct"`
	Users       int `json:"users"`
}

// Accuracy returns the percentage of correct attempts
func (s AttemptStats) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) * 100 / float64(s.Total)
}
