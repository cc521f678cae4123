package repository

import (
	"context"
	"time"

	"phrasebot/internal/database"
	"phrasebot/internal/models"
)

// AttemptRepository handles graded answer database operations
type AttemptRepository struct {
	db database.DBTX
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db database.DBTX) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// RecordAttempt stores a graded answer and fills in its ID
func (r *AttemptRepository) RecordAttempt(ctx context.Context, attempt *models.Attempt) error {
	query := `
		INSERT INTO attempts (session_id, user_id, topic_number, sentence_index, answer_text, is_correct)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(ctx, query,
		attempt.SessionID,
		attempt.UserID,
		attempt.TopicNumber,
		attempt.SentenceIndex,
		attempt.AnswerText,
		attempt.IsCorrect,
	)
	if err != nil {
		return err
	}

	attempt.ID = id
	attempt.AttemptedAt = time.Now()
	return nil
}

const statsColumns = `
	COUNT(*),
	COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0),
	COUNT(DISTINCT user_id)
`

// GetStats aggregates every attempt
func (r *AttemptRepository) GetStats(ctx context.Context) (models.AttemptStats, error) {
	var stats models.AttemptStats
	err := r.db.QueryRowContext(ctx, `SELECT `+statsColumns+` FROM attempts`).
		Scan(&stats.Total, &stats.Correct, &stats.Users)
	return stats, err
}

// GetUserStats aggregates the attempts of one user
func (r *AttemptRepository) GetUserStats(ctx context.Context, userID int64) (models.AttemptStats, error) {
	var stats models.AttemptStats
	err := r.db.QueryRowContext(ctx, `SELECT `+statsColumns+` FROM attempts WHERE user_id = ?`, userID).
		Scan(&stats.Total, &stats.Correct, &stats.Users)
	return stats, err
}

// GetTopicStats aggregates attempts per topic number
func (r *AttemptRepository) GetTopicStats(ctx context.Context) ([]models.AttemptStats, error) {
	query := `SELECT topic_number, ` + statsColumns + `
		FROM attempts
		GROUP BY topic_number
		ORDER BY topic_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.AttemptStats
	for rows.Next() {
		var s models.AttemptStats
		if err := rows.Scan(&s.TopicNumber, &s.Total, &s.Correct, &s.Users); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetUserAttempts retrieves the most recent attempts of a user
func (r *AttemptRepository) GetUserAttempts(ctx context.Context, userID int64, limit int) ([]models.Attempt, error) {
	query := `
		SELECT id, session_id, user_id, topic_number, sentence_index, answer_text, is_correct, attempted_at
		FROM attempts
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []models.Attempt
	for rows.Next() {
		var a models.Attempt
		err := rows.Scan(
			&a.ID,
			&a.SessionID,
			&a.UserID,
			&a.TopicNumber,
			&a.SentenceIndex,
			&a.AnswerText,
			&a.IsCorrect,
			&a.AttemptedAt,
		)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}
