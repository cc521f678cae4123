package repository

import (
	"context"
	"time"

	"phrasebot/internal/database"
	"phrasebot/internal/models"
)

// TopicRepository handles topic database operations
type TopicRepository struct {
	db database.DBTX
}

// NewTopicRepository creates a new topic repository
func NewTopicRepository(db database.DBTX) *TopicRepository {
	return &TopicRepository{db: db}
}

// GetTopics retrieves every topic in curriculum order
func (r *TopicRepository) GetTopics(ctx context.Context) ([]models.Topic, error) {
	query := `
		SELECT id, title, position, created_at
		FROM topics
		ORDER BY position ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		var topic models.Topic
		if err := rows.Scan(&topic.ID, &topic.Title, &topic.Position, &topic.CreatedAt); err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}

	return topics, rows.Err()
}

// CreateTopic inserts a topic
func (r *TopicRepository) CreateTopic(ctx context.Context, title string, position int) (*models.Topic, error) {
	query := `INSERT INTO topics (title, position) VALUES (?, ?)`

	id, err := r.db.ExecReturningID(ctx, query, title, position)
	if err != nil {
		return nil, err
	}

	return &models.Topic{
		ID:        id,
		Title:     title,
		Position:  position,
		CreatedAt: time.Now(),
	}, nil
}

// Count returns the number of stored topics
func (r *TopicRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics`).Scan(&count)
	return count, err
}

// DeleteAll removes every sentence and topic
func (r *TopicRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sentences`); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM topics`)
	return err
}
