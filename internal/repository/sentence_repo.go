package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"phrasebot/internal/database"
	"phrasebot/internal/models"
)

// SentenceRepository handles sentence database operations
type SentenceRepository struct {
	db database.DBTX
}

// NewSentenceRepository creates a new sentence repository
func NewSentenceRepository(db database.DBTX) *SentenceRepository {
	return &SentenceRepository{db: db}
}

const sentenceColumns = `id, topic_id, position, base_text, target_text, vocabulary, created_at`

// GetAllSentences retrieves every sentence grouped by topic and ordered by position
func (r *SentenceRepository) GetAllSentences(ctx context.Context) ([]models.Sentence, error) {
	query := `SELECT ` + sentenceColumns + `
		FROM sentences
		ORDER BY topic_id ASC, position ASC, id ASC
	`
	return r.list(ctx, query)
}

// GetSentences retrieves the sentences of one topic in order
func (r *SentenceRepository) GetSentences(ctx context.Context, topicID int64) ([]models.Sentence, error) {
	query := `SELECT ` + sentenceColumns + `
		FROM sentences
		WHERE topic_id = ?
		ORDER BY position ASC, id ASC
	`
	return r.list(ctx, query, topicID)
}

func (r *SentenceRepository) list(ctx context.Context, query string, args ...any) ([]models.Sentence, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sentences []models.Sentence
	for rows.Next() {
		var (
			sentence   models.Sentence
			vocabulary string
		)
		err := rows.Scan(
			&sentence.ID,
			&sentence.TopicID,
			&sentence.Position,
			&sentence.BaseText,
			&sentence.TargetText,
			&vocabulary,
			&sentence.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vocabulary), &sentence.Vocabulary); err != nil {
			return nil, fmt.Errorf("sentence %d has invalid vocabulary: %w", sentence.ID, err)
		}
		sentences = append(sentences, sentence)
	}

	return sentences, rows.Err()
}

// CreateSentence inserts a sentence and fills in its ID
func (r *SentenceRepository) CreateSentence(ctx context.Context, sentence *models.Sentence) error {
	vocabulary := sentence.Vocabulary
	if vocabulary == nil {
		vocabulary = []models.VocabularyPair{}
	}
	encoded, err := json.Marshal(vocabulary)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sentences (topic_id, position, base_text, target_text, vocabulary)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		sentence.TopicID, sentence.Position, sentence.BaseText, sentence.TargetText, string(encoded))
	if err != nil {
		return err
	}

	sentence.ID = id
	sentence.CreatedAt = time.Now()
	return nil
}

// Count returns the number of stored sentences
func (r *SentenceRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sentences`).Scan(&count)
	return count, err
}
