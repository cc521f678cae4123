package service

import (
	"context"

	"phrasebot/internal/database"
	"phrasebot/internal/models"
	"phrasebot/internal/repository"
)

// RepositoryStore reads the curriculum through the SQL repositories
type RepositoryStore struct {
	topics    *repository.TopicRepository
	sentences *repository.SentenceRepository
}

// NewRepositoryStore creates a curriculum store on a database
func NewRepositoryStore(db database.DBTX) *RepositoryStore {
	return &RepositoryStore{
		topics:    repository.NewTopicRepository(db),
		sentences: repository.NewSentenceRepository(db),
	}
}

func (s *RepositoryStore) GetTopics(ctx context.Context) ([]models.Topic, error) {
	return s.topics.GetTopics(ctx)
}

func (s *RepositoryStore) GetAllSentences(ctx context.Context) ([]models.Sentence, error) {
	return s.sentences.GetAllSentences(ctx)
}
