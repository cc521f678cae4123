package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"phrasebot/internal/database"
	"phrasebot/internal/models"
	"phrasebot/internal/repository"
)

// CurriculumDocument is the portable form of the curriculum, used by the
// seed file (YAML) and by backups (JSON).
type CurriculumDocument struct {
	Topics []CurriculumTopic `json:"topics" yaml:"topics" validate:"required,min=1,dive"`
}

// CurriculumTopic is a topic with its sentences in order
type CurriculumTopic struct {
	Title     string               `json:"title" yaml:"title" validate:"required"`
	Sentences []CurriculumSentence `json:"sentences" yaml:"sentences" validate:"dive"`
}

// CurriculumSentence is one sentence of a topic
type CurriculumSentence struct {
	Base       string                  `json:"base" yaml:"base" validate:"required"`
	Target     string                  `json:"target" yaml:"target" validate:"required"`
	Vocabulary []models.VocabularyPair `json:"vocabulary,omitempty" yaml:"vocabulary" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseCurriculumYAML decodes and validates a curriculum document
func ParseCurriculumYAML(data []byte) (*CurriculumDocument, error) {
	var doc CurriculumDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse curriculum: %w", err)
	}
	if err := ValidateCurriculum(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ValidateCurriculum checks a document before it is written to the store
func ValidateCurriculum(doc *CurriculumDocument) error {
	if err := validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid curriculum: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid curriculum: %w", err)
	}
	return nil
}

// writeCurriculum appends every topic and sentence of doc to the store
func writeCurriculum(ctx context.Context, db database.DBTX, doc *CurriculumDocument, firstPosition int) (topics, sentences int, err error) {
	topicRepo := repository.NewTopicRepository(db)
	sentenceRepo := repository.NewSentenceRepository(db)

	for i, t := range doc.Topics {
		topic, err := topicRepo.CreateTopic(ctx, t.Title, firstPosition+i)
		if err != nil {
			return topics, sentences, fmt.Errorf("failed to create topic %q: %w", t.Title, err)
		}
		topics++

		for j, s := range t.Sentences {
			sentence := &models.Sentence{
				TopicID:    topic.ID,
				Position:   j,
				BaseText:   s.Base,
				TargetText: s.Target,
				Vocabulary: s.Vocabulary,
			}
			if err := sentenceRepo.CreateSentence(ctx, sentence); err != nil {
				return topics, sentences, fmt.Errorf("failed to create sentence %d of %q: %w", j+1, t.Title, err)
			}
			sentences++
		}
	}
	return topics, sentences, nil
}
