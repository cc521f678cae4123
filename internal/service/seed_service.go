package service

import (
	"context"
	_ "embed"
	"log/slog"

	"phrasebot/internal/database"
	"phrasebot/internal/repository"
)

//go:embed seed/curriculum.yaml
var defaultCurriculum []byte

// SeedService fills an empty store with the bundled curriculum
type SeedService struct {
	db     *database.DB
	logger *slog.Logger
	data   []byte
}

// NewSeedService creates a seeder for the bundled curriculum
func NewSeedService(db *database.DB, logger *slog.Logger) *SeedService {
	return &SeedService{db: db, logger: logger, data: defaultCurriculum}
}

// SeedIfEmpty writes the curriculum when no topic exists yet. It reports
// whether anything was written.
func (s *SeedService) SeedIfEmpty(ctx context.Context) (bool, error) {
	count, err := repository.NewTopicRepository(s.db).Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		s.logger.Debug("curriculum present, skipping seed", slog.Int("topics", count))
		return false, nil
	}

	doc, err := ParseCurriculumYAML(s.data)
	if err != nil {
		return false, err
	}

	var topics, sentences int
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		topics, sentences, err = writeCurriculum(ctx, tx, doc, 0)
		return err
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("seeded curriculum", slog.Int("topics", topics), slog.Int("sentences", sentences))
	return true, nil
}
