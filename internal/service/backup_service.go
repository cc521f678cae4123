package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"phrasebot/internal/database"
	"phrasebot/internal/models"
	"phrasebot/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData is the complete database backup structure
type BackupData struct {
	Version      string             `json:"version"`
	ExportedAt   time.Time          `json:"exported_at"`
	DatabaseType string             `json:"database_type"`
	Curriculum   CurriculumDocument `json:"curriculum"`
	Attempts     []AttemptBackup    `json:"attempts"`
}

// AttemptBackup is an attempt record for backup
type AttemptBackup struct {
	SessionID     string    `json:"session_id"`
	UserID        int64     `json:"user_id"`
	TopicNumber   int       `json:"topic_number"`
	SentenceIndex int       `json:"sentence_index"`
	AnswerText    string    `json:"answer_text"`
	IsCorrect     bool      `json:"is_correct"`
	AttemptedAt   time.Time `json:"attempted_at"`
}

// ImportResult counts what an import wrote
type ImportResult struct {
	Topics    int
	Sentences int
	Attempts  int
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db     *database.DB
	logger *slog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *slog.Logger) *BackupService {
	return &BackupService{db: db, logger: logger}
}

// Export writes a backup of the curriculum and attempts to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.Name(),
	}

	if err := s.exportCurriculum(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export curriculum: %w", err)
	}
	if err := s.exportAttempts(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export attempts: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("database exported",
		slog.Int("topics", len(backup.Curriculum.Topics)),
		slog.Int("attempts", len(backup.Attempts)))
	return backup, nil
}

// ExportFile writes a backup to a file
func (s *BackupService) ExportFile(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if _, err := s.Export(ctx, file); err != nil {
		return err
	}
	return file.Sync()
}

// Import restores a backup read from r. With clear set, existing rows are
// removed first; otherwise imported topics are appended after the current
// ones. Everything runs in one transaction.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) (ImportResult, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return ImportResult{}, fmt.Errorf("failed to decode backup: %w", err)
	}
	if err := ValidateCurriculum(&backup.Curriculum); err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("importing backup",
		slog.String("version", backup.Version),
		slog.Time("exported_at", backup.ExportedAt),
		slog.Bool("clear", clear))

	var result ImportResult
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if clear {
			if err := clearTables(ctx, tx); err != nil {
				return err
			}
		}

		first, err := repository.NewTopicRepository(tx).Count(ctx)
		if err != nil {
			return err
		}
		result.Topics, result.Sentences, err = writeCurriculum(ctx, tx, &backup.Curriculum, first)
		if err != nil {
			return err
		}

		attempts := repository.NewAttemptRepository(tx)
		for _, a := range backup.Attempts {
			attempt := &models.Attempt{
				SessionID:     a.SessionID,
				UserID:        a.UserID,
				TopicNumber:   a.TopicNumber,
				SentenceIndex: a.SentenceIndex,
				AnswerText:    a.AnswerText,
				IsCorrect:     a.IsCorrect,
			}
			if err := attempts.RecordAttempt(ctx, attempt); err != nil {
				return fmt.Errorf("failed to import attempt: %w", err)
			}
			result.Attempts++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("database import completed",
		slog.Int("topics", result.Topics),
		slog.Int("sentences", result.Sentences),
		slog.Int("attempts", result.Attempts))
	return result, nil
}

// ImportFile restores a backup from a file
func (s *BackupService) ImportFile(ctx context.Context, inputPath string, clear bool) (ImportResult, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.Import(ctx, file, clear)
}

func clearTables(ctx context.Context, tx *database.Tx) error {
	// children first so foreign keys hold on every backend
	for _, table := range []string{"attempts", "sentences", "topics"} {
		if _, err := tx.ExecContext(ctx, tx.GetDialect().ClearTableQuery(table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *BackupService) exportCurriculum(ctx context.Context, backup *BackupData) error {
	topics, err := repository.NewTopicRepository(s.db).GetTopics(ctx)
	if err != nil {
		return err
	}
	sentences, err := repository.NewSentenceRepository(s.db).GetAllSentences(ctx)
	if err != nil {
		return err
	}

	byTopic := make(map[int64][]CurriculumSentence, len(topics))
	for _, sentence := range sentences {
		byTopic[sentence.TopicID] = append(byTopic[sentence.TopicID], CurriculumSentence{
			Base:       sentence.BaseText,
			Target:     sentence.TargetText,
			Vocabulary: sentence.Vocabulary,
		})
	}

	backup.Curriculum.Topics = make([]CurriculumTopic, 0, len(topics))
	for _, topic := range topics {
		backup.Curriculum.Topics = append(backup.Curriculum.Topics, CurriculumTopic{
			Title:     topic.Title,
			Sentences: byTopic[topic.ID],
		})
	}
	return nil
}

func (s *BackupService) exportAttempts(ctx context.Context, backup *BackupData) error {
	query := `
		SELECT session_id, user_id, topic_number, sentence_index, answer_text, is_correct, attempted_at
		FROM attempts
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a AttemptBackup
		if err := rows.Scan(&a.SessionID, &a.UserID, &a.TopicNumber, &a.SentenceIndex,
			&a.AnswerText, &a.IsCorrect, &a.AttemptedAt); err != nil {
			return err
		}
		backup.Attempts = append(backup.Attempts, a)
	}
	return rows.Err()
}
