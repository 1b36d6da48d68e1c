package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"microcap-trading/config"
	"microcap-trading/internal/model"
	"microcap-trading/pkg/logger"

	"gorm.io/gorm"
)

// ResponseLogRepository appends one record per automation run. Records are never
// updated or deleted.
type ResponseLogRepository interface {
	Append(ctx context.Context, entry *model.LLMResponseLog) error
	Location() string
}

// NewResponseLogRepository always writes the JSONL file and, when db is set, mirrors
// every record into the llm_responses table.
func NewResponseLogRepository(cfg *config.Config, db *gorm.DB, log *logger.Logger) ResponseLogRepository {
	file := NewJSONLResponseLog(filepath.Join(cfg.Portfolio.DataDir, cfg.Portfolio.ResponseLogFile))
	if db == nil {
		return file
	}
	return &multiResponseLog{
		primary:   file,
		secondary: []ResponseLogRepository{NewDBResponseLog(db)},
		logger:    log,
	}
}

type jsonlResponseLog struct {
	path string
	mu   sync.Mutex
}

func NewJSONLResponseLog(path string) ResponseLogRepository {
	return &jsonlResponseLog{path: path}
}

func (r *jsonlResponseLog) Location() string {
	return r.path
}

func (r *jsonlResponseLog) Append(ctx context.Context, entry *model.LLMResponseLog) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode response log entry: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create response log dir: %w", err)
	}
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open response log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to append response log: %w", err)
	}
	return f.Close()
}

type dbResponseLog struct {
	db *gorm.DB
}

func NewDBResponseLog(db *gorm.DB) ResponseLogRepository {
	return &dbResponseLog{db: db}
}

func (r *dbResponseLog) Location() string {
	return model.LLMResponseLog{}.TableName()
}

func (r *dbResponseLog) Append(ctx context.Context, entry *model.LLMResponseLog) error {
	// copy so the caller's entry keeps a zero ID
	row := *entry
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert response log: %w", err)
	}
	return nil
}

// multiResponseLog fails only when the primary sink fails; secondary failures are logged.
type multiResponseLog struct {
	primary   ResponseLogRepository
	secondary []ResponseLogRepository
	logger    *logger.Logger
}

func (r *multiResponseLog) Location() string {
	return r.primary.Location()
}

func (r *multiResponseLog) Append(ctx context.Context, entry *model.LLMResponseLog) error {
	if err := r.primary.Append(ctx, entry); err != nil {
		return err
	}
	for _, s := range r.secondary {
		if err := s.Append(ctx, entry); err != nil {
			r.logger.WarnContext(ctx, "Secondary response log sink failed",
				logger.StringField("sink", s.Location()),
				logger.ErrorField(err))
		}
	}
	return nil
}
