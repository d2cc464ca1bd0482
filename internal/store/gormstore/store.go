// Package gormstore keeps diary entries in SQLite through GORM and the
// pure-Go glebarez driver, for builds without cgo.
package gormstore

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pbaille/schemadiary/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type entryRow struct {
	ID            string    `gorm:"primaryKey"`
	Date          time.Time `gorm:"not null;index:idx_entries_date"`
	Title         string    `gorm:"not null;default:''"`
	SchemaMode    string    `gorm:"not null;index:idx_entries_schema_mode"`
	WasNeedMet    *bool
	ContentFields []byte
}

func (entryRow) TableName() string {
	return "entries"
}

func toRow(e *domain.Entry) entryRow {
	return entryRow{
		ID:            e.ID,
		Date:          e.Date,
		Title:         e.Title,
		SchemaMode:    e.SchemaMode,
		WasNeedMet:    e.WasNeedMet,
		ContentFields: e.ContentFields,
	}
}

func (r entryRow) entry() domain.Entry {
	return domain.Entry{
		ID:            r.ID,
		Date:          r.Date,
		Title:         r.Title,
		SchemaMode:    r.SchemaMode,
		WasNeedMet:    r.WasNeedMet,
		ContentFields: r.ContentFields,
	}
}

type Store struct {
	database *gorm.DB
}

// Open creates the database file if needed and migrates the entries table.
// log receives GORM's slow query and error output; nil silences it.
func Open(dbPath string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)", dbPath)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(
			zap.NewStdLog(log.Named("gorm")),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := database.AutoMigrate(&entryRow{}); err != nil {
		return nil, fmt.Errorf("migrate entries: %w", err)
	}

	return &Store{database: database}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateEntry(entry *domain.Entry) error {
	row := toRow(entry)
	if err := s.database.Create(&row).Error; err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (s *Store) UpdateEntry(entry *domain.Entry) error {
	result := s.database.Model(&entryRow{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"title":          entry.Title,
			"schema_mode":    entry.SchemaMode,
			"was_need_met":   entry.WasNeedMet,
			"content_fields": entry.ContentFields,
		})
	if result.Error != nil {
		return fmt.Errorf("update entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update entry %s: %w", entry.ID, domain.ErrEntryNotFound)
	}
	return nil
}

func (s *Store) GetEntry(id string) (*domain.Entry, error) {
	var row entryRow
	err := s.database.Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get entry %s: %w", id, domain.ErrEntryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	e := row.entry()
	return &e, nil
}

func (s *Store) ResolveID(prefix string) (string, error) {
	var ids []string
	err := s.database.Model(&entryRow{}).
		Where("id LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Limit(2).
		Pluck("id", &ids).Error
	if err != nil {
		return "", fmt.Errorf("resolve id: %w", err)
	}
	return domain.MatchPrefix(prefix, ids)
}

func (s *Store) ListEntries(limit, offset int) ([]domain.Entry, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	if offset < 0 {
		offset = 0
	}
	rows := make([]entryRow, 0)
	err := s.database.
		Order("date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries(rows), nil
}

func (s *Store) SearchEntries(query string) ([]domain.Entry, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows := make([]entryRow, 0)
	err := s.database.
		Where("title LIKE ? ESCAPE '\\' OR CAST(content_fields AS TEXT) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	return entries(rows), nil
}

func (s *Store) DeleteEntry(id string) error {
	result := s.database.Where("id = ?", id).Delete(&entryRow{})
	if result.Error != nil {
		return fmt.Errorf("delete entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete entry %s: %w", id, domain.ErrEntryNotFound)
	}
	return nil
}

func entries(rows []entryRow) []domain.Entry {
	out := make([]domain.Entry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
