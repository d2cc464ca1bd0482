package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/schemadiary/internal/domain"
)

//go:embed schema.sql
var schema string

const entryColumns = "id, date, title, schema_mode, was_need_met, content_fields"

// Store handles database operations
type Store struct {
	db *sqlx.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateEntry inserts a new entry
func (s *Store) CreateEntry(entry *domain.Entry) error {
	_, err := s.db.NamedExec(
		"INSERT INTO entries ("+entryColumns+") VALUES (:id, :date, :title, :schema_mode, :was_need_met, :content_fields)",
		entry,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// UpdateEntry overwrites the mutable columns. id and date never change.
func (s *Store) UpdateEntry(entry *domain.Entry) error {
	res, err := s.db.NamedExec(`
		UPDATE entries
		SET title = :title, schema_mode = :schema_mode, was_need_met = :was_need_met, content_fields = :content_fields
		WHERE id = :id
	`, entry)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update entry %s: %w", entry.ID, domain.ErrEntryNotFound)
	}
	return nil
}

// GetEntry retrieves an entry by ID
func (s *Store) GetEntry(id string) (*domain.Entry, error) {
	var entry domain.Entry
	err := s.db.Get(&entry, "SELECT "+entryColumns+" FROM entries WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %s: %w", id, domain.ErrEntryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &entry, nil
}

// ResolveID expands a short id prefix to a full id
func (s *Store) ResolveID(prefix string) (string, error) {
	var ids []string
	err := s.db.Select(&ids,
		"SELECT id FROM entries WHERE id LIKE ? ESCAPE '\\' LIMIT 2",
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return "", fmt.Errorf("resolve id: %w", err)
	}
	return domain.MatchPrefix(prefix, ids)
}

// ListEntries returns recent entries with pagination
func (s *Store) ListEntries(limit, offset int) ([]domain.Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	entries := []domain.Entry{}
	err := s.db.Select(&entries,
		"SELECT "+entryColumns+" FROM entries ORDER BY date DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// SearchEntries matches the query against titles and answer text
func (s *Store) SearchEntries(query string) ([]domain.Entry, error) {
	pattern := "%" + escapeLike(query) + "%"

	entries := []domain.Entry{}
	err := s.db.Select(&entries, `
		SELECT `+entryColumns+` FROM entries
		WHERE title LIKE ? ESCAPE '\' OR CAST(content_fields AS TEXT) LIKE ? ESCAPE '\'
		ORDER BY date DESC, id DESC
	`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	return entries, nil
}

// DeleteEntry removes an entry
func (s *Store) DeleteEntry(id string) error {
	res, err := s.db.Exec("DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete entry %s: %w", id, domain.ErrEntryNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
