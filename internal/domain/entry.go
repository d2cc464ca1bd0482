package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle replaces a blank title when an entry is saved.
const DefaultTitle = "Untitled"

var (
	// ErrEntryNotFound is returned by stores when no entry matches.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrAmbiguousID is returned when a short id matches several entries.
	ErrAmbiguousID = errors.New("ambiguous entry id")
)

// Entry is one persisted diary record. The nine answers live in
// ContentFields as an opaque serialized blob; use Content and SetContent.
type Entry struct {
	ID            string    `json:"id" db:"id"`
	Date          time.Time `json:"date" db:"date"`
	Title         string    `json:"title" db:"title"`
	SchemaMode    string    `json:"schema_mode" db:"schema_mode"`
	WasNeedMet    *bool     `json:"was_need_met,omitempty" db:"was_need_met"`
	ContentFields []byte    `json:"-" db:"content_fields"`
}

// EntryOption customises NewEntry.
type EntryOption func(*Entry)

func WithID(id string) EntryOption {
	return func(e *Entry) { e.ID = id }
}

func WithDate(t time.Time) EntryOption {
	return func(e *Entry) { e.Date = t }
}

func WithTitle(title string) EntryOption {
	return func(e *Entry) { e.Title = title }
}

func WithNeedMet(n NeedMet) EntryOption {
	return func(e *Entry) { e.WasNeedMet = n.Bool() }
}

func WithContent(c DiaryContentFields) EntryOption {
	return func(e *Entry) { e.SetContent(c) }
}

// NewEntry builds an unsaved entry with a fresh id, the current time, an
// empty title, need-met unsure and no answers.
func NewEntry(mode string, opts ...EntryOption) *Entry {
	e := &Entry{
		ID:         uuid.New().String(),
		Date:       time.Now(),
		SchemaMode: mode,
	}
	e.SetContent(DiaryContentFields{})
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Content decodes the answers. An absent or unreadable blob yields the empty
// aggregate so the rest of the entry stays displayable.
func (e *Entry) Content() DiaryContentFields {
	c, err := DecodeContentFields(e.ContentFields)
	if err != nil {
		return DiaryContentFields{}
	}
	return c
}

// SetContent replaces all nine answers.
func (e *Entry) SetContent(c DiaryContentFields) {
	e.ContentFields = EncodeContentFields(c)
}

// Field returns the answer in one slot, or nil.
func (e *Entry) Field(s Slot) *ContentField {
	return e.Content().Get(s)
}

// SetField replaces one answer; nil clears it.
func (e *Entry) SetField(s Slot, f *ContentField) {
	c := e.Content()
	c.Set(s, f)
	e.SetContent(c)
}

// Mode returns the typed schema mode, falling back to DefaultMode when the
// stored string is unknown.
func (e *Entry) Mode() SchemaMode {
	return ModeOrDefault(e.SchemaMode)
}

func (e *Entry) NeedMet() NeedMet {
	return NeedMetFromBool(e.WasNeedMet)
}

func (e *Entry) SetNeedMet(n NeedMet) {
	e.WasNeedMet = n.Bool()
}

// DisplayTitle is the title or DefaultTitle when blank.
func (e *Entry) DisplayTitle() string {
	if isBlank(e.Title) {
		return DefaultTitle
	}
	return e.Title
}

// AudioFilenames lists the recordings this entry references.
func (e *Entry) AudioFilenames() []string {
	return e.Content().AudioFilenames()
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

// EntryStore persists entries. Implementations map their own "no row"
// condition to ErrEntryNotFound.
type EntryStore interface {
	CreateEntry(entry *Entry) error
	UpdateEntry(entry *Entry) error
	GetEntry(id string) (*Entry, error)
	// ResolveID expands a unique id prefix to the full id.
	ResolveID(prefix string) (string, error)
	// ListEntries returns entries newest first.
	ListEntries(limit, offset int) ([]Entry, error)
	SearchEntries(query string) ([]Entry, error)
	DeleteEntry(id string) error
	Close() error
}

// MatchPrefix turns the ids matching a short id into a single id. Stores
// fetch at most two candidates; a second one means the prefix is ambiguous.
func MatchPrefix(prefix string, ids []string) (string, error) {
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("entry %s: %w", prefix, ErrEntryNotFound)
	case 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
}
