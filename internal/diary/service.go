// Package diary runs the entry lifecycle: saving working copies, editing and
// deleting entries, and keeping the recordings directory in step with what
// live entries reference.
package diary

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pbaille/schemadiary/internal/domain"
	"go.uber.org/zap"
)

// AudioRemover deletes recordings. Deletion is idempotent and best-effort;
// failures are handled by the implementation.
type AudioRemover interface {
	DeleteRecording(filename string)
}

// Draft is the in-memory working copy a form edits. It never touches storage
// until passed to Create or Edit. A draft started from a stored entry keeps
// the stored mode string as is, even when it is not a known mode, so that
// saving other changes does not replace it.
type Draft struct {
	Title   string
	Mode    domain.SchemaMode
	NeedMet domain.NeedMet
	Content domain.DiaryContentFields
}

// DraftFrom starts a working copy from a stored entry.
func DraftFrom(e *domain.Entry) Draft {
	return Draft{
		Title:   e.Title,
		Mode:    domain.SchemaMode(e.SchemaMode),
		NeedMet: e.NeedMet(),
		Content: e.Content(),
	}
}

// Service coordinates the entry store and the audio store.
type Service struct {
	store domain.EntryStore
	audio AudioRemover
	log   *zap.Logger
	now   func() time.Time
}

type Option func(*Service)

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store domain.EntryStore, audio AudioRemover, opts ...Option) *Service {
	s := &Service{
		store: store,
		audio: audio,
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create saves a new entry from a working copy. A blank title becomes
// domain.DefaultTitle.
func (s *Service) Create(d Draft) (*domain.Entry, error) {
	if !d.Mode.Valid() {
		return nil, fmt.Errorf("create entry: unknown schema mode %q", d.Mode)
	}
	e := domain.NewEntry(string(d.Mode),
		domain.WithDate(s.now()),
		domain.WithTitle(saveTitle(d.Title)),
		domain.WithNeedMet(d.NeedMet),
		domain.WithContent(d.Content),
	)
	if err := s.store.CreateEntry(e); err != nil {
		return nil, err
	}
	s.log.Info("entry created", zap.String("id", e.ID), zap.String("mode", e.SchemaMode))
	return e, nil
}

// Edit applies a working copy to a stored entry in one update, then deletes
// every recording the entry referenced before but no longer does. Nothing is
// deleted if the update fails. An unrecognised mode is accepted only when it
// is the one already stored.
func (s *Service) Edit(id string, d Draft) (*domain.Entry, error) {
	e, err := s.store.GetEntry(id)
	if err != nil {
		return nil, err
	}
	if !d.Mode.Valid() && string(d.Mode) != e.SchemaMode {
		return nil, fmt.Errorf("edit entry: unknown schema mode %q", d.Mode)
	}
	before := e.AudioFilenames()

	e.Title = saveTitle(d.Title)
	e.SchemaMode = string(d.Mode)
	e.SetNeedMet(d.NeedMet)
	e.SetContent(d.Content)
	if err := s.store.UpdateEntry(e); err != nil {
		return nil, err
	}

	removed := s.unshared(Difference(before, e.AudioFilenames()), "")
	s.deleteRecordings(removed)
	s.log.Info("entry edited", zap.String("id", e.ID), zap.Strings("removed_recordings", removed))
	return e, nil
}

// Delete removes an entry and all of its recordings. Recording deletion is
// best-effort and never prevents removing the record.
func (s *Service) Delete(id string) error {
	e, err := s.store.GetEntry(id)
	if err != nil {
		return err
	}
	files := s.unshared(e.AudioFilenames(), e.ID)
	s.deleteRecordings(files)

	if err := s.store.DeleteEntry(e.ID); err != nil {
		return err
	}
	s.log.Info("entry deleted", zap.String("id", e.ID), zap.Int("recordings", len(files)))
	return nil
}

// Discard throws away a working copy that will not be saved, deleting the
// recordings it made. original is the entry being edited, or nil for a new
// entry; its recordings are kept.
func (s *Service) Discard(original *domain.Entry, d Draft) {
	var keep []string
	if original != nil {
		keep = original.AudioFilenames()
	}
	s.deleteRecordings(s.unshared(Difference(d.Content.AudioFilenames(), keep), ""))
}

// unshared drops the names some live entry other than except still
// references. When references cannot be listed nothing is deleted; a stray
// file is harmless, a missing one is not.
func (s *Service) unshared(names []string, except string) []string {
	if len(names) == 0 {
		return nil
	}
	refs, err := s.ReferencedRecordings()
	if err != nil {
		s.log.Warn("keeping recordings: cannot list references", zap.Strings("files", names), zap.Error(err))
		return nil
	}
	var out []string
	for _, name := range names {
		shared := false
		for _, id := range refs[name] {
			if id != except {
				shared = true
				break
			}
		}
		if shared {
			s.log.Info("keeping recording still referenced elsewhere", zap.String("file", name))
			continue
		}
		out = append(out, name)
	}
	return out
}

func (s *Service) deleteRecordings(names []string) {
	if s.audio == nil {
		return
	}
	for _, name := range names {
		s.audio.DeleteRecording(name)
	}
}

// Get loads an entry by full id or unique prefix.
func (s *Service) Get(idOrPrefix string) (*domain.Entry, error) {
	e, err := s.store.GetEntry(idOrPrefix)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, domain.ErrEntryNotFound) {
		return nil, err
	}
	id, err := s.store.ResolveID(idOrPrefix)
	if err != nil {
		return nil, err
	}
	return s.store.GetEntry(id)
}

func (s *Service) List(limit, offset int) ([]domain.Entry, error) {
	return s.store.ListEntries(limit, offset)
}

func (s *Service) Search(query string) ([]domain.Entry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is empty")
	}
	return s.store.SearchEntries(query)
}

// Difference returns the names in before that are not in after, in the
// order of before.
func Difference(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, name := range after {
		keep[name] = true
	}
	var out []string
	for _, name := range before {
		if !keep[name] {
			out = append(out, name)
			keep[name] = true
		}
	}
	return out
}

func saveTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.DefaultTitle
	}
	return title
}

// ReferencedRecordings returns every recording referenced by a live entry,
// sorted.
func (s *Service) ReferencedRecordings() (map[string][]string, error) {
	entries, err := s.store.ListEntries(0, 0)
	if err != nil {
		return nil, err
	}
	refs := make(map[string][]string)
	for _, e := range entries {
		for _, name := range e.AudioFilenames() {
			refs[name] = append(refs[name], e.ID)
		}
	}
	for _, ids := range refs {
		sort.Strings(ids)
	}
	return refs, nil
}
