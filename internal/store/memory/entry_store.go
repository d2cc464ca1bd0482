package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pbaille/schemadiary/internal/domain"
)

// EntryStore is an in-memory implementation of domain.EntryStore.
// It is NOT persistent and is meant for tests and throwaway sessions.
type EntryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.Entry
}

// NewEntryStore creates an empty in-memory store.
func NewEntryStore() *EntryStore {
	return &EntryStore{entries: make(map[string]domain.Entry)}
}

func (s *EntryStore) CreateEntry(entry *domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.ID]; exists {
		return fmt.Errorf("insert entry: duplicate id %s", entry.ID)
	}
	s.entries[entry.ID] = clone(*entry)
	return nil
}

func (s *EntryStore) UpdateEntry(entry *domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[entry.ID]
	if !ok {
		return fmt.Errorf("update entry %s: %w", entry.ID, domain.ErrEntryNotFound)
	}
	next := clone(*entry)
	next.Date = cur.Date
	s.entries[entry.ID] = next
	return nil
}

func (s *EntryStore) GetEntry(id string) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("get entry %s: %w", id, domain.ErrEntryNotFound)
	}
	out := clone(e)
	return &out, nil
}

func (s *EntryStore) ResolveID(prefix string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id := range s.entries {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
			if len(ids) == 2 {
				break
			}
		}
	}
	return domain.MatchPrefix(prefix, ids)
}

func (s *EntryStore) ListEntries(limit, offset int) ([]domain.Entry, error) {
	all := s.sorted(func(domain.Entry) bool { return true })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []domain.Entry{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *EntryStore) SearchEntries(query string) ([]domain.Entry, error) {
	q := strings.ToLower(query)
	return s.sorted(func(e domain.Entry) bool {
		return strings.Contains(strings.ToLower(e.Title), q) ||
			strings.Contains(strings.ToLower(string(e.ContentFields)), q)
	}), nil
}

func (s *EntryStore) DeleteEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("delete entry %s: %w", id, domain.ErrEntryNotFound)
	}
	delete(s.entries, id)
	return nil
}

func (s *EntryStore) Close() error {
	return nil
}

// sorted returns matching entries newest first, ties broken by id.
func (s *EntryStore) sorted(keep func(domain.Entry) bool) []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func clone(e domain.Entry) domain.Entry {
	if e.WasNeedMet != nil {
		v := *e.WasNeedMet
		e.WasNeedMet = &v
	}
	if e.ContentFields != nil {
		e.ContentFields = append([]byte(nil), e.ContentFields...)
	}
	return e
}
