package diary

import (
	"fmt"
	"sort"

	"github.com/pbaille/schemadiary/internal/domain"
)

// RecordingLister enumerates the recordings actually on disk.
type RecordingLister interface {
	List() ([]string, error)
}

// Report compares what entries reference with what is on disk.
type Report struct {
	// Missing maps a referenced recording that is not on disk to the ids of
	// the entries referencing it.
	Missing map[string][]string
	// Orphans are recordings on disk no entry references.
	Orphans []string
	// Referenced counts distinct recordings referenced by live entries.
	Referenced int
}

// Consistent reports whether nothing is missing and nothing is orphaned.
func (r Report) Consistent() bool {
	return len(r.Missing) == 0 && len(r.Orphans) == 0
}

// Check builds a consistency report for the recordings directory.
func (s *Service) Check(files RecordingLister) (*Report, error) {
	refs, err := s.ReferencedRecordings()
	if err != nil {
		return nil, fmt.Errorf("collect references: %w", err)
	}
	onDisk, err := files.List()
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}

	present := make(map[string]bool, len(onDisk))
	report := &Report{Missing: make(map[string][]string), Referenced: len(refs)}
	for _, name := range onDisk {
		present[name] = true
		if _, ok := refs[name]; !ok {
			report.Orphans = append(report.Orphans, name)
		}
	}
	for name, ids := range refs {
		if !present[name] {
			report.Missing[name] = ids
		}
	}
	sort.Strings(report.Orphans)
	return report, nil
}

// Prune deletes the orphans of a report and returns how many were sent for
// deletion.
func (s *Service) Prune(r *Report) int {
	s.deleteRecordings(r.Orphans)
	return len(r.Orphans)
}

// Stats summarises the diary.
type Stats struct {
	Total      int
	ByCategory map[domain.SchemaModeCategory]int
	ByMode     map[domain.SchemaMode]int
	ByNeedMet  map[domain.NeedMet]int
	Recordings int
}

// Stats tallies every entry. Entries with an unrecognised stored mode count
// under domain.DefaultMode, like everywhere else they are displayed.
func (s *Service) Stats() (*Stats, error) {
	entries, err := s.store.ListEntries(0, 0)
	if err != nil {
		return nil, err
	}
	st := &Stats{
		Total:      len(entries),
		ByCategory: make(map[domain.SchemaModeCategory]int),
		ByMode:     make(map[domain.SchemaMode]int),
		ByNeedMet:  make(map[domain.NeedMet]int),
	}
	for i := range entries {
		e := &entries[i]
		m := e.Mode()
		st.ByMode[m]++
		st.ByCategory[m.Category()]++
		st.ByNeedMet[e.NeedMet()]++
		st.Recordings += len(e.AudioFilenames())
	}
	return st, nil
}
