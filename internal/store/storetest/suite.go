// Package storetest holds the behaviour every domain.EntryStore backend must
// share. Backends call Run from their own tests.
package storetest

import (
	"errors"
	"testing"
	"time"

	"github.com/pbaille/schemadiary/internal/domain"
)

// Open returns a fresh, empty store. The suite closes it.
type Open func(t *testing.T) domain.EntryStore

// Run exercises the full EntryStore contract against open.
func Run(t *testing.T, open Open) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, open(t)) })
	t.Run("UpdateKeepsIdentity", func(t *testing.T) { testUpdateKeepsIdentity(t, open(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, open(t)) })
	t.Run("ListNewestFirst", func(t *testing.T) { testListNewestFirst(t, open(t)) })
	t.Run("Search", func(t *testing.T) { testSearch(t, open(t)) })
	t.Run("ResolveID", func(t *testing.T) { testResolveID(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("UnknownModePreserved", func(t *testing.T) { testUnknownModePreserved(t, open(t)) })
}

var base = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sample(id string, offset time.Duration, title string) *domain.Entry {
	situation := domain.Text("argument with " + title)
	feelings := domain.Audio(id + ".m4a")
	return domain.NewEntry(string(domain.ModeVulnerableChild),
		domain.WithID(id),
		domain.WithDate(base.Add(offset)),
		domain.WithTitle(title),
		domain.WithNeedMet(domain.NeedNo),
		domain.WithContent(domain.DiaryContentFields{Situation: &situation, Feelings: &feelings}),
	)
}

func mustCreate(t *testing.T, s domain.EntryStore, e *domain.Entry) {
	t.Helper()
	if err := s.CreateEntry(e); err != nil {
		t.Fatalf("CreateEntry(%s): %v", e.ID, err)
	}
}

func testCreateAndGet(t *testing.T, s domain.EntryStore) {
	defer s.Close()
	want := sample("aaaa-1", 0, "sister")
	mustCreate(t, s, want)

	got, err := s.GetEntry(want.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.ID != want.ID || got.Title != want.Title || got.SchemaMode != want.SchemaMode {
		t.Fatalf("scalars differ: got %+v, want %+v", got, want)
	}
	if !got.Date.Equal(want.Date) {
		t.Fatalf("date = %v, want %v", got.Date, want.Date)
	}
	if got.NeedMet() != domain.NeedNo {
		t.Fatalf("need met = %s", got.NeedMet())
	}
	if !got.Content().Equal(want.Content()) {
		t.Fatalf("content = %+v, want %+v", got.Content(), want.Content())
	}

	if _, err := s.GetEntry("missing"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("GetEntry(missing) err = %v", err)
	}
}

func testUpdateKeepsIdentity(t *testing.T, s domain.EntryStore) {
	defer s.Close()
	orig := sample("bbbb-1", 0, "boss")
	mustCreate(t, s, orig)

	edited := *orig
	edited.Date = base.Add(48 * time.Hour)
	edited.Title = "boss, again"
	edited.SchemaMode = string(domain.ModeDemandingParent)
	edited.SetNeedMet(domain.NeedUnsure)
	edited.SetField(domain.SlotFeelings, nil)
	if err := s.UpdateEntry(&edited); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}

	got, err := s.GetEntry(orig.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if !got.Date.Equal(orig.Date) {
		t.Fatalf("update changed date to %v", got.Date)
	}
	if got.Title != "boss, again" || got.Mode() != domain.ModeDemandingParent {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.WasNeedMet != nil {
		t.Fatalf("need met should be unsure, got %v", *got.WasNeedMet)
	}
	if got.Field(domain.SlotFeelings) != nil {
		t.Fatal("cleared slot came back")
	}
}

func testUpdateMissing(t *testing.T, s domain.EntryStore) {
	defer s.Close()
	if err := s.UpdateEntry(sample("nope", 0, "x")); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("UpdateEntry(missing) err = %v", err)
	}
}

func testListNewestFirst(t *testing.T, s domain.EntryStore) {
	defer s.Close()
	mustCreate(t, s, sample("c-old", 0, "old"))
	mustCreate(t, s, sample("c-new", 2*time.Hour, "new"))
	mustCreate(t, s, sample("c-mid", time.Hour, "mid"))

	all, err := s.ListEntries(0, 0)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c-new" || all[1].ID != "c-mid" || all[2].ID != "c-old" {
		t.Fatalf("unexpected order: %v", ids(all))
	}

	page, err := s.ListEntries(1, 1)
	if err != nil {
		t.Fatalf("ListEntries page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "c-mid" {
		t.Fatalf("page = %v", ids(page))
	}

	clamped, err := s.ListEntries(10, -1)
	if err != nil {
		t.Fatalf("ListEntries negative offset: %v", err)
	}
	if len(clamped) != 3 || clamped[0].ID != "c-new" {
		t.Fatalf("negative offset should read from the start, got %v", ids(clamped))
	}
}

func testSearch(t *testing.T, s domain.EntryStore) {
	defer s.Close()
	mustCreate(t, s, sample("d-1", 0, "Sister"))
	mustCreate(t, s, sample("d-2", time.Hour, "traffic"))

	byTitle, err := s.SearchEntries("sister")
	if err != nil {
		t.Fatalf("SearchEntries: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].ID != "d-1" {
		t.Fatalf("title search = %v", ids(byTitle))
	}

	byContent, err := s.SearchEntries("argument with traffic")
	if err != nil {
		t.Fatalf("SearchEntries: %v", err)
	}
	if len(byContent) != 1 || byContent[0].ID != "d-2" {
		t.Fatalf("content search = %v", ids(byContent))
	}

	none, err := s.SearchEntries("100%_")
	if err != nil {
		t.Fatalf("SearchEntries: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("wildcards must be literal, got %v", ids(none))
	}
}

func testResolveID(t *testing.T, s domain.EntryStore) {
	defer s.Close()
	mustCreate(t, s, sample("abc123", 0, "a"))
	mustCreate(t, s, sample("abd456", time.Hour, "b"))

	id, err := s.ResolveID("abc")
	if err != nil || id != "abc123" {
		t.Fatalf("ResolveID(abc) = %q, %v", id, err)
	}
	if _, err := s.ResolveID("ab"); !errors.Is(err, domain.ErrAmbiguousID) {
		t.Fatalf("ResolveID(ab) err = %v", err)
	}
	if _, err := s.ResolveID("zz"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("ResolveID(zz) err = %v", err)
	}
}

func testDelete(t *testing.T, s domain.EntryStore) {
	defer s.Close()
	e := sample("e-1", 0, "gone")
	mustCreate(t, s, e)

	if err := s.DeleteEntry(e.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if _, err := s.GetEntry(e.ID); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("GetEntry after delete err = %v", err)
	}
	all, err := s.ListEntries(0, 0)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("deleted entry still listed: %v", ids(all))
	}
	if err := s.DeleteEntry(e.ID); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("second DeleteEntry err = %v", err)
	}
}

func testUnknownModePreserved(t *testing.T, s domain.EntryStore) {
	defer s.Close()
	e := sample("f-1", 0, "legacy")
	e.SchemaMode = "Retired Mode"
	mustCreate(t, s, e)

	got, err := s.GetEntry(e.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.SchemaMode != "Retired Mode" {
		t.Fatalf("raw mode = %q", got.SchemaMode)
	}
	if got.Mode() != domain.DefaultMode {
		t.Fatalf("Mode() = %q", got.Mode())
	}
}

func ids(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
