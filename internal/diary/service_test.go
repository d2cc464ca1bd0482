package diary_test

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/pbaille/schemadiary/internal/diary"
	"github.com/pbaille/schemadiary/internal/domain"
	"github.com/pbaille/schemadiary/internal/store/memory"
)

// recordingRemover remembers every delete call.
type recordingRemover struct {
	deleted []string
}

func (r *recordingRemover) DeleteRecording(name string) {
	r.deleted = append(r.deleted, name)
}

// failingStore wraps a store and fails selected operations.
type failingStore struct {
	domain.EntryStore
	failUpdate bool
	failDelete bool
}

func (f *failingStore) UpdateEntry(e *domain.Entry) error {
	if f.failUpdate {
		return errors.New("disk full")
	}
	return f.EntryStore.UpdateEntry(e)
}

func (f *failingStore) DeleteEntry(id string) error {
	if f.failDelete {
		return errors.New("locked")
	}
	return f.EntryStore.DeleteEntry(id)
}

func field(f domain.ContentField) *domain.ContentField { return &f }

func newService(t *testing.T) (*diary.Service, *memory.EntryStore, *recordingRemover) {
	t.Helper()
	store := memory.NewEntryStore()
	audio := &recordingRemover{}
	return diary.NewService(store, audio), store, audio
}

func TestCreateDefaultsTitle(t *testing.T) {
	svc, store, _ := newService(t)

	e, err := svc.Create(diary.Draft{Title: "   ", Mode: domain.ModeAngryChild})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.Title != domain.DefaultTitle {
		t.Fatalf("title = %q", e.Title)
	}
	stored, err := store.GetEntry(e.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if stored.Title != domain.DefaultTitle || stored.NeedMet() != domain.NeedUnsure {
		t.Fatalf("stored entry = %+v", stored)
	}
}

func TestCreateUsesClock(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := diary.NewService(memory.NewEntryStore(), nil, diary.WithClock(func() time.Time { return at }))

	e, err := svc.Create(diary.Draft{Mode: domain.ModeHealthyAdult})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !e.Date.Equal(at) {
		t.Fatalf("date = %v", e.Date)
	}
}

func TestCreateRejectsUnknownMode(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := svc.Create(diary.Draft{Mode: "not-a-real-mode"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestEditDeletesOnlyUnreferencedRecordings(t *testing.T) {
	svc, store, audio := newService(t)

	e, err := svc.Create(diary.Draft{
		Mode: domain.ModeVulnerableChild,
		Content: domain.DiaryContentFields{
			Situation: field(domain.Audio("a.m4a")),
			Feelings:  field(domain.Audio("b.m4a")),
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	d := diary.DraftFrom(e)
	d.Content.Situation = field(domain.Text("typed instead"))
	d.Content.Result = field(domain.Audio("c.m4a"))
	d.Title = "edited"
	d.NeedMet = domain.NeedYes

	edited, err := svc.Edit(e.ID, d)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}

	if len(audio.deleted) != 1 || audio.deleted[0] != "a.m4a" {
		t.Fatalf("deleted = %v, want [a.m4a]", audio.deleted)
	}

	stored, _ := store.GetEntry(e.ID)
	got := stored.AudioFilenames()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "b.m4a" || got[1] != "c.m4a" {
		t.Fatalf("stored recordings = %v", got)
	}
	if stored.Title != "edited" || stored.NeedMet() != domain.NeedYes {
		t.Fatalf("edit not applied: %+v", stored)
	}
	if !stored.Date.Equal(e.Date) || edited.ID != e.ID {
		t.Fatal("edit changed identity")
	}
}

func TestEditFailureKeepsRecordings(t *testing.T) {
	base := memory.NewEntryStore()
	store := &failingStore{EntryStore: base}
	audio := &recordingRemover{}
	svc := diary.NewService(store, audio)

	e, err := svc.Create(diary.Draft{
		Mode:    domain.ModeHealthyAdult,
		Content: domain.DiaryContentFields{Thoughts: field(domain.Audio("keep.m4a"))},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	store.failUpdate = true
	if _, err := svc.Edit(e.ID, diary.Draft{Mode: domain.ModeHealthyAdult}); err == nil {
		t.Fatal("expected edit error")
	}
	if len(audio.deleted) != 0 {
		t.Fatalf("recordings deleted despite failed update: %v", audio.deleted)
	}
}

func TestEditMissingEntry(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Edit("missing", diary.Draft{Mode: domain.ModeHealthyAdult})
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestDeleteRemovesRecordingsAndEntry(t *testing.T) {
	svc, store, audio := newService(t)

	e, err := svc.Create(diary.Draft{
		Mode: domain.ModePunitiveParent,
		Content: domain.DiaryContentFields{
			Situation: field(domain.Audio("x.m4a")),
			Wants:     field(domain.Audio("y.m4a")),
			Facts:     field(domain.Text("it rained")),
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	sort.Strings(audio.deleted)
	if len(audio.deleted) != 2 || audio.deleted[0] != "x.m4a" || audio.deleted[1] != "y.m4a" {
		t.Fatalf("deleted = %v", audio.deleted)
	}
	entries, _ := store.ListEntries(0, 0)
	if len(entries) != 0 {
		t.Fatalf("entry still listed: %+v", entries)
	}
}

func TestDeleteAttemptsRecordingsWhenRecordRemovalFails(t *testing.T) {
	store := &failingStore{EntryStore: memory.NewEntryStore(), failDelete: true}
	audio := &recordingRemover{}
	svc := diary.NewService(store, audio)

	e, _ := svc.Create(diary.Draft{
		Mode:    domain.ModeHealthyAdult,
		Content: domain.DiaryContentFields{Result: field(domain.Audio("z.m4a"))},
	})
	if err := svc.Delete(e.ID); err == nil {
		t.Fatal("expected delete error")
	}
	if len(audio.deleted) != 1 {
		t.Fatalf("recordings not attempted: %v", audio.deleted)
	}
}

func TestDiscardKeepsOriginalRecordings(t *testing.T) {
	svc, _, audio := newService(t)

	e, _ := svc.Create(diary.Draft{
		Mode:    domain.ModeHealthyAdult,
		Content: domain.DiaryContentFields{Situation: field(domain.Audio("old.m4a"))},
	})
	d := diary.DraftFrom(e)
	d.Content.Feelings = field(domain.Audio("new.m4a"))

	svc.Discard(e, d)
	if len(audio.deleted) != 1 || audio.deleted[0] != "new.m4a" {
		t.Fatalf("deleted = %v", audio.deleted)
	}

	audio.deleted = nil
	svc.Discard(nil, diary.Draft{Content: domain.DiaryContentFields{Wants: field(domain.Audio("fresh.m4a"))}})
	if len(audio.deleted) != 1 || audio.deleted[0] != "fresh.m4a" {
		t.Fatalf("deleted = %v", audio.deleted)
	}
}

func TestGetByPrefix(t *testing.T) {
	svc, _, _ := newService(t)
	e, _ := svc.Create(diary.Draft{Mode: domain.ModeHealthyAdult})

	got, err := svc.Get(e.ID[:8])
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != e.ID {
		t.Fatalf("Get returned %s", got.ID)
	}
}

func TestDifference(t *testing.T) {
	got := diary.Difference([]string{"a.m4a", "b.m4a", "a.m4a"}, []string{"b.m4a", "c.m4a"})
	if len(got) != 1 || got[0] != "a.m4a" {
		t.Fatalf("Difference = %v", got)
	}
	if got := diary.Difference(nil, []string{"x"}); len(got) != 0 {
		t.Fatalf("Difference(nil) = %v", got)
	}
}

func TestEditKeepsUnknownStoredMode(t *testing.T) {
	svc, store, _ := newService(t)

	legacy := domain.NewEntry("Retired Mode", domain.WithTitle("old"))
	if err := store.CreateEntry(legacy); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	d := diary.DraftFrom(legacy)
	d.Title = "new title"
	if _, err := svc.Edit(legacy.ID, d); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	stored, _ := store.GetEntry(legacy.ID)
	if stored.SchemaMode != "Retired Mode" || stored.Title != "new title" {
		t.Fatalf("stored = %q / %q, want raw mode kept", stored.SchemaMode, stored.Title)
	}
	if stored.Mode() != domain.DefaultMode {
		t.Fatalf("Mode() = %q", stored.Mode())
	}

	d.Mode = domain.ModeAngryProtector
	if _, err := svc.Edit(legacy.ID, d); err != nil {
		t.Fatalf("Edit with chosen mode: %v", err)
	}
	stored, _ = store.GetEntry(legacy.ID)
	if stored.Mode() != domain.ModeAngryProtector {
		t.Fatalf("chosen mode not saved: %q", stored.SchemaMode)
	}

	d.Mode = "Another Unknown"
	if _, err := svc.Edit(legacy.ID, d); err == nil {
		t.Fatal("expected error for a new unknown mode")
	}
}

func TestSharedRecordingSurvivesDeleteAndEdit(t *testing.T) {
	svc, _, audio := newService(t)

	shared := domain.DiaryContentFields{Situation: field(domain.Audio("s.m4a"))}
	first, _ := svc.Create(diary.Draft{Mode: domain.ModeHealthyAdult, Content: shared})
	second, _ := svc.Create(diary.Draft{Mode: domain.ModeHealthyAdult, Content: shared})

	d := diary.DraftFrom(first)
	d.Content = domain.DiaryContentFields{}
	if _, err := svc.Edit(first.ID, d); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if len(audio.deleted) != 0 {
		t.Fatalf("edit deleted a recording another entry uses: %v", audio.deleted)
	}

	if err := svc.Delete(second.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(audio.deleted) != 1 || audio.deleted[0] != "s.m4a" {
		t.Fatalf("deleted = %v, want [s.m4a] once unreferenced", audio.deleted)
	}
}

func TestDeleteKeepsRecordingSharedWithLiveEntry(t *testing.T) {
	svc, _, audio := newService(t)

	shared := domain.DiaryContentFields{Feelings: field(domain.Audio("s.m4a"))}
	first, _ := svc.Create(diary.Draft{Mode: domain.ModeHealthyAdult, Content: shared})
	if _, err := svc.Create(diary.Draft{Mode: domain.ModeHealthyAdult, Content: shared}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(audio.deleted) != 0 {
		t.Fatalf("deleted = %v while another entry references it", audio.deleted)
	}
}
