package diary_test

import (
	"testing"

	"github.com/pbaille/schemadiary/internal/diary"
	"github.com/pbaille/schemadiary/internal/domain"
)

type staticLister []string

func (l staticLister) List() ([]string, error) { return l, nil }

func TestCheckFindsMissingAndOrphans(t *testing.T) {
	svc, _, audio := newService(t)

	e, _ := svc.Create(diary.Draft{
		Mode: domain.ModeHealthyAdult,
		Content: domain.DiaryContentFields{
			Situation: field(domain.Audio("present.m4a")),
			Feelings:  field(domain.Audio("gone.m4a")),
		},
	})

	report, err := svc.Check(staticLister{"present.m4a", "stray.m4a"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.Consistent() {
		t.Fatal("report should not be consistent")
	}
	if ids := report.Missing["gone.m4a"]; len(ids) != 1 || ids[0] != e.ID {
		t.Fatalf("missing = %v", report.Missing)
	}
	if len(report.Orphans) != 1 || report.Orphans[0] != "stray.m4a" {
		t.Fatalf("orphans = %v", report.Orphans)
	}
	if report.Referenced != 2 {
		t.Fatalf("referenced = %d", report.Referenced)
	}

	if n := svc.Prune(report); n != 1 || len(audio.deleted) != 1 || audio.deleted[0] != "stray.m4a" {
		t.Fatalf("Prune = %d, deleted %v", n, audio.deleted)
	}
}

func TestStats(t *testing.T) {
	svc, store, _ := newService(t)
	svc.Create(diary.Draft{Mode: domain.ModeAngryChild, NeedMet: domain.NeedNo})
	svc.Create(diary.Draft{Mode: domain.ModeVulnerableChild, NeedMet: domain.NeedYes,
		Content: domain.DiaryContentFields{Thoughts: field(domain.Audio("t.m4a"))}})

	legacy := domain.NewEntry("Retired Mode")
	if err := store.CreateEntry(legacy); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	st, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 3 || st.Recordings != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.ByCategory[domain.CategoryChild] != 2 || st.ByCategory[domain.CategoryHealthy] != 1 {
		t.Fatalf("by category = %v", st.ByCategory)
	}
	if st.ByMode[domain.DefaultMode] != 1 {
		t.Fatalf("legacy entry not counted under default mode: %v", st.ByMode)
	}
	if st.ByNeedMet[domain.NeedUnsure] != 1 || st.ByNeedMet[domain.NeedYes] != 1 {
		t.Fatalf("by need = %v", st.ByNeedMet)
	}
}
