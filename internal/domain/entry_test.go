package domain_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/pbaille/schemadiary/internal/domain"
)

func TestNewEntryDefaults(t *testing.T) {
	before := time.Now()
	e := domain.NewEntry(string(domain.ModeAngryChild))

	if e.ID == "" {
		t.Fatal("expected generated id")
	}
	if e.Date.Before(before) {
		t.Fatalf("date %v predates construction", e.Date)
	}
	if e.Title != "" || e.WasNeedMet != nil {
		t.Fatalf("unexpected defaults: %+v", e)
	}
	if !e.Content().IsEmpty() {
		t.Fatal("expected empty content")
	}
	if other := domain.NewEntry(string(domain.ModeAngryChild)); other.ID == e.ID {
		t.Fatal("ids must be unique")
	}
}

func TestEntryUnknownModeFallsBack(t *testing.T) {
	e := domain.NewEntry("not-a-real-mode")
	if got := e.Mode(); got != domain.ModeHealthyAdult {
		t.Fatalf("Mode() = %q", got)
	}
	if e.SchemaMode != "not-a-real-mode" {
		t.Fatal("raw value must be preserved")
	}
}

func TestEntryFieldAccessors(t *testing.T) {
	e := domain.NewEntry(string(domain.ModeHealthyAdult))

	thoughts := domain.Text("I always mess up")
	e.SetField(domain.SlotThoughts, &thoughts)
	rec := domain.Audio("r1.m4a")
	e.SetField(domain.SlotFeelings, &rec)

	if f := e.Field(domain.SlotThoughts); f == nil || *f != thoughts {
		t.Fatalf("thoughts = %+v", f)
	}
	if got := e.AudioFilenames(); !reflect.DeepEqual(got, []string{"r1.m4a"}) {
		t.Fatalf("AudioFilenames() = %v", got)
	}

	e.SetField(domain.SlotFeelings, nil)
	if e.Field(domain.SlotFeelings) != nil {
		t.Fatal("feelings should be cleared")
	}
	if len(e.AudioFilenames()) != 0 {
		t.Fatal("cleared recording still referenced")
	}
}

func TestEntryCorruptBlobDegradesToEmpty(t *testing.T) {
	e := domain.NewEntry(string(domain.ModeHealthyAdult), domain.WithTitle("kept"))
	e.ContentFields = []byte("\x00garbage")

	if !e.Content().IsEmpty() {
		t.Fatal("expected empty aggregate for corrupt blob")
	}
	if e.DisplayTitle() != "kept" {
		t.Fatal("title must stay readable")
	}

	e.ContentFields = nil
	if !e.Content().IsEmpty() {
		t.Fatal("expected empty aggregate for absent blob")
	}
}

func TestDisplayTitle(t *testing.T) {
	e := domain.NewEntry(string(domain.ModeHealthyAdult), domain.WithTitle("  \t"))
	if e.DisplayTitle() != domain.DefaultTitle {
		t.Fatalf("DisplayTitle() = %q", e.DisplayTitle())
	}
}
