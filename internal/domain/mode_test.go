package domain_test

import (
	"testing"

	"github.com/pbaille/schemadiary/internal/domain"
)

func TestCategoryOfIsTotal(t *testing.T) {
	modes := domain.AllModes()
	if len(modes) != 16 {
		t.Fatalf("expected 16 modes, got %d", len(modes))
	}

	valid := make(map[domain.SchemaModeCategory]bool)
	for _, c := range domain.Categories() {
		valid[c] = true
	}
	if len(valid) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(valid))
	}

	for _, m := range modes {
		cat, ok := domain.CategoryOf(m)
		if !ok {
			t.Errorf("mode %q has no category", m)
			continue
		}
		if !valid[cat] {
			t.Errorf("mode %q mapped to unknown category %q", m, cat)
		}
	}
}

func TestEveryModeInExactlyOneCategory(t *testing.T) {
	seen := make(map[domain.SchemaMode]int)
	for _, c := range domain.Categories() {
		for _, m := range domain.ModesIn(c) {
			seen[m]++
			if m.Category() != c {
				t.Errorf("%q listed under %q but Category() = %q", m, c, m.Category())
			}
		}
	}
	for _, m := range domain.AllModes() {
		if seen[m] != 1 {
			t.Errorf("mode %q appears in %d categories", m, seen[m])
		}
	}
}

func TestParseSchemaMode(t *testing.T) {
	m, ok := domain.ParseSchemaMode("Detached Protector")
	if !ok || m != domain.ModeDetachedProtector {
		t.Fatalf("ParseSchemaMode = %q, %v", m, ok)
	}
	if _, ok := domain.ParseSchemaMode("not-a-real-mode"); ok {
		t.Fatal("unknown mode parsed")
	}
	if got := domain.ModeOrDefault("not-a-real-mode"); got != domain.ModeHealthyAdult {
		t.Fatalf("ModeOrDefault = %q", got)
	}
}
