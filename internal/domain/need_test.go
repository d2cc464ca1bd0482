package domain_test

import (
	"testing"

	"github.com/pbaille/schemadiary/internal/domain"
)

func TestNeedMetMapping(t *testing.T) {
	yes, no := true, false
	cases := []struct {
		stored *bool
		want   string
	}{
		{&yes, "Yes"},
		{&no, "No"},
		{nil, "Unsure"},
	}

	for _, tc := range cases {
		n := domain.NeedMetFromBool(tc.stored)
		if n.String() != tc.want {
			t.Errorf("NeedMetFromBool(%v) = %s, want %s", tc.stored, n, tc.want)
		}

		parsed, err := domain.ParseNeedMet(tc.want)
		if err != nil {
			t.Fatalf("ParseNeedMet(%q): %v", tc.want, err)
		}
		back := parsed.Bool()
		switch {
		case tc.stored == nil && back != nil:
			t.Errorf("%s: expected nil, got %v", tc.want, *back)
		case tc.stored != nil && (back == nil || *back != *tc.stored):
			t.Errorf("%s: inverse mapping lost the value", tc.want)
		}
	}
}

func TestParseNeedMetRejectsUnknown(t *testing.T) {
	if _, err := domain.ParseNeedMet("maybe"); err == nil {
		t.Fatal("expected error")
	}
}

func TestEntryNeedMet(t *testing.T) {
	e := domain.NewEntry(string(domain.ModeHealthyAdult), domain.WithNeedMet(domain.NeedNo))
	if e.NeedMet() != domain.NeedNo || e.WasNeedMet == nil || *e.WasNeedMet {
		t.Fatalf("unexpected need-met state %+v", e.WasNeedMet)
	}
	e.SetNeedMet(domain.NeedUnsure)
	if e.WasNeedMet != nil {
		t.Fatal("unsure must store NULL")
	}
}

func TestParseNeedMetIgnoresCase(t *testing.T) {
	cases := map[string]domain.NeedMet{
		"yEs":      domain.NeedYes,
		" Y ":      domain.NeedYes,
		"nO":       domain.NeedNo,
		"FALSE":    domain.NeedNo,
		"UnSuRe":   domain.NeedUnsure,
		"?":        domain.NeedUnsure,
		"":         domain.NeedUnsure,
		"  True  ": domain.NeedYes,
	}
	for in, want := range cases {
		got, err := domain.ParseNeedMet(in)
		if err != nil || got != want {
			t.Errorf("ParseNeedMet(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
}
