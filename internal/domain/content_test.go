package domain_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/pbaille/schemadiary/internal/domain"
)

func TestContentFieldRoundTrip(t *testing.T) {
	for _, f := range []domain.ContentField{
		{},
		domain.Text("felt ignored at dinner"),
		domain.Audio("0b6f.m4a"),
		domain.Audio(""),
	} {
		data, err := json.Marshal(f)
		if err != nil {
			t.Fatalf("marshal %+v: %v", f, err)
		}
		var got domain.ContentField
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != f {
			t.Errorf("round trip: got %+v, want %+v", got, f)
		}
	}
}

func TestContentFieldDefaultIsEmptyText(t *testing.T) {
	var f domain.ContentField
	if f.IsAudio || f.Content != "" || !f.IsEmpty() {
		t.Fatalf("unexpected zero value %+v", f)
	}
	if domain.Text("hi").AudioFilename() != "" {
		t.Fatal("text field must not report an audio filename")
	}
}

func TestDiaryContentFieldsRoundTripEverySubset(t *testing.T) {
	slots := domain.Slots()
	values := []domain.ContentField{domain.Text("a"), domain.Audio("b.m4a"), domain.Text("")}

	// Walk every present/absent combination of the nine slots.
	for mask := 0; mask < 1<<len(slots); mask++ {
		var c domain.DiaryContentFields
		for i, s := range slots {
			if mask&(1<<i) != 0 {
				v := values[i%len(values)]
				c.Set(s, &v)
			}
		}

		got, err := domain.DecodeContentFields(domain.EncodeContentFields(c))
		if err != nil {
			t.Fatalf("mask %b: decode: %v", mask, err)
		}
		if !got.Equal(c) {
			t.Fatalf("mask %b: got %+v, want %+v", mask, got, c)
		}
	}
}

func TestDecodeContentFieldsIgnoresUnknownKeys(t *testing.T) {
	blob := []byte(`{"situation":{"isAudio":false,"content":"late train"},"mood":{"content":"x"}}`)

	got, err := domain.DecodeContentFields(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f := got.Get(domain.SlotSituation); f == nil || f.Content != "late train" {
		t.Fatalf("situation = %+v", f)
	}
	for _, s := range domain.Slots()[1:] {
		if got.Get(s) != nil {
			t.Errorf("slot %s should be absent", s)
		}
	}
}

func TestDecodeContentFieldsRejectsGarbage(t *testing.T) {
	if _, err := domain.DecodeContentFields([]byte("{not json")); err == nil {
		t.Fatal("expected error for corrupt blob")
	}
	if _, err := domain.DecodeContentFields(nil); err == nil {
		t.Fatal("expected error for empty blob")
	}
}

func TestDecodedAggregatesDoNotShareState(t *testing.T) {
	blob := domain.EncodeContentFields(domain.DiaryContentFields{Thoughts: &domain.ContentField{Content: "one"}})

	first, _ := domain.DecodeContentFields(blob)
	first.Thoughts.Content = "mutated"

	second, _ := domain.DecodeContentFields(blob)
	if second.Thoughts.Content != "one" {
		t.Fatalf("cached decode leaked a mutation: %q", second.Thoughts.Content)
	}
}

func TestAudioFilenames(t *testing.T) {
	situation := domain.Audio("a.m4a")
	thoughts := domain.Text("hi")
	feelings := domain.Audio("")
	c := domain.DiaryContentFields{
		Situation: &situation,
		Thoughts:  &thoughts,
		Feelings:  &feelings,
	}

	got := c.AudioFilenames()
	if !reflect.DeepEqual(got, []string{"a.m4a"}) {
		t.Fatalf("AudioFilenames() = %v", got)
	}
}

func TestAudioFilenamesDeduplicates(t *testing.T) {
	a := domain.Audio("same.m4a")
	c := domain.DiaryContentFields{Wants: &a, Result: &a}
	if got := c.AudioFilenames(); len(got) != 1 {
		t.Fatalf("AudioFilenames() = %v", got)
	}
}

func TestParseSlot(t *testing.T) {
	cases := map[string]domain.Slot{
		"situation":       domain.SlotSituation,
		"actionTaken":     domain.SlotActionTaken,
		"action-taken":    domain.SlotActionTaken,
		"UNDERLYING_NEED": domain.SlotUnderlyingNeed,
	}
	for in, want := range cases {
		got, ok := domain.ParseSlot(in)
		if !ok || got != want {
			t.Errorf("ParseSlot(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := domain.ParseSlot("mood"); ok {
		t.Error("ParseSlot accepted an unknown slot")
	}
}

func TestEncodeKeepsHTMLLiteral(t *testing.T) {
	blob := domain.EncodeContentFields(domain.DiaryContentFields{Facts: &domain.ContentField{Content: "a < b & c"}})
	if !strings.Contains(string(blob), "a < b & c") {
		t.Fatalf("blob = %s", blob)
	}
	if strings.HasSuffix(string(blob), "\n") {
		t.Fatal("blob has a trailing newline")
	}
}
