package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContentField is a single answer in a diary entry: either free text or a
// reference to a recording owned by the audio store.
type ContentField struct {
	IsAudio bool   `json:"isAudio"`
	Content string `json:"content"`
}

// Text returns a text field.
func Text(s string) ContentField {
	return ContentField{Content: s}
}

// Audio returns a field referencing the recording with the given filename.
func Audio(filename string) ContentField {
	return ContentField{IsAudio: true, Content: filename}
}

// IsEmpty reports whether the field carries nothing. An audio field with no
// filename counts as "no recording".
func (f ContentField) IsEmpty() bool {
	return f.Content == ""
}

// AudioFilename returns the referenced recording, or "" for text fields.
func (f ContentField) AudioFilename() string {
	if !f.IsAudio {
		return ""
	}
	return f.Content
}

// Slot names one of the nine answers of the diary template.
type Slot string

const (
	SlotSituation         Slot = "situation"
	SlotPhysicalAwareness Slot = "physicalAwareness"
	SlotThoughts          Slot = "thoughts"
	SlotFeelings          Slot = "feelings"
	SlotActionTaken       Slot = "actionTaken"
	SlotWants             Slot = "wants"
	SlotFacts             Slot = "facts"
	SlotUnderlyingNeed    Slot = "underlyingNeed"
	SlotResult            Slot = "result"
)

var slotOrder = []Slot{
	SlotSituation,
	SlotPhysicalAwareness,
	SlotThoughts,
	SlotFeelings,
	SlotActionTaken,
	SlotWants,
	SlotFacts,
	SlotUnderlyingNeed,
	SlotResult,
}

var slotLabels = map[Slot]string{
	SlotSituation:         "Situation",
	SlotPhysicalAwareness: "Physical awareness",
	SlotThoughts:          "Thoughts",
	SlotFeelings:          "Feelings",
	SlotActionTaken:       "Action taken",
	SlotWants:             "What I wanted",
	SlotFacts:             "Facts",
	SlotUnderlyingNeed:    "Underlying need",
	SlotResult:            "Result",
}

// Slots returns the template slots in display order.
func Slots() []Slot {
	out := make([]Slot, len(slotOrder))
	copy(out, slotOrder)
	return out
}

// ParseSlot accepts the slot key as stored ("actionTaken"). It is
// case-insensitive and tolerates dashes or underscores ("action-taken").
func ParseSlot(name string) (Slot, bool) {
	want := normalizeSlotName(name)
	for _, s := range slotOrder {
		if normalizeSlotName(string(s)) == want {
			return s, true
		}
	}
	return "", false
}

func normalizeSlotName(name string) string {
	b := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '-' || c == '_' || c == ' ':
			continue
		case c >= 'A' && c <= 'Z':
			b = append(b, c+('a'-'A'))
		default:
			b = append(b, c)
		}
	}
	return string(b)
}

// Label is the human readable prompt for the slot.
func (s Slot) Label() string {
	if l, ok := slotLabels[s]; ok {
		return l
	}
	return string(s)
}

// DiaryContentFields holds the nine optional answers. A nil slot means the
// question was not answered.
type DiaryContentFields struct {
	Situation         *ContentField `json:"situation,omitempty"`
	PhysicalAwareness *ContentField `json:"physicalAwareness,omitempty"`
	Thoughts          *ContentField `json:"thoughts,omitempty"`
	Feelings          *ContentField `json:"feelings,omitempty"`
	ActionTaken       *ContentField `json:"actionTaken,omitempty"`
	Wants             *ContentField `json:"wants,omitempty"`
	Facts             *ContentField `json:"facts,omitempty"`
	UnderlyingNeed    *ContentField `json:"underlyingNeed,omitempty"`
	Result            *ContentField `json:"result,omitempty"`
}

func (c *DiaryContentFields) slot(s Slot) **ContentField {
	switch s {
	case SlotSituation:
		return &c.Situation
	case SlotPhysicalAwareness:
		return &c.PhysicalAwareness
	case SlotThoughts:
		return &c.Thoughts
	case SlotFeelings:
		return &c.Feelings
	case SlotActionTaken:
		return &c.ActionTaken
	case SlotWants:
		return &c.Wants
	case SlotFacts:
		return &c.Facts
	case SlotUnderlyingNeed:
		return &c.UnderlyingNeed
	case SlotResult:
		return &c.Result
	}
	return nil
}

// Get returns a copy of the field in slot s, or nil when absent.
func (c DiaryContentFields) Get(s Slot) *ContentField {
	p := c.slot(s)
	if p == nil || *p == nil {
		return nil
	}
	f := **p
	return &f
}

// Set stores a copy of f in slot s; a nil f clears the slot.
func (c *DiaryContentFields) Set(s Slot, f *ContentField) {
	p := c.slot(s)
	if p == nil {
		return
	}
	if f == nil {
		*p = nil
		return
	}
	v := *f
	*p = &v
}

// Clone returns a deep copy.
func (c DiaryContentFields) Clone() DiaryContentFields {
	var out DiaryContentFields
	for _, s := range slotOrder {
		out.Set(s, c.Get(s))
	}
	return out
}

// Equal compares all nine slots structurally.
func (c DiaryContentFields) Equal(o DiaryContentFields) bool {
	for _, s := range slotOrder {
		a, b := c.Get(s), o.Get(s)
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && *a != *b {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no slot is present.
func (c DiaryContentFields) IsEmpty() bool {
	for _, s := range slotOrder {
		if c.Get(s) != nil {
			return false
		}
	}
	return true
}

// AudioFilenames lists the recordings referenced by the aggregate in slot
// order, without duplicates.
func (c DiaryContentFields) AudioFilenames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, s := range slotOrder {
		f := c.Get(s)
		if f == nil {
			continue
		}
		name := f.AudioFilename()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// EncodeContentFields serializes the aggregate for the entry's blob column.
// The aggregate holds only strings and bools, so encoding cannot fail. HTML
// characters are kept literal so stores can match answer text in the blob.
func EncodeContentFields(c DiaryContentFields) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(c)
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

// DecodeContentFields parses a blob written by EncodeContentFields.
func DecodeContentFields(data []byte) (DiaryContentFields, error) {
	var c DiaryContentFields
	if len(data) == 0 {
		return c, fmt.Errorf("decode content fields: empty blob")
	}
	if cached, ok := blobCache.Get(string(data)); ok {
		return cached.Clone(), nil
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return DiaryContentFields{}, fmt.Errorf("decode content fields: %w", err)
	}
	blobCache.Add(string(data), c.Clone())
	return c, nil
}
