// Package export renders diary entries for reading outside the app.
package export

import (
	"time"

	"github.com/pbaille/schemadiary/internal/domain"
)

// EntryView is an entry with its answers decoded, as shown to readers and
// API clients.
type EntryView struct {
	ID       string                    `json:"id"`
	Date     time.Time                 `json:"date"`
	Title    string                    `json:"title"`
	Mode     domain.SchemaMode         `json:"schema_mode"`
	Category domain.SchemaModeCategory `json:"category"`
	NeedMet  domain.NeedMet            `json:"need_met"`
	Content  domain.DiaryContentFields `json:"content"`
	Audio    []string                  `json:"audio_files,omitempty"`
}

// View decodes an entry for display. Unknown modes show as the default mode.
func View(e *domain.Entry) EntryView {
	m := e.Mode()
	content := e.Content()
	return EntryView{
		ID:       e.ID,
		Date:     e.Date,
		Title:    e.DisplayTitle(),
		Mode:     m,
		Category: m.Category(),
		NeedMet:  e.NeedMet(),
		Content:  content,
		Audio:    content.AudioFilenames(),
	}
}

// Views converts a slice of entries.
func Views(entries []domain.Entry) []EntryView {
	out := make([]EntryView, len(entries))
	for i := range entries {
		out[i] = View(&entries[i])
	}
	return out
}
