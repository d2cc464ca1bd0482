package export

import (
	"encoding/json"
	"io"
)

// JSON writes the entries as an indented JSON array.
func JSON(w io.Writer, entries []EntryView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
