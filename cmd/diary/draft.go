package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pbaille/schemadiary/internal/diary"
	"github.com/pbaille/schemadiary/internal/domain"
	"github.com/spf13/cobra"
)

// draftFlags are the form fields shared by add and edit.
type draftFlags struct {
	mode   string
	title  string
	need   string
	slots  map[domain.Slot]*string
	record []string
	attach []string
	clear  []string
}

func addDraftFlags(cmd *cobra.Command) *draftFlags {
	f := &draftFlags{slots: make(map[domain.Slot]*string)}
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "schema mode (see 'diary modes')")
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "entry title")
	cmd.Flags().StringVar(&f.need, "need", "", "was the need met: yes, no or unsure")
	for _, s := range domain.Slots() {
		f.slots[s] = cmd.Flags().String(slotFlag(s), "", s.Label()+" (text)")
	}
	cmd.Flags().StringSliceVar(&f.record, "record", nil, "record audio for a slot, e.g. --record feelings")
	cmd.Flags().StringSliceVar(&f.attach, "attach", nil, "attach an audio file to a slot, e.g. --attach thoughts=note.m4a")
	cmd.Flags().StringSliceVar(&f.clear, "clear", nil, "clear a slot")
	return f
}

// slotFlag turns a slot key into a flag name: physicalAwareness becomes
// physical-awareness.
func slotFlag(s domain.Slot) string {
	var b strings.Builder
	for i, r := range string(s) {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseMode matches a mode name case-insensitively.
func parseMode(s string) (domain.SchemaMode, error) {
	s = strings.TrimSpace(s)
	for _, m := range domain.AllModes() {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown schema mode %q (see 'diary modes')", s)
}

func parseSlot(s string) (domain.Slot, error) {
	slot, ok := domain.ParseSlot(s)
	if !ok {
		return "", fmt.Errorf("unknown slot %q", s)
	}
	return slot, nil
}

// draftSession applies flags to a working copy. It remembers the recordings
// it creates so they can be dropped if the copy is discarded or a later flag
// replaces them.
type draftSession struct {
	a    *app
	cmd  *cobra.Command
	made []string
	in   *bufio.Reader
}

// input returns one reader over the command's stdin for the whole session,
// so lines buffered for one recording stay available to the next.
func (ds *draftSession) input() *bufio.Reader {
	if ds.in == nil {
		ds.in = bufio.NewReader(ds.cmd.InOrStdin())
	}
	return ds.in
}

func (ds *draftSession) apply(f *draftFlags, d *diary.Draft) error {
	flags := ds.cmd.Flags()

	if flags.Changed("mode") {
		m, err := parseMode(f.mode)
		if err != nil {
			return err
		}
		d.Mode = m
	}
	if flags.Changed("title") {
		d.Title = f.title
	}
	if flags.Changed("need") {
		n, err := domain.ParseNeedMet(strings.TrimSpace(f.need))
		if err != nil {
			return err
		}
		d.NeedMet = n
	}

	for _, s := range domain.Slots() {
		if !flags.Changed(slotFlag(s)) {
			continue
		}
		text := *f.slots[s]
		if strings.TrimSpace(text) == "" {
			d.Content.Set(s, nil)
			continue
		}
		field := domain.Text(text)
		d.Content.Set(s, &field)
	}

	for _, name := range f.clear {
		s, err := parseSlot(name)
		if err != nil {
			return err
		}
		d.Content.Set(s, nil)
	}

	for _, arg := range f.attach {
		slotName, path, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("--attach wants slot=path, got %q", arg)
		}
		s, err := parseSlot(slotName)
		if err != nil {
			return err
		}
		name, err := ds.importFile(path)
		if err != nil {
			return err
		}
		field := domain.Audio(name)
		d.Content.Set(s, &field)
	}

	for _, slotName := range f.record {
		s, err := parseSlot(slotName)
		if err != nil {
			return err
		}
		name, err := ds.recordSlot(s)
		if err != nil {
			return err
		}
		field := domain.Audio(name)
		d.Content.Set(s, &field)
	}
	return nil
}

func (ds *draftSession) importFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("attach: %w", err)
	}
	defer file.Close()

	name, ok := ds.a.audio.Import(file, filepath.Ext(path))
	if !ok {
		return "", fmt.Errorf("attach %s: file could not be stored", path)
	}
	ds.made = append(ds.made, name)
	return name, nil
}

func (ds *draftSession) recordSlot(s domain.Slot) (string, error) {
	if !ds.a.audio.StartRecording() {
		return "", errors.New("cannot record: microphone unavailable (check audio.record_command)")
	}
	fmt.Fprintf(ds.cmd.OutOrStdout(), "Recording %s... press Enter to stop.\n", strings.ToLower(s.Label()))

	ctx, stop := signal.NotifyContext(ds.cmd.Context(), os.Interrupt)
	defer stop()
	if err := waitForEnter(ctx, ds.input()); err != nil {
		ds.a.audio.Close()
		return "", err
	}

	name, ok := ds.a.audio.StopRecording()
	if !ok {
		return "", errors.New("recording produced no audio")
	}
	ds.made = append(ds.made, name)
	fmt.Fprintf(ds.cmd.OutOrStdout(), "Saved %s\n", name)
	return name, nil
}

// settle deletes recordings made in this session that the saved entry does
// not reference. With a nil saved entry every one of them is dropped.
func (ds *draftSession) settle(saved *domain.Entry) {
	var keep []string
	if saved != nil {
		keep = saved.AudioFilenames()
	}
	for _, name := range diary.Difference(ds.made, keep) {
		ds.a.audio.DeleteRecording(name)
	}
}

// waitForEnter blocks until a line is read from r or ctx ends.
func waitForEnter(ctx context.Context, r *bufio.Reader) error {
	done := make(chan error, 1)
	go func() {
		_, err := r.ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// confirm asks a yes/no question on the command's streams.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
