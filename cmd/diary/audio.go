package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/pbaille/schemadiary/internal/diary"
	"github.com/spf13/cobra"
)

func recordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "record <id> <slot>",
		Short: "Record an answer for one slot of an entry",
		Long: "Record an answer for one slot of an entry. A recording the slot held\n" +
			"before is deleted once the entry is saved.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			original, err := a.svc.Get(args[0])
			if err != nil {
				return err
			}
			slot, err := parseSlot(args[1])
			if err != nil {
				return err
			}

			ds := &draftSession{a: a, cmd: cmd}
			d := diary.DraftFrom(original)
			if err := ds.apply(&draftFlags{record: []string{string(slot)}}, &d); err != nil {
				ds.settle(nil)
				return err
			}

			entry, err := a.svc.Edit(original.ID, d)
			if err != nil {
				ds.settle(nil)
				return err
			}
			ds.settle(entry)
			return nil
		},
	}
}

func playCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "play <id> <slot> | play <file>",
		Short: "Play a recording",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			name := args[0]
			if len(args) == 2 {
				entry, err := a.svc.Get(args[0])
				if err != nil {
					return err
				}
				slot, err := parseSlot(args[1])
				if err != nil {
					return err
				}
				field := entry.Field(slot)
				if field == nil || !field.IsAudio || field.IsEmpty() {
					return fmt.Errorf("%s has no recording for %s", shortID(entry.ID), strings.ToLower(slot.Label()))
				}
				name = field.Content
			}

			if !a.audio.Play(name) {
				return fmt.Errorf("cannot play %s", name)
			}
			session, ok := a.audio.Playback()
			if !ok {
				return nil
			}

			fmt.Printf("Playing %s (Ctrl-C to stop)\n", name)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			select {
			case <-session.Done():
			case <-ctx.Done():
				a.audio.StopPlayback()
			}
			return nil
		},
	}
}

func audioCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Inspect the recordings directory",
	}
	cmd.AddCommand(audioCheckCmd(a))
	return cmd
}

func audioCheckCmd(a *app) *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Find recordings that are missing or no longer referenced",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			report, err := a.svc.Check(a.audio)
			if err != nil {
				return err
			}

			fmt.Printf("Recordings referenced: %d\n", report.Referenced)

			missing := make([]string, 0, len(report.Missing))
			for name := range report.Missing {
				missing = append(missing, name)
			}
			sort.Strings(missing)
			for _, name := range missing {
				ids := report.Missing[name]
				short := make([]string, len(ids))
				for i, id := range ids {
					short[i] = shortID(id)
				}
				fmt.Printf("  missing  %s  (entries %s)\n", name, strings.Join(short, ", "))
			}
			for _, name := range report.Orphans {
				fmt.Printf("  orphan   %s\n", name)
			}

			if report.Consistent() {
				fmt.Println("Recordings directory is consistent.")
				return nil
			}
			if prune && len(report.Orphans) > 0 {
				n := a.svc.Prune(report)
				fmt.Printf("Deleted %d orphaned recording(s).\n", n)
			}
			if len(report.Missing) > 0 {
				return errors.New("some entries reference recordings that are gone")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "delete orphaned recordings")
	return cmd
}
