package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pbaille/schemadiary/internal/diary"
	"github.com/pbaille/schemadiary/internal/domain"
	"github.com/spf13/cobra"
)

func addCmd(a *app) *cobra.Command {
	var f *draftFlags

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Write a new entry",
		Long: "Write a new entry. Answers are given per slot, as text flags or\n" +
			"as recordings. Without --mode the entry is filed under " + string(domain.DefaultMode) + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			d := diary.Draft{Mode: domain.DefaultMode, Title: strings.Join(args, " ")}
			ds := &draftSession{a: a, cmd: cmd}
			if err := ds.apply(f, &d); err != nil {
				ds.settle(nil)
				return err
			}

			entry, err := a.svc.Create(d)
			if err != nil {
				ds.settle(nil)
				return err
			}
			ds.settle(entry)

			fmt.Printf("Added entry: %s\n", shortID(entry.ID))
			fmt.Printf("Mode: %s\n", entry.Mode())
			return nil
		},
	}

	f = addDraftFlags(cmd)
	return cmd
}

func editCmd(a *app) *cobra.Command {
	var f *draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an entry",
		Long: "Change an entry. Only the given flags are applied. Recordings the\n" +
			"entry no longer references afterwards are deleted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			original, err := a.svc.Get(args[0])
			if err != nil {
				return err
			}

			d := diary.DraftFrom(original)
			ds := &draftSession{a: a, cmd: cmd}
			if err := ds.apply(f, &d); err != nil {
				ds.settle(nil)
				return err
			}

			entry, err := a.svc.Edit(original.ID, d)
			if err != nil {
				ds.settle(nil)
				return err
			}
			ds.settle(entry)

			fmt.Printf("Updated entry: %s\n", shortID(entry.ID))
			return nil
		},
	}

	f = addDraftFlags(cmd)
	return cmd
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			entry, err := a.svc.Get(args[0])
			if err != nil {
				return err
			}

			printEntry(cmd.OutOrStdout(), entry, a.audio.Exists)
			return nil
		},
	}
}

func printEntry(w io.Writer, e *domain.Entry, exists func(string) bool) {
	mode := e.Mode()
	fmt.Fprintf(w, "ID:       %s\n", e.ID)
	fmt.Fprintf(w, "Date:     %s\n", e.Date.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Title:    %s\n", e.DisplayTitle())
	if string(mode) != e.SchemaMode {
		fmt.Fprintf(w, "Mode:     %s (%s; stored as %q)\n", mode, mode.Category(), e.SchemaMode)
	} else {
		fmt.Fprintf(w, "Mode:     %s (%s)\n", mode, mode.Category())
	}
	fmt.Fprintf(w, "Need met: %s\n", e.NeedMet())

	content := e.Content()
	for _, s := range domain.Slots() {
		field := content.Get(s)
		if field == nil || field.IsEmpty() {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", s.Label())
		if field.IsAudio {
			status := ""
			if !exists(field.Content) {
				status = " (missing)"
			}
			fmt.Fprintf(w, "  [recording] %s%s\n", field.Content, status)
			continue
		}
		for _, line := range strings.Split(field.Content, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

func listCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			entries, err := a.svc.List(limit, 0)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No entries yet.")
				return nil
			}

			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max entries to show (0 for all)")
	return cmd
}

func searchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles and written answers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			entries, err := a.svc.Search(strings.Join(args, " "))
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No matches.")
				return nil
			}

			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func printEntries(w io.Writer, entries []domain.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %-30s  %s\n",
			shortID(e.ID),
			e.Date.Local().Format("2006-01-02 15:04"),
			e.Mode(),
			truncate(e.DisplayTitle(), 40))
	}
}

func deleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry and its recordings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			entry, err := a.svc.Get(args[0])
			if err != nil {
				return err
			}

			n := len(entry.AudioFilenames())
			question := fmt.Sprintf("Delete %q (%s) and %d recording(s)?", entry.DisplayTitle(), shortID(entry.ID), n)
			if !yes && !confirm(cmd, question) {
				fmt.Println("Cancelled.")
				return nil
			}

			if err := a.svc.Delete(entry.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted entry: %s\n", shortID(entry.ID))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
