package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pbaille/schemadiary/internal/api"
	"github.com/pbaille/schemadiary/internal/classifier"
	"github.com/pbaille/schemadiary/internal/diary"
	"github.com/pbaille/schemadiary/internal/domain"
	"github.com/pbaille/schemadiary/internal/export"
	"github.com/spf13/cobra"
)

func modesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List schema modes by category",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, cat := range domain.Categories() {
				fmt.Fprintf(w, "%s\n", cat)
				for _, m := range domain.ModesIn(cat) {
					marker := ""
					if m == domain.DefaultMode {
						marker = " (default)"
					}
					fmt.Fprintf(w, "  %s%s\n", m, marker)
				}
			}
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise entries by mode and need",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			st, err := a.svc.Stats()
			if err != nil {
				return err
			}

			fmt.Printf("Entries:    %d\n", st.Total)
			fmt.Printf("Recordings: %d\n", st.Recordings)
			for _, cat := range domain.Categories() {
				if st.ByCategory[cat] == 0 {
					continue
				}
				fmt.Printf("\n%s: %d\n", cat, st.ByCategory[cat])
				for _, m := range domain.ModesIn(cat) {
					if n := st.ByMode[m]; n > 0 {
						fmt.Printf("  %-32s %d\n", m, n)
					}
				}
			}
			fmt.Printf("\nNeed met: yes %d, no %d, unsure %d\n",
				st.ByNeedMet[domain.NeedYes], st.ByNeedMet[domain.NeedNo], st.ByNeedMet[domain.NeedUnsure])
			return nil
		},
	}
}

func suggestCmd(a *app) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "suggest <id>",
		Short: "Ask the classifier which mode fits an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			entry, err := a.svc.Get(args[0])
			if err != nil {
				return err
			}

			clf, err := classifier.New(a.cfg.Classifier.APIKey, a.cfg.Classifier.Model,
				classifier.WithLogger(a.log.Named("classifier")))
			if err != nil {
				return err
			}

			fmt.Print("Classifying... ")
			s, err := clf.Suggest(cmd.Context(), entry)
			if err != nil {
				fmt.Println("failed")
				return err
			}
			fmt.Println("done")

			fmt.Printf("Suggested: %s (%s), confidence %.0f%%\n", s.Mode, s.Mode.Category(), s.Confidence*100)
			if s.Reason != "" {
				fmt.Printf("  %s\n", s.Reason)
			}

			if !apply || s.Mode == entry.Mode() {
				return nil
			}
			d := diary.DraftFrom(entry)
			d.Mode = s.Mode
			if _, err := a.svc.Edit(entry.ID, d); err != nil {
				return err
			}
			fmt.Printf("Mode changed from %s.\n", entry.Mode())
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "set the suggested mode on the entry")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var (
		format    string
		output    string
		audioBase string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all entries as HTML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "html" && format != "json" {
				return fmt.Errorf("unknown format %q (want html or json)", format)
			}
			if err := a.open(); err != nil {
				return err
			}

			entries, err := a.svc.List(0, 0)
			if err != nil {
				return err
			}
			views := export.Views(entries)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				bw := bufio.NewWriter(f)
				defer bw.Flush()
				w = bw
			}

			if format == "json" {
				return export.JSON(w, views)
			}
			if audioBase == "" {
				audioBase = "file://" + filepath.ToSlash(a.audio.Dir()) + "/"
			}
			return export.HTML(w, views, export.HTMLOptions{AudioBase: audioBase})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "html", "output format: html or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&audioBase, "audio-base", "", "prefix for recording links in HTML (default the recordings directory)")
	return cmd
}

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Serve.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Serving diary on %s\n", addr)
			return api.New(a.svc, a.audio, addr, a.log.Named("api")).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default serve.addr)")
	return cmd
}
