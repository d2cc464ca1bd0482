package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pbaille/schemadiary/internal/audio"
	"github.com/pbaille/schemadiary/internal/config"
	"github.com/pbaille/schemadiary/internal/diary"
	"github.com/pbaille/schemadiary/internal/domain"
	"github.com/pbaille/schemadiary/internal/observability"
	"github.com/pbaille/schemadiary/internal/store"
	"github.com/pbaille/schemadiary/internal/store/gormstore"
	"github.com/pbaille/schemadiary/internal/store/memory"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app holds what commands share. The store and audio store are opened on
// first use so commands like "modes" work without a data directory.
type app struct {
	v     *viper.Viper
	cfg   *config.Config
	log   *zap.Logger
	store domain.EntryStore
	audio *audio.Store
	svc   *diary.Service
}

func main() {
	a := &app{v: viper.New(), log: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "diary",
		Short:         "Schema therapy diary",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	if err := config.BindFlags(a.v, rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd.AddCommand(addCmd(a))
	rootCmd.AddCommand(editCmd(a))
	rootCmd.AddCommand(showCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(searchCmd(a))
	rootCmd.AddCommand(deleteCmd(a))
	rootCmd.AddCommand(modesCmd())
	rootCmd.AddCommand(statsCmd(a))
	rootCmd.AddCommand(recordCmd(a))
	rootCmd.AddCommand(playCmd(a))
	rootCmd.AddCommand(audioCmd(a))
	rootCmd.AddCommand(suggestCmd(a))
	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(serveCmd(a))

	err := rootCmd.Execute()
	a.log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		a.close()
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	log, err := observability.NewLogger(observability.LogOptions{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// open connects the entry store and the audio store and builds the service.
func (a *app) open() error {
	if a.svc != nil {
		return nil
	}

	s, err := openStore(a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	device := audio.CommandDevice{
		RecordCommand: audio.ParseCommand(a.cfg.Audio.RecordCommand),
		PlayCommand:   audio.ParseCommand(a.cfg.Audio.PlayCommand),
	}
	rec, err := audio.New(a.cfg.Audio.Dir, device,
		audio.WithExtension(a.cfg.Audio.Ext),
		audio.WithPermission(device.MicrophoneAvailable),
		audio.WithLogger(a.log.Named("audio")),
	)
	if err != nil {
		s.Close()
		return err
	}

	a.store, a.audio = s, rec
	a.svc = diary.NewService(s, rec, diary.WithLogger(a.log.Named("diary")))
	return nil
}

func (a *app) close() error {
	if a.audio != nil {
		a.audio.Close()
		a.audio = nil
	}
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	a.svc = nil
	return err
}

func openStore(cfg *config.Config, log *zap.Logger) (domain.EntryStore, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage; entries are lost on exit")
		return memory.NewEntryStore(), nil
	case config.StoragePureSQLite:
		return gormstore.Open(cfg.DB, log)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.DB), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		return store.New(cfg.DB)
	}
}
