package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestLoadDefaultsUnderDataDir(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	t.Setenv("DIARY_DATA_DIR", dir)

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB != filepath.Join(dir, "diary.db") {
		t.Errorf("DB = %q", cfg.DB)
	}
	if cfg.Audio.Dir != filepath.Join(dir, "recordings") {
		t.Errorf("Audio.Dir = %q", cfg.Audio.Dir)
	}
	if cfg.Storage != StorageSQLite || cfg.Audio.Ext != ".m4a" || cfg.Serve.Addr != ":8080" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFileAndEnvPrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	yaml := "storage: puresqlite\naudio:\n  ext: .wav\nlog:\n  level: debug\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DIARY_DATA_DIR", dir)
	t.Setenv("DIARY_LOG_LEVEL", "error")

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage != StoragePureSQLite || cfg.Audio.Ext != ".wav" {
		t.Errorf("config file ignored: %+v", cfg)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("env should win over file, got %q", cfg.Log.Level)
	}
}

func TestLoadDotEnvAndAnthropicKey(t *testing.T) {
	wd := t.TempDir()
	t.Chdir(wd)
	t.Setenv("DIARY_DATA_DIR", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")
	os.Unsetenv("ANTHROPIC_API_KEY")
	if err := os.WriteFile(filepath.Join(wd, ".env"), []byte("ANTHROPIC_API_KEY=sk-test\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Classifier.APIKey != "sk-test" {
		t.Fatalf("APIKey = %q", cfg.Classifier.APIKey)
	}
}

func TestFlagsOverrideEverything(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DIARY_DATA_DIR", t.TempDir())
	t.Setenv("DIARY_STORAGE", "puresqlite")

	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(v, fs); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := fs.Parse([]string{"--storage", "memory", "--db", "/tmp/x.db"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage != StorageMemory || cfg.DB != "/tmp/x.db" {
		t.Fatalf("flags ignored: %+v", cfg)
	}
}

func TestLoadRejectsUnknownStorage(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DIARY_DATA_DIR", t.TempDir())
	t.Setenv("DIARY_STORAGE", "postgres")

	if _, err := Load(viper.New()); err == nil {
		t.Fatal("expected error")
	}
}
