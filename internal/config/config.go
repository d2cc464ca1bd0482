package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pbaille/schemadiary/internal/audio"
	"github.com/pbaille/schemadiary/internal/classifier"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	StorageSQLite     = "sqlite"
	StoragePureSQLite = "puresqlite"
	StorageMemory     = "memory"
)

type Config struct {
	DataDir    string           `mapstructure:"data_dir"`
	DB         string           `mapstructure:"db"`
	Storage    string           `mapstructure:"storage"`
	Audio      AudioConfig      `mapstructure:"audio"`
	Log        LogConfig        `mapstructure:"log"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Serve      ServeConfig      `mapstructure:"serve"`
}

type AudioConfig struct {
	Dir           string `mapstructure:"dir"`
	Ext           string `mapstructure:"ext"`
	RecordCommand string `mapstructure:"record_command"`
	PlayCommand   string `mapstructure:"play_command"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ClassifierConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// DefaultDataDir is ~/.schemadiary, or ./.schemadiary without a home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".schemadiary"
	}
	return filepath.Join(home, ".schemadiary")
}

// BindFlags registers the global flags on fs and binds them into v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("data-dir", "", "directory holding the database, recordings and config.yaml")
	fs.String("db", "", "database path (default <data-dir>/diary.db)")
	fs.String("storage", "", "storage backend: sqlite, puresqlite or memory")
	fs.String("log-level", "", "log level: debug, info, warn, error")

	for key, flag := range map[string]string{
		"data_dir":  "data-dir",
		"db":        "db",
		"storage":   "storage",
		"log.level": "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("db", "")
	v.SetDefault("storage", StorageSQLite)
	v.SetDefault("audio.dir", "")
	v.SetDefault("audio.ext", audio.DefaultExt)
	v.SetDefault("audio.record_command", audio.DefaultRecordCommand())
	v.SetDefault("audio.play_command", audio.DefaultPlayCommand())
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("classifier.api_key", "")
	v.SetDefault("classifier.model", classifier.DefaultModel)
	v.SetDefault("serve.addr", ":8080")
}

// Load resolves the configuration from, in order of precedence: bound
// flags, DIARY_* environment variables (a .env file in the working directory
// is loaded first), <data_dir>/config.yaml, and defaults.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	setDefaults(v)
	v.SetEnvPrefix("DIARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("classifier.api_key", "DIARY_CLASSIFIER_API_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return nil, err
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.DB == "" {
		cfg.DB = filepath.Join(cfg.DataDir, "diary.db")
	}
	if cfg.Audio.Dir == "" {
		cfg.Audio.Dir = filepath.Join(cfg.DataDir, "recordings")
	}

	switch cfg.Storage {
	case StorageSQLite, StoragePureSQLite, StorageMemory:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
	return &cfg, nil
}
