// Package config loads memos settings from <profile>/config.yaml, MEMOS_*
// environment variables and a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/miosa/osa-memos/logger"
	"github.com/miosa/osa-memos/ui/list"
)

const (
	dirName  = ".memos"
	fileName = "config.yaml"
	envName  = "MEMOS"
)

// Source kinds.
const (
	SourceFiles  = "files"
	SourceRemote = "remote"
	SourceSQLite = "sqlite"
)

// ThemeAuto picks dark or light from the terminal background.
const ThemeAuto = "auto"

type Config struct {
	Theme  string       `mapstructure:"theme" yaml:"theme"`
	Source SourceConfig `mapstructure:"source" yaml:"source"`
	List   ListConfig   `mapstructure:"list" yaml:"list"`
	Scroll ScrollConfig `mapstructure:"scroll" yaml:"scroll"`
	Remote RemoteConfig `mapstructure:"remote" yaml:"remote"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type SourceConfig struct {
	Kind string `mapstructure:"kind" yaml:"kind"`
	Dir  string `mapstructure:"dir" yaml:"dir"`
	URL  string `mapstructure:"url" yaml:"url"`
	DB   string `mapstructure:"db" yaml:"db"`
	Tag  string `mapstructure:"tag" yaml:"tag,omitempty"`
}

type ListConfig struct {
	BatchSize         int `mapstructure:"batch_size" yaml:"batch_size"`
	Breakpoint        int `mapstructure:"breakpoint" yaml:"breakpoint"`
	PlaceholderHeight int `mapstructure:"placeholder_height" yaml:"placeholder_height"`
	CollapseLines     int `mapstructure:"collapse_lines" yaml:"collapse_lines"`
}

type ScrollConfig struct {
	Backward          float64       `mapstructure:"backward" yaml:"backward"`
	Forward           float64       `mapstructure:"forward" yaml:"forward"`
	Noise             float64       `mapstructure:"noise" yaml:"noise"`
	Home              int           `mapstructure:"home" yaml:"home"`
	HideDistance      int           `mapstructure:"hide_distance" yaml:"hide_distance"`
	Interval          time.Duration `mapstructure:"interval" yaml:"interval"`
	ResizeInterval    time.Duration `mapstructure:"resize_interval" yaml:"resize_interval"`
	RemeasureInterval time.Duration `mapstructure:"remeasure_interval" yaml:"remeasure_interval"`
}

type RemoteConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

type ServerConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Mode     string `mapstructure:"mode" yaml:"mode"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ProfileDir returns ~/.memos, or .memos in the working directory when the
// home directory is unknown.
func ProfileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

// DefaultPath returns the config file inside the profile directory.
func DefaultPath() string {
	return filepath.Join(ProfileDir(), fileName)
}

func setDefaults(v *viper.Viper) {
	profile := ProfileDir()
	d := list.DefaultConfig()

	v.SetDefault("theme", ThemeAuto)

	v.SetDefault("source.kind", SourceFiles)
	v.SetDefault("source.dir", filepath.Join(profile, "memos"))
	v.SetDefault("source.url", "http://localhost:8080")
	v.SetDefault("source.db", filepath.Join(profile, "memos.db"))
	v.SetDefault("source.tag", "")

	v.SetDefault("list.batch_size", d.BatchSize)
	v.SetDefault("list.breakpoint", 0)
	v.SetDefault("list.placeholder_height", d.PlaceholderHeight)
	v.SetDefault("list.collapse_lines", 6)

	v.SetDefault("scroll.backward", d.Thresholds.Backward)
	v.SetDefault("scroll.forward", d.Thresholds.Forward)
	v.SetDefault("scroll.noise", d.Thresholds.Noise)
	v.SetDefault("scroll.home", d.Thresholds.Home)
	v.SetDefault("scroll.hide_distance", d.Thresholds.HideDistance)
	v.SetDefault("scroll.interval", d.ScrollInterval)
	v.SetDefault("scroll.resize_interval", d.ResizeInterval)
	v.SetDefault("scroll.remeasure_interval", d.RemeasureInterval)

	v.SetDefault("remote.timeout", 10*time.Second)
	v.SetDefault("remote.cache_ttl", 5*time.Minute)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.page_size", 10)

	ld := logger.DefaultConfig()
	v.SetDefault("log.level", ld.Level)
	v.SetDefault("log.format", ld.Format)
	v.SetDefault("log.file", filepath.Join(profile, "memos.log"))
	v.SetDefault("log.max_size", ld.MaxSize)
	v.SetDefault("log.max_backups", ld.MaxBackups)
	v.SetDefault("log.max_age", ld.MaxAge)
	v.SetDefault("log.compress", ld.Compress)
}

// Load reads the config file at path. An empty path means the profile
// config, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(ProfileDir())
	}

	v.SetEnvPrefix(envName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path (the profile config when empty), creating the
// directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SaveTheme sets only the theme key in the file at path (the profile config
// when empty), keeping every other key as written.
func SaveTheme(path, theme string) error {
	if path == "" {
		path = DefaultPath()
	}
	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to decode config: %w", err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to read config file: %w", err)
	}
	doc["theme"] = theme

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

// Paging maps the list and scroll sections onto list.Config.
func (c *Config) Paging() list.Config {
	return list.Config{
		BatchSize:         c.List.BatchSize,
		Breakpoint:        c.List.Breakpoint,
		PlaceholderHeight: c.List.PlaceholderHeight,
		Thresholds: list.Thresholds{
			Backward:     c.Scroll.Backward,
			Forward:      c.Scroll.Forward,
			Noise:        c.Scroll.Noise,
			Home:         c.Scroll.Home,
			HideDistance: c.Scroll.HideDistance,
		},
		ScrollInterval:    c.Scroll.Interval,
		ResizeInterval:    c.Scroll.ResizeInterval,
		RemeasureInterval: c.Scroll.RemeasureInterval,
	}
}

// Logger maps the log section onto logger.Config.
func (c *Config) Logger(stderr bool) logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
		Stderr:     stderr,
	}
}
