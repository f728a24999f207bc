// Package config loads daytick settings from a YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/daytick/internal/store"
)

const (
	appName        = "daytick"
	configFileName = "config.yaml"
)

// Config holds every tunable shared by the daemon, the popup and the
// notification window.
type Config struct {
	DBPath     string
	SocketPath string

	FocusDuration time.Duration
	BreakDuration time.Duration

	RedrawTick   time.Duration
	GracePeriod  time.Duration
	ErrorDisplay time.Duration
	SurfaceLease time.Duration
	Heartbeat    time.Duration

	NotifyWidth  int
	NotifyHeight int
	// Terminal is the launcher prefix used to open a freestanding popup,
	// e.g. ["x-terminal-emulator", "-e"].
	Terminal []string

	LogLevel slog.Level
	LogFile  string

	// RetentionDays is how many days of tasks before today are kept.
	RetentionDays int
}

// Default returns the built-in settings.
func Default() Config {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		dbPath = filepath.Join(os.TempDir(), appName, "daytick.db")
	}
	return Config{
		DBPath:        dbPath,
		SocketPath:    DefaultSocketPath(),
		FocusDuration: 25 * time.Minute,
		BreakDuration: 5 * time.Minute,
		RedrawTick:    100 * time.Millisecond,
		GracePeriod:   time.Second,
		ErrorDisplay:  1500 * time.Millisecond,
		SurfaceLease:  10 * time.Second,
		Heartbeat:     3 * time.Second,
		NotifyWidth:   360,
		NotifyHeight:  400,
		Terminal:      []string{"x-terminal-emulator", "-e"},
		LogLevel:      slog.LevelInfo,
		RetentionDays: 2,
	}
}

// DefaultSocketPath prefers $XDG_RUNTIME_DIR and falls back to a per-user
// name in the temp directory.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName+".sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d.sock", appName, os.Getuid()))
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, configFileName), nil
}

// DurationFor returns the default session length of mode.
func (c Config) DurationFor(mode store.Mode) time.Duration {
	if mode == store.ModeBreak {
		return c.BreakDuration
	}
	return c.FocusDuration
}

type yamlConfig struct {
	DBPath        string   `yaml:"db_path,omitempty"`
	SocketPath    string   `yaml:"socket_path,omitempty"`
	FocusMinutes  float64  `yaml:"focus_minutes,omitempty"`
	BreakMinutes  float64  `yaml:"break_minutes,omitempty"`
	RedrawTickMs  int      `yaml:"redraw_tick_ms,omitempty"`
	GraceMs       int      `yaml:"grace_ms,omitempty"`
	ErrorMs       int      `yaml:"error_display_ms,omitempty"`
	LeaseSeconds  int      `yaml:"surface_lease_seconds,omitempty"`
	HeartbeatMs   int      `yaml:"heartbeat_ms,omitempty"`
	NotifyWidth   int      `yaml:"notify_width,omitempty"`
	NotifyHeight  int      `yaml:"notify_height,omitempty"`
	Terminal      []string `yaml:"terminal,omitempty"`
	LogLevel      string   `yaml:"log_level,omitempty"`
	LogFile       string   `yaml:"log_file,omitempty"`
	RetentionDays *int     `yaml:"retention_days,omitempty"`
}

// Load reads path (DefaultPath when empty). A missing file yields defaults.
// Environment variables are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			applyEnv(&cfg)
			return cfg, err
		}
	}

	rawData, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config file: %w", err)
	default:
		var fileData yamlConfig
		if err := yaml.Unmarshal(rawData, &fileData); err != nil {
			return cfg, fmt.Errorf("parse config yaml: %w", err)
		}
		applyYAML(&cfg, fileData)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	serialized, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Marshal renders cfg in the file format Load reads.
func Marshal(cfg Config) ([]byte, error) {
	retention := cfg.RetentionDays
	fileData := yamlConfig{
		DBPath:        cfg.DBPath,
		SocketPath:    cfg.SocketPath,
		FocusMinutes:  cfg.FocusDuration.Minutes(),
		BreakMinutes:  cfg.BreakDuration.Minutes(),
		RedrawTickMs:  int(cfg.RedrawTick / time.Millisecond),
		GraceMs:       int(cfg.GracePeriod / time.Millisecond),
		ErrorMs:       int(cfg.ErrorDisplay / time.Millisecond),
		LeaseSeconds:  int(cfg.SurfaceLease / time.Second),
		HeartbeatMs:   int(cfg.Heartbeat / time.Millisecond),
		NotifyWidth:   cfg.NotifyWidth,
		NotifyHeight:  cfg.NotifyHeight,
		Terminal:      cfg.Terminal,
		LogLevel:      strings.ToLower(cfg.LogLevel.String()),
		LogFile:       cfg.LogFile,
		RetentionDays: &retention,
	}
	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return nil, fmt.Errorf("marshal config yaml: %w", err)
	}
	return serialized, nil
}

func applyYAML(cfg *Config, fileData yamlConfig) {
	if fileData.DBPath != "" {
		cfg.DBPath = expandHome(fileData.DBPath)
	}
	if fileData.SocketPath != "" {
		cfg.SocketPath = expandHome(fileData.SocketPath)
	}
	if fileData.FocusMinutes > 0 {
		cfg.FocusDuration = minutes(fileData.FocusMinutes)
	}
	if fileData.BreakMinutes > 0 {
		cfg.BreakDuration = minutes(fileData.BreakMinutes)
	}
	if fileData.RedrawTickMs >= 10 {
		cfg.RedrawTick = time.Duration(fileData.RedrawTickMs) * time.Millisecond
	}
	if fileData.GraceMs > 0 {
		cfg.GracePeriod = time.Duration(fileData.GraceMs) * time.Millisecond
	}
	if fileData.ErrorMs > 0 {
		cfg.ErrorDisplay = time.Duration(fileData.ErrorMs) * time.Millisecond
	}
	if fileData.LeaseSeconds > 0 {
		cfg.SurfaceLease = time.Duration(fileData.LeaseSeconds) * time.Second
	}
	if fileData.HeartbeatMs > 0 {
		cfg.Heartbeat = time.Duration(fileData.HeartbeatMs) * time.Millisecond
	}
	if fileData.NotifyWidth >= 200 {
		cfg.NotifyWidth = fileData.NotifyWidth
	}
	if fileData.NotifyHeight >= 200 {
		cfg.NotifyHeight = fileData.NotifyHeight
	}
	if len(fileData.Terminal) > 0 {
		cfg.Terminal = fileData.Terminal
	}
	if level, ok := parseLevel(fileData.LogLevel); ok {
		cfg.LogLevel = level
	}
	if fileData.LogFile != "" {
		cfg.LogFile = expandHome(fileData.LogFile)
	}
	if fileData.RetentionDays != nil && *fileData.RetentionDays >= 0 {
		cfg.RetentionDays = *fileData.RetentionDays
	}

	// A heartbeat must renew the lease before it lapses.
	if cfg.Heartbeat >= cfg.SurfaceLease {
		cfg.Heartbeat = cfg.SurfaceLease / 3
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DAYTICK_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DAYTICK_SOCKET"); v != "" {
		cfg.SocketPath = v
	}
	if v := os.Getenv("DAYTICK_LOG_LEVEL"); v != "" {
		if level, ok := parseLevel(v); ok {
			cfg.LogLevel = level
		}
	}
	if v := os.Getenv("DAYTICK_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("DAYTICK_FOCUS_MINUTES"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.FocusDuration = minutes(n)
		}
	}
	if v := os.Getenv("DAYTICK_BREAK_MINUTES"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.BreakDuration = minutes(n)
		}
	}
}

func parseLevel(s string) (slog.Level, bool) {
	if s == "" {
		return 0, false
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, false
	}
	return level, true
}

func minutes(n float64) time.Duration {
	return time.Duration(n * float64(time.Minute)).Round(time.Second)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
