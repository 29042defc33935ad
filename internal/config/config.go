// Package config handles skillsync configuration: the TOML app config and the
// JSON preferences document shared with the desktop shell.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/aidanlsb/skillsync/internal/atomicfile"
)

// AppName names the per-user config, data and state subdirectories.
const AppName = "skillsync"

// Config represents the app configuration.
type Config struct {
	// StateFile is the sync state document (state.json by default).
	StateFile string `toml:"state_file,omitempty"`

	// PreferencesFile is the preferences document shared with the UI.
	PreferencesFile string `toml:"preferences_file,omitempty"`

	// ArchiveDir holds archived skill bundles.
	ArchiveDir string `toml:"archive_dir,omitempty"`

	// HistoryFile is the SQLite sync history ledger.
	HistoryFile string `toml:"history_file,omitempty"`

	// AuditFile is the append-only journal of skill mutations.
	AuditFile string `toml:"audit_file,omitempty"`

	// DevRoot is scanned non-recursively for project workspaces.
	DevRoot string `toml:"dev_root,omitempty"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `toml:"log_level,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `toml:"log_format,omitempty"`

	UI UIConfig `toml:"ui,omitempty"`
}

// UIConfig controls terminal presentation.
type UIConfig struct {
	// Accent is an ANSI 256 color code or a hex color; "none" disables it.
	Accent string `toml:"accent,omitempty"`

	// CodeTheme names the syntax theme used by `show` for fenced code.
	CodeTheme string `toml:"code_theme,omitempty"`
}

// DefaultPath returns $XDG_CONFIG_HOME/skillsync/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// Load loads the configuration from path. Returns a default config if the
// file doesn't exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveTo writes the config atomically.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// Paths are the fully resolved file locations for one invocation.
type Paths struct {
	Config      string
	State       string
	Preferences string
	Archive     string
	History     string
	Audit       string
	DevRoot     string
}

// Resolve computes every path. Explicit overrides win, then config values
// (relative ones resolve against the config file's directory), then XDG
// defaults.
func (c *Config) Resolve(configPath, explicitState, explicitPrefs string) Paths {
	configPath = ResolveConfigPath(configPath)
	configDir := filepath.Dir(configPath)

	pick := func(explicit, fromConfig, fallback string) string {
		if v := strings.TrimSpace(explicit); v != "" {
			return expandHome(v)
		}
		if v := strings.TrimSpace(fromConfig); v != "" {
			v = expandHome(v)
			if filepath.IsAbs(v) || strings.HasPrefix(filepath.ToSlash(v), "/") {
				return filepath.Clean(filepath.FromSlash(v))
			}
			return filepath.Join(configDir, filepath.FromSlash(v))
		}
		return fallback
	}

	home, _ := os.UserHomeDir()
	return Paths{
		Config:      configPath,
		State:       pick(explicitState, c.StateFile, filepath.Join(xdg.StateHome, AppName, "state.json")),
		Preferences: pick(explicitPrefs, c.PreferencesFile, filepath.Join(xdg.ConfigHome, AppName, "preferences.json")),
		Archive:     pick("", c.ArchiveDir, filepath.Join(xdg.DataHome, AppName, "archive")),
		History:     pick("", c.HistoryFile, filepath.Join(xdg.StateHome, AppName, "history.db")),
		Audit:       pick("", c.AuditFile, filepath.Join(xdg.StateHome, AppName, "audit.log")),
		DevRoot:     pick("", c.DevRoot, filepath.Join(home, "Development")),
	}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
