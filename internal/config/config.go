package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvDataDir overrides the storage directory when set.
const EnvDataDir = "HOURS_DIR"

// Config is the root configuration for hours, stored in
// <user config dir>/hours/config.json. The file supports single-line //
// comments for documentation purposes.
type Config struct {
	Storage StorageConfig `json:"storage"`
	Log     LogConfig     `json:"log"`
	UI      UIConfig      `json:"ui"`
	Outlook OutlookConfig `json:"outlook"`
}

// StorageConfig controls where the entry logs live.
type StorageConfig struct {
	// Dir overrides the data directory. Empty means the config file's directory.
	Dir string `json:"dir"`
}

// LogConfig controls diagnostic output on stderr.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
	// Format is text or json.
	Format string `json:"format"`
}

// UIConfig controls terminal rendering.
type UIConfig struct {
	// Color is auto, always or never.
	Color string `json:"color"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `json:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `json:"client_id"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Berlin"). Empty = local.
	Timezone string `json:"timezone"`
}

const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultColor     = "auto"
	// DefaultTenantID is the Microsoft "common" tenant.
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID, usable for
	// the device code flow without a client secret or app registration.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
)

// Default returns a Config pre-filled with the built-in defaults.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		UI: UIConfig{Color: DefaultColor},
		Outlook: OutlookConfig{
			TenantID: DefaultTenantID,
			ClientID: DefaultClientID,
		},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing.
const configTemplate = `// hours configuration
//
// All settings are optional; the defaults below work out of the box.
{
  "storage": {
    // Directory holding entrys.csv and archive.csv.
    // Empty means the directory this file lives in.
    // The HOURS_DIR environment variable takes precedence.
    "dir": ""
  },

  "log": {
    // debug, info, warn or error. Diagnostics go to stderr.
    "level": "warn",
    // text or json
    "format": "text"
  },

  "ui": {
    // auto (colour only on a terminal), always or never
    "color": "auto"
  },

  // ── Microsoft Graph / Outlook calendar import ────────────────────────────
  "outlook": {
    // "common" for personal accounts, or your organisation's tenant GUID.
    "tenant_id": "common",

    // Public Azure CLI app; replace with your own app registration if needed.
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",

    // IANA timezone for calendar event times, e.g. "Europe/Berlin".
    // Empty uses the local timezone.
    "timezone": ""
  }
}
`

// FilePath returns the path of config.json inside dir.
func FilePath(dir string) string {
	return filepath.Join(dir, "config.json")
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config file at path, creating it with annotated defaults
// when it does not exist yet. A config that cannot be read or parsed
// returns the defaults together with the error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := writeDefault(path); writeErr != nil {
			return Default(), fmt.Errorf("could not create config file %s: %w", path, writeErr)
		}
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults back-fills zero-value fields so callers always get a usable
// Config even if the user only partially fills in the file.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.UI.Color == "" {
		c.UI.Color = d.UI.Color
	}
	if c.Outlook.TenantID == "" {
		c.Outlook.TenantID = d.Outlook.TenantID
	}
	if c.Outlook.ClientID == "" {
		c.Outlook.ClientID = d.Outlook.ClientID
	}
}

// DataDir resolves the storage directory: $HOURS_DIR, then storage.dir,
// then configDir itself. A leading ~ is expanded to the home directory.
func (c Config) DataDir(configDir string) string {
	dir := os.Getenv(EnvDataDir)
	if dir == "" {
		dir = c.Storage.Dir
	}
	if dir == "" {
		return configDir
	}
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
