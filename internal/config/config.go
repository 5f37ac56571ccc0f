package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	env "github.com/Netflix/go-env"
)

// Config is the root configuration for ntt, stored in ~/.ntt/config.json.
// The file supports single-line // comments for documentation purposes.
// Every field can be overridden with the NTT_* environment variable named in
// its env tag.
type Config struct {
	// UserID is the user whose shifts, mileage and updates commands act on.
	UserID   string         `json:"user_id" env:"NTT_USER"`
	Database DatabaseConfig `json:"database"`
	Timezone TimezoneConfig `json:"timezone"`
	Mileage  MileageConfig  `json:"mileage"`
	Log      LogConfig      `json:"log"`
	Outlook  OutlookConfig  `json:"outlook"`
}

// DatabaseConfig selects the backing store.
type DatabaseConfig struct {
	// Driver is "sqlite3" or "pgx".
	Driver string `json:"driver" env:"NTT_DB_DRIVER"`
	// DSN is a file path for sqlite3 or a postgres:// URL for pgx.
	// Empty with sqlite3 means ~/.ntt/ntt.db.
	DSN string `json:"dsn" env:"NTT_DB_DSN"`
}

// TimezoneConfig holds the zone used when a profile has none.
type TimezoneConfig struct {
	Default string `json:"default" env:"NTT_TIMEZONE"`
}

// MileageConfig holds reimbursement settings.
type MileageConfig struct {
	RatePerMile float64 `json:"rate_per_mile" env:"NTT_MILEAGE_RATE"`
}

// LogConfig configures diagnostics written to stderr.
type LogConfig struct {
	Level  string `json:"level" env:"NTT_LOG_LEVEL"`
	Format string `json:"format" env:"NTT_LOG_FORMAT"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `json:"tenant_id" env:"NTT_OUTLOOK_TENANT_ID"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `json:"client_id" env:"NTT_OUTLOOK_CLIENT_ID"`
	// Category, when set, limits imports to events carrying this Outlook category.
	Category string `json:"category" env:"NTT_OUTLOOK_CATEGORY"`
}

const (
	DefaultUserID      = "me"
	DefaultDriver      = "sqlite3"
	DefaultTimezone    = "America/New_York"
	DefaultRatePerMile = 0.67
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "console"
	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID.
	// It supports device code flow without a client secret and requires no
	// app registration.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
)

// Default returns a Config pre-filled with sensible defaults.
func Default() Config {
	return Config{
		UserID:   DefaultUserID,
		Database: DatabaseConfig{Driver: DefaultDriver},
		Timezone: TimezoneConfig{Default: DefaultTimezone},
		Mileage:  MileageConfig{RatePerMile: DefaultRatePerMile},
		Log:      LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Outlook:  OutlookConfig{TenantID: DefaultTenantID, ClientID: DefaultClientID},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// ntt configuration – ~/.ntt/config.json
//
// All settings are optional. Any value can also be set through the
// environment variable shown next to it.
{
  // User whose records commands act on (NTT_USER).
  "user_id": "me",

  // ── Storage ──────────────────────────────────────────────────────────────
  "database": {
    // "sqlite3" for a local file, "pgx" for a hosted Postgres (NTT_DB_DRIVER).
    "driver": "sqlite3",
    // File path or postgres:// URL. Empty = ~/.ntt/ntt.db (NTT_DB_DSN).
    "dsn": ""
  },

  // ── Time zone ────────────────────────────────────────────────────────────
  "timezone": {
    // IANA zone used when your profile has none, e.g. "America/Chicago".
    // Set your own with: ntt profile set --timezone <zone>  (NTT_TIMEZONE)
    "default": "America/New_York"
  },

  // ── Mileage ──────────────────────────────────────────────────────────────
  "mileage": {
    // Reimbursement per mile in dollars; 0.67 is the IRS standard rate (NTT_MILEAGE_RATE).
    "rate_per_mile": 0.67
  },

  // ── Diagnostics ──────────────────────────────────────────────────────────
  "log": {
    // trace, debug, info, warn, error or off (NTT_LOG_LEVEL).
    "level": "warn",
    // console or json (NTT_LOG_FORMAT).
    "format": "console"
  },

  // ── Microsoft Graph / Outlook calendar import ───────────────────────────
  "outlook": {
    // Azure AD tenant ID.
    // • "common"  – personal Microsoft accounts and any organisation (default)
    "tenant_id": "common",
    // Azure application (client) ID used for the OAuth2 device code flow.
    // The built-in value is the public Azure CLI app – no app registration needed.
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",
    // Only import events with this category, e.g. "Nanny". Empty = all busy events.
    "category": ""
  }
}
`

// Dir returns the ntt data directory (~/.ntt), honouring NTT_HOME.
func Dir() (string, error) {
	if dir := os.Getenv("NTT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".ntt"), nil
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

// Load reads <dir>/config.json, creating it with annotated defaults on first
// run, then applies NTT_* environment overrides.
func Load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Default(), err
	}
	return LoadFrom(filepath.Join(dir, "config.json"))
}

// LoadFrom is Load for an explicit config file path.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
	case err != nil:
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
			return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	for _, section := range []any{&cfg, &cfg.Database, &cfg.Timezone, &cfg.Mileage, &cfg.Log, &cfg.Outlook} {
		if _, err := env.UnmarshalFromEnviron(section); err != nil {
			return cfg, fmt.Errorf("reading NTT_* environment: %w", err)
		}
	}

	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults replaces zero-value fields with built-in defaults so callers
// always get a usable Config even if the user only partially fills in the file.
func (c *Config) fillDefaults() {
	d := Default()
	if c.UserID == "" {
		c.UserID = d.UserID
	}
	if c.Database.Driver == "" {
		c.Database.Driver = d.Database.Driver
	}
	if c.Timezone.Default == "" {
		c.Timezone.Default = d.Timezone.Default
	}
	if c.Mileage.RatePerMile <= 0 {
		c.Mileage.RatePerMile = d.Mileage.RatePerMile
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Outlook.TenantID == "" {
		c.Outlook.TenantID = d.Outlook.TenantID
	}
	if c.Outlook.ClientID == "" {
		c.Outlook.ClientID = d.Outlook.ClientID
	}
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
