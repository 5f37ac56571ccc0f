package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateParses(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal(stripLineComments([]byte(configTemplate)), &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromWritesTemplateOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, configTemplate, string(data))
}

func TestLoadFromPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `// comment line
{
  // another comment
  "timezone": {"default": "America/Denver"},
  "mileage": {"rate_per_mile": 0}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "America/Denver", cfg.Timezone.Default)
	assert.Equal(t, DefaultRatePerMile, cfg.Mileage.RatePerMile)
	assert.Equal(t, DefaultUserID, cfg.UserID)
	assert.Equal(t, DefaultDriver, cfg.Database.Driver)
	assert.Equal(t, DefaultClientID, cfg.Outlook.ClientID)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user_id": "file-user", "timezone": {"default": "Europe/London"}}`), 0o600))

	t.Setenv("NTT_USER", "env-user")
	t.Setenv("NTT_DB_DRIVER", "pgx")
	t.Setenv("NTT_DB_DSN", "postgres://localhost/ntt")
	t.Setenv("NTT_MILEAGE_RATE", "0.5")
	t.Setenv("NTT_LOG_LEVEL", "debug")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.UserID)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/ntt", cfg.Database.DSN)
	assert.Equal(t, 0.5, cfg.Mileage.RatePerMile)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Not overridden: keeps the file value.
	assert.Equal(t, "Europe/London", cfg.Timezone.Default)
}

func TestLoadFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{bad json"), 0o600))

	cfg, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete the file")
	assert.Equal(t, Default(), cfg)
}

func TestDirHonoursEnv(t *testing.T) {
	t.Setenv("NTT_HOME", "/tmp/ntt-test-home")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ntt-test-home", dir)
}

func TestStripLineComments(t *testing.T) {
	in := "  // x\n{\"a\": \"http://example.com\"}\n\t// y\n"
	out := string(stripLineComments([]byte(in)))
	assert.Equal(t, "{\"a\": \"http://example.com\"}\n\n", out)
}
