package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hours", "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err, "template should be written")

	// The written template must parse back to the same defaults.
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), again)
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `// partial
{
  "log": { "level": "debug" },
  "storage": { "dir": "/tmp/hours-data" }
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultColor, cfg.UI.Color)
	assert.Equal(t, DefaultTenantID, cfg.Outlook.TenantID)
	assert.Equal(t, "/tmp/hours-data", cfg.Storage.Dir)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{bad json"), 0o600))

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestStripLineComments(t *testing.T) {
	in := []byte("// header\n{\n  // inner\n  \"a\": 1\n}\n")
	assert.Equal(t, "{\n  \"a\": 1\n}\n\n", string(stripLineComments(in)))
}

func TestDataDir(t *testing.T) {
	t.Setenv(EnvDataDir, "")

	cfg := Default()
	assert.Equal(t, "/cfg/hours", cfg.DataDir("/cfg/hours"))

	cfg.Storage.Dir = "/data"
	assert.Equal(t, "/data", cfg.DataDir("/cfg/hours"))

	t.Setenv(EnvDataDir, "/env")
	assert.Equal(t, "/env", cfg.DataDir("/cfg/hours"))
}
