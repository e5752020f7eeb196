package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paraglidehq/snowflake"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snowflake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		require.NoError(t, cfg.Validate())
	})

	t.Run("yaml file", func(t *testing.T) {
		path := writeConfig(t, `
datacenter_id: 5
node_id: 10
format: base58
wait_interval: 100us
regression: reject
log:
  level: debug
  format: json
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.EqualValues(t, 5, cfg.DatacenterID)
		assert.EqualValues(t, 10, cfg.NodeID)
		assert.Equal(t, snowflake.FormatBase58, cfg.IDFormat())
		assert.Equal(t, 100*time.Microsecond, cfg.WaitInterval)
		assert.Equal(t, "reject", cfg.Regression)
		assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "node_id: 3\n"))
		require.NoError(t, err)
		assert.EqualValues(t, 3, cfg.NodeID)
		assert.Equal(t, "decimal", cfg.Format)
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "datacenter_id: [1, 2"))
		assert.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDatacenterID, "7")
	t.Setenv(EnvNodeID, "31")
	t.Setenv(EnvFormat, "hash")
	t.Setenv(EnvWaitInterval, "1ms")
	t.Setenv(EnvRegression, "reject")
	t.Setenv(EnvLogLevel, "warn")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	require.NoError(t, cfg.Validate())

	assert.EqualValues(t, 7, cfg.DatacenterID)
	assert.EqualValues(t, 31, cfg.NodeID)
	assert.Equal(t, snowflake.FormatHash, cfg.IDFormat())
	assert.Equal(t, time.Millisecond, cfg.WaitInterval)
	assert.Equal(t, "reject", cfg.Regression)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv(EnvDatacenterID, "five")
	t.Setenv(EnvWaitInterval, "soon")

	err := Default().ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvDatacenterID)
	assert.Contains(t, err.Error(), EnvWaitInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(*Config)
		wantErr string
	}{
		{"datacenter", func(c *Config) { c.DatacenterID = 32 }, "datacenter_id must be an integer n, where 0 ≤ n ≤ 31"},
		{"node", func(c *Config) { c.NodeID = -1 }, "node_id must be an integer n, where 0 ≤ n ≤ 31"},
		{"wait interval", func(c *Config) { c.WaitInterval = -time.Millisecond }, "wait_interval"},
		{"format", func(c *Config) { c.Format = "base36" }, "unknown format"},
		{"regression", func(c *Config) { c.Regression = "rewind" }, "unknown regression policy"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	cfg := Default()
	cfg.DatacenterID, cfg.NodeID = 40, 40
	err := cfg.Validate()
	assert.ErrorIs(t, err, snowflake.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "datacenter_id")
	assert.Contains(t, err.Error(), "node_id")
}

func TestNewGenerator(t *testing.T) {
	cfg := Default()
	cfg.DatacenterID, cfg.NodeID = 2, 9

	g, err := cfg.NewGenerator(nil)
	require.NoError(t, err)
	require.True(t, g.Configured())

	id, err := g.Next()
	require.NoError(t, err)
	assert.EqualValues(t, 2, id.Datacenter())
	assert.EqualValues(t, 9, id.Node())

	cfg.NodeID = 99
	_, err = cfg.NewGenerator(nil)
	assert.ErrorIs(t, err, snowflake.ErrInvalidConfiguration)
}
