package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Valid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Storage.DataDir)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout.Duration())
}

func TestConfig_JSONRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Storage.DataDir = "/tmp/dat"
	cfg.DNS.Timeout = Duration(2 * time.Second)

	data, err := cfg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timeout": "2s"`)

	back, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestFromJSON_PartialAndDefaults(t *testing.T) {
	cfg, err := FromJSON([]byte(`{
		"storage": {"data_dir": "./d"},
		"defaults": {"persist": true, "driveOptions": {"sparse": true}}
	}`))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("d", "dat.db"), cfg.Storage.DBPath())
	assert.True(t, cfg.Defaults.ShouldPersist())
	assert.True(t, cfg.Defaults.DriveOptions.IsSparse())
	assert.Equal(t, 256, cfg.DNS.CacheSize)
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte(`{"log": {"format": "xml"}}`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`{"dns": {"min_ttl": "2h", "max_ttl": "1h"}}`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`{"gateway": {"timeout": "soon"}}`))
	assert.Error(t, err)
}

func TestDuration_Number(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`1000000000`)))
	assert.Equal(t, time.Second, d.Duration())
	assert.Equal(t, "1s", d.String())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dat.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"storage": {"data_dir": "/from/file"},
		"gateway": {"listen": ":8080", "timeout": "5s"}
	}`), 0o644))

	t.Setenv("DAT_GATEWAY_LISTEN", ":9090")
	t.Setenv("DAT_DNS_CACHE_SIZE", "10")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/from/file", cfg.Storage.DataDir)
	assert.Equal(t, ":9090", cfg.Gateway.Listen)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout.Duration())
	assert.Equal(t, 10, cfg.DNS.CacheSize)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
