package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chainkit.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"web3":{"chain_config":"chains.yaml"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30, cfg.Server.RequestTimeoutSeconds)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "chains.yaml"), cfg.Web3.ChainConfig)
	assert.Equal(t, map[string]string{"dev": "PRIVATE_KEY_DEV"}, cfg.Web3.Accounts)
	assert.Equal(t, "none", cfg.Cache.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"address": "127.0.0.1:9000", "request_timeout_seconds": 5},
		"web3": {"chain_config": "/etc/chainkit/chains.yaml", "accounts": {"ops": "OPS_KEY"}},
		"cache": {"driver": "redis", "ttl_seconds": 60, "redis": {"address": "localhost:6379"}},
		"log": {"level": "debug", "format": "text", "audit": {"enabled": true, "path": "logs/audit.log"}},
		"metrics": {"enabled": true, "address": ":9100"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.Equal(t, 5, cfg.Server.RequestTimeoutSeconds)
	assert.Equal(t, "/etc/chainkit/chains.yaml", cfg.Web3.ChainConfig)
	assert.Equal(t, map[string]string{"ops": "OPS_KEY"}, cfg.Web3.Accounts)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Address)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "logs", "audit.log"), cfg.Log.Audit.Path)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9100", cfg.Metrics.Address)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"server":`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"storage":{}}`))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvPath, "")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.Web3.ChainConfig)

	path := writeConfig(t, `{"server":{"address":":7000"}}`)
	t.Setenv(EnvPath, path)
	cfg, err = LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Address)
}

func TestLoadSampleConfig(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "chainkit.json")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "chains.yaml"), cfg.Web3.ChainConfig)
	assert.True(t, cfg.Metrics.Enabled)
}
