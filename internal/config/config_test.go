package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neekrasov/typedkv/internal/config"
)

func TestGetConfig_EmptyPath(t *testing.T) {
	t.Parallel()

	cfg, err := config.GetConfig("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7878", cfg.Network.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParseConfig_YAML(t *testing.T) {
	t.Parallel()

	raw := `
network:
  address: "0.0.0.0:9999"
  listeners: 8
  analyzers: 4
  idle_timeout: 10s
pipeline:
  queue_size: 64
  reply_timeout: 15s
expiration:
  interval: 2s
  batch: 10
logging:
  level: debug
auth:
  mode: static
  users:
    - username: alice
      level: admin
`

	cfg, err := config.ParseConfig(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.Network.Address)
	assert.Equal(t, 8, cfg.Network.Listeners)
	assert.Equal(t, 4, cfg.Network.Analyzers)
	assert.Equal(t, 10*time.Second, cfg.Network.IdleTimeout)
	assert.Equal(t, 64, cfg.Pipeline.QueueSize)
	assert.Equal(t, 15*time.Second, cfg.Pipeline.ReplyTimeout)
	assert.Equal(t, 2*time.Second, cfg.Expiration.Interval)
	assert.Equal(t, 10, cfg.Expiration.Batch)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NotNil(t, cfg.Auth)
	assert.Equal(t, "static", cfg.Auth.Mode)
	require.Len(t, cfg.Auth.Users, 1)
	assert.Equal(t, "alice", cfg.Auth.Users[0].Username)
}

func TestParseConfig_JSONFallback(t *testing.T) {
	t.Parallel()

	raw := `{"network": {"address": "127.0.0.1:8080"}, "logging": {"level": "warn"}}`

	cfg, err := config.ParseConfig(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Network.Address)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestParseConfig_DefaultsFillGaps(t *testing.T) {
	t.Parallel()

	cfg, err := config.ParseConfig(strings.NewReader("logging:\n  output: /tmp/logs\n"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7878", cfg.Network.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/tmp/logs", cfg.Logging.Output)
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Parallel()

	_, err := config.ParseConfig(strings.NewReader("{not valid at all"))
	assert.Error(t, err)
}
