package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DB_PATH", "DB_DEBUG", "NATS_PORT", "SHUTDOWN_TIMEOUT", "TZ_NAME"} {
		t.Setenv(key, "")
	}

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "taskscape.db", cfg.DBPath)
	assert.False(t, cfg.DBDebug)
	assert.Equal(t, 4222, cfg.NATSPort)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/tasks.db")
	t.Setenv("DB_DEBUG", "true")
	t.Setenv("NATS_PORT", "5222")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("TZ_NAME", "Europe/Berlin")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tasks.db", cfg.DBPath)
	assert.True(t, cfg.DBDebug)
	assert.Equal(t, 5222, cfg.NATSPort)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_DEBUG", "maybe")
	t.Setenv("NATS_PORT", "port")
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	t.Setenv("TZ_NAME", "")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.DBDebug)
	assert.Equal(t, 4222, cfg.NATSPort)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfig_UnknownTimezone(t *testing.T) {
	t.Setenv("TZ_NAME", "Atlantis/Capital")

	_, err := loadConfig()
	assert.Error(t, err)
}
