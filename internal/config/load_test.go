package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EBBINGHAUS_DATABASE_URL", "postgres://localhost:5432/ebbinghaus")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "Asia/Yekaterinburg", cfg.Schedule.DefaultTimezone)
	assert.Equal(t, "07:00", cfg.Schedule.NotificationTime)
	assert.Equal(t, 4, cfg.Dispatcher.OverdueCheckHours)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EBBINGHAUS_DATABASE_URL", "postgres://localhost:5432/ebbinghaus")
	t.Setenv("EBBINGHAUS_SERVER_PORT", "9090")
	t.Setenv("EBBINGHAUS_SERVER_LOG_LEVEL", "debug")
	t.Setenv("EBBINGHAUS_SCHEDULE_DEFAULT_TIMEZONE", "Europe/Moscow")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "Europe/Moscow", cfg.Schedule.DefaultTimezone)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("EBBINGHAUS_DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("EBBINGHAUS_DATABASE_URL", "postgres://localhost:5432/ebbinghaus")
	t.Setenv("EBBINGHAUS_SERVER_LOG_LEVEL", "loud")

	_, err := Load()
	assert.Error(t, err)
}
