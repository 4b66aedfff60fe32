package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LEDGER_PRIMARY__ENV", "local")
	t.Setenv("LEDGER_SERVER__PORT", "8080")
	t.Setenv("LEDGER_SERVER__READ_TIMEOUT", "30")
	t.Setenv("LEDGER_SERVER__WRITE_TIMEOUT", "30")
	t.Setenv("LEDGER_SERVER__IDLE_TIMEOUT", "60")
	t.Setenv("LEDGER_SERVER__CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("LEDGER_DATABASE__DRIVER", "sqlite")
	t.Setenv("LEDGER_DATABASE__PATH", "ledger.db")
}

func TestLoadConfigSQLiteDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "ledger.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Ledger.ConfirmTTL)
	assert.False(t, cfg.Notifications.Enabled)
	assert.True(t, cfg.IsLocal())

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, "local", cfg.Observability.Environment)
}

func TestLoadConfigOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LEDGER_LEDGER__CONFIRM_TTL", "2m")
	t.Setenv("LEDGER_RATE_LIMIT__REQUESTS_PER_SECOND", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Ledger.ConfirmTTL)
	assert.InDelta(t, 5.0, cfg.RateLimit.RequestsPerSecond, 0.001)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"LEDGER_DATABASE__DRIVER": "mysql"}},
		{"postgres without host", map[string]string{"LEDGER_DATABASE__DRIVER": "postgres"}},
		{"sqlite without path", map[string]string{"LEDGER_DATABASE__PATH": ""}},
		{"notifications without redis", map[string]string{
			"LEDGER_NOTIFICATIONS__ENABLED":        "true",
			"LEDGER_NOTIFICATIONS__RESEND_API_KEY": "re_test",
			"LEDGER_NOTIFICATIONS__FROM":           "ledger@example.com",
			"LEDGER_NOTIFICATIONS__RECIPIENT":      "plant@example.com",
		}},
		{"notifications without recipient", map[string]string{
			"LEDGER_NOTIFICATIONS__ENABLED":        "true",
			"LEDGER_NOTIFICATIONS__RESEND_API_KEY": "re_test",
			"LEDGER_NOTIFICATIONS__FROM":           "ledger@example.com",
			"LEDGER_REDIS__ADDRESS":                "localhost:6379",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
