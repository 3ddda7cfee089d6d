package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  port: 8080
jwt:
  secret: ` + secret + `
`))
	require.NoError(t, err)

	assert.False(t, cfg.UsesPostgres())
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Reconciliation.MaxSuggestions)
	assert.Equal(t, 10, cfg.Commission.DueDay)
	assert.Equal(t, 30, cfg.Import.StagingTTLMinutes)
	assert.Equal(t, "ledger_events", cfg.Events.ChannelPrefix)
	assert.Equal(t, "0 0 2 * * *", cfg.Scheduler.SweepOverdue)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "", cfg.GetGRPCAddress())
}

func TestParse_Postgres(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  host: 0.0.0.0
  port: 8080
  grpc_port: 9090
database:
  driver: pgx
  host: db
  user: ledger
  password: pw
  database: ledger
jwt:
  secret: ` + secret + `
commission:
  due_day: 5
`))
	require.NoError(t, err)
	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, "postgres://ledger:pw@db:5432/ledger?sslmode=disable", cfg.GetDatabaseConnectionString())
	assert.Equal(t, "0.0.0.0:9090", cfg.GetGRPCAddress())
	assert.Equal(t, 5, cfg.Commission.DueDay)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", secret)

	cfg, err := Parse([]byte("server:\n  port: 8080\n"))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.UsesRedis())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing port", "jwt:\n  secret: " + secret + "\n"},
		{"short secret", "server:\n  port: 80\njwt:\n  secret: short\n"},
		{"bad driver", "server:\n  port: 80\ndatabase:\n  driver: mysql\njwt:\n  secret: " + secret + "\n"},
		{"due day", "server:\n  port: 80\ncommission:\n  due_day: 31\njwt:\n  secret: " + secret + "\n"},
		{"postgres without user", "server:\n  port: 80\ndatabase:\n  host: db\njwt:\n  secret: " + secret + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("healthz"))
	assert.Equal(t, SecurityService, GetSecurityLevel("obligations.sweep"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("payments.create"))
}
