package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.VerifyTTL)
	assert.Equal(t, time.Hour, cfg.ResetTTL)
	assert.Equal(t, time.Hour, cfg.UserCacheTTL)
	assert.Equal(t, "smtp", cfg.MailDriver)
	assert.Empty(t, cfg.ESAddrs())
	assert.Equal(t, 5*time.Minute, cfg.ESReindexInterval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SESSION_TTL", "24h")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("ELASTICSEARCH_ADDRS", "http://es:9200")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, []string{"http://es:9200"}, cfg.ESAddrs())
}

func TestLoad_RejectsUnknownMailDriver(t *testing.T) {
	t.Setenv("MAIL_DRIVER", "carrier-pigeon")
	_, err := Load()
	require.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}
