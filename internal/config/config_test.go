package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_EXPIRY", "")
	t.Setenv("OAUTH_STATE_TTL", "")
	t.Setenv("UPLOAD_BATCH_SIZE", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 10*time.Minute, cfg.OAuthStateTTL)
	assert.Equal(t, 50, cfg.UploadBatchSize)
	assert.Equal(t, "clips/", cfg.CommonVoicePrefix)
}

func TestLoadFallsBackOnGarbage(t *testing.T) {
	t.Setenv("JWT_REFRESH_EXPIRY", "soon")
	t.Setenv("UPLOAD_BATCH_SIZE", "-3")
	t.Setenv("OAUTH_HTTP_TIMEOUT", "3s")

	cfg := Load()

	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, 50, cfg.UploadBatchSize)
	assert.Equal(t, 3*time.Second, cfg.OAuthHTTPTimeout)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5433", DBSSLMode: "require"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5433 sslmode=require TimeZone=UTC", cfg.DSN())
}
