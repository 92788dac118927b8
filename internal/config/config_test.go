package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.False(t, cfg.HTTP.EnableHTTPS)
	assert.Contains(t, cfg.Database.DSN, "postgres://")
	assert.Equal(t, "linkpage-media", cfg.Storage.Bucket)
	assert.Empty(t, cfg.Storage.PublicURL, "media is app-served by default")
	assert.Equal(t, []string{"admin", "user"}, cfg.Public.FallbackUsernames)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HTTP_ENABLE_HTTPS", "true")
	t.Setenv("PUBLIC_FALLBACK_USERNAMES", "landing,demo")
	t.Setenv("MINIO_PUBLIC_URL", "https://media.example.com")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.True(t, cfg.HTTP.EnableHTTPS)
	assert.Equal(t, []string{"landing", "demo"}, cfg.Public.FallbackUsernames)
	assert.Equal(t, "https://media.example.com", cfg.Storage.PublicURL)
}
