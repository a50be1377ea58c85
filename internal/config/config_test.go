package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testKey)
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "INR", cfg.BaseCurrency)
	assert.Equal(t, time.Hour, cfg.QuoteTTL)
	key, err := cfg.EncryptionKeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testKey)
	t.Setenv("PORT", "9090")
	t.Setenv("QUOTE_TTL", "15m")
	t.Setenv("BASE_CURRENCY", "USD")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.QuoteTTL)
	assert.Equal(t, "USD", cfg.BaseCurrency)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"JWT_SECRET":     "",
		"ENCRYPTION_KEY": "abcd",
		"QUOTE_TTL":      "soon",
		"BASE_CURRENCY":  "RUPEE",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv("ENCRYPTION_KEY", testKey)
			t.Setenv(key, value)
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewConfig_EncryptionKeyRequiredForPostgres(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")

	_, err := NewConfig()
	assert.ErrorContains(t, err, "ENCRYPTION_KEY is required")

	t.Setenv("DB_CONN", "memory")
	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.True(t, cfg.InMemory())
	assert.Empty(t, cfg.EncryptionKey)
}
