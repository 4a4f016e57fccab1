package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("WanderAITimeout converts seconds to duration", func(t *testing.T) {
		cfg := &Config{WanderAITimeoutSeconds: 45}
		assert.Equal(t, 45*time.Second, cfg.WanderAITimeout())
	})

	t.Run("AuthCacheTTL converts seconds to duration", func(t *testing.T) {
		cfg := &Config{AuthCacheTTLSeconds: 60}
		assert.Equal(t, time.Minute, cfg.AuthCacheTTL())
	})

	t.Run("SessionLockTTL converts seconds to duration", func(t *testing.T) {
		cfg := &Config{SessionLockTTLSeconds: 90}
		assert.Equal(t, 90*time.Second, cfg.SessionLockTTL())
	})

	t.Run("MinSessionLockTTL scales with gateway calls per turn", func(t *testing.T) {
		proxy := &Config{ChatMode: ChatModeProxy, WanderAITimeoutSeconds: 60}
		assert.Equal(t, 60*time.Second+SessionLockHeadroom, proxy.MinSessionLockTTL())

		staged := &Config{ChatMode: ChatModeStaged, WanderAITimeoutSeconds: 60}
		assert.Equal(t, 120*time.Second+SessionLockHeadroom, staged.MinSessionLockTTL())
	})
}

func validConfig() *Config {
	return &Config{
		SessionStore:           StoreBackendPostgres,
		DatabaseURL:            "postgres://localhost/test",
		RedisURL:               "redis://localhost:6379",
		ChatMode:               ChatModeProxy,
		WanderAITimeoutSeconds: 60,
		SessionLockTTLSeconds:  90,
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate(false))
	})

	t.Run("postgres store requires DATABASE_URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.DatabaseURL = ""
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("memory store needs no DATABASE_URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionStore = StoreBackendMemory
		cfg.DatabaseURL = ""
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("memory store rejected in production", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionStore = StoreBackendMemory
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("unknown store rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionStore = "sqlite"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("unknown chat mode rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChatMode = "freeform"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("staged chat mode accepted", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChatMode = ChatModeStaged
		cfg.SessionLockTTLSeconds = 150
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("lock lease shorter than gateway timeout rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionLockTTLSeconds = 30
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("staged lease must cover both first-turn gateway calls", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChatMode = ChatModeStaged
		cfg.SessionLockTTLSeconds = 90

		err := cfg.Validate(false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 135")
	})
}

func TestLoad(t *testing.T) {
	keys := []string{
		"PORT", "SESSION_STORE", "DATABASE_URL", "REDIS_URL", "WANDERAI_BACKEND_URL",
		"CHAT_MODE", "AUTH_PROVIDER_URL", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS",
	}
	originalEnv := make(map[string]string, len(keys))
	for _, k := range keys {
		originalEnv[k] = os.Getenv(k)
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("AUTH_PROVIDER_URL", "https://auth.example.com")
		os.Unsetenv("PORT")
		os.Unsetenv("SESSION_STORE")
		os.Unsetenv("WANDERAI_BACKEND_URL")
		os.Unsetenv("CHAT_MODE")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("CORS_ALLOWED_ORIGINS")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, StoreBackendPostgres, cfg.SessionStore)
		assert.Equal(t, "http://localhost:8000", cfg.WanderAIBackendURL)
		assert.Equal(t, ChatModeProxy, cfg.ChatMode)
		assert.Equal(t, 60, cfg.WanderAITimeoutSeconds)
		assert.Equal(t, 150, cfg.SessionLockTTLSeconds)
		assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("AUTH_PROVIDER_URL", "https://auth.example.com")
		os.Setenv("PORT", "3000")
		os.Setenv("SESSION_STORE", "memory")
		os.Setenv("CHAT_MODE", "staged")
		os.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,https://wanderai.app")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, StoreBackendMemory, cfg.SessionStore)
		assert.Equal(t, ChatModeStaged, cfg.ChatMode)
		assert.NoError(t, cfg.Validate(false), "staged mode works with the default lock lease")
		assert.Equal(t, []string{"http://localhost:5173", "https://wanderai.app"}, cfg.CORSAllowedOrigins)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required REDIS_URL", func(t *testing.T) {
		os.Unsetenv("REDIS_URL")
		os.Setenv("AUTH_PROVIDER_URL", "https://auth.example.com")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without required AUTH_PROVIDER_URL", func(t *testing.T) {
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Unsetenv("AUTH_PROVIDER_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}
