package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	ChatModeProxy  = "proxy"
	ChatModeStaged = "staged"
)

type Config struct {
	Port                       int      `env:"PORT" envDefault:"8080"`
	SessionStore               string   `env:"SESSION_STORE" envDefault:"postgres"`
	DatabaseURL                string   `env:"DATABASE_URL"`
	RedisURL                   string   `env:"REDIS_URL,required"`
	WanderAIBackendURL         string   `env:"WANDERAI_BACKEND_URL" envDefault:"http://localhost:8000"`
	WanderAITimeoutSeconds     int      `env:"WANDERAI_TIMEOUT_SECONDS" envDefault:"60"`
	ChatMode                   string   `env:"CHAT_MODE" envDefault:"proxy"`
	AuthProviderURL            string   `env:"AUTH_PROVIDER_URL,required"`
	AuthProviderAPIKey         string   `env:"AUTH_PROVIDER_API_KEY"`
	AuthCacheTTLSeconds        int      `env:"AUTH_CACHE_TTL_SECONDS" envDefault:"60"`
	ChatRateLimitPerMin        int      `env:"CHAT_RATE_LIMIT_PER_MIN" envDefault:"30"`
	AuthRateLimitPerMin        int      `env:"AUTH_RATE_LIMIT_PER_MIN" envDefault:"10"`
	SessionLockTTLSeconds      int      `env:"SESSION_LOCK_TTL_SECONDS" envDefault:"150"`
	HealthProbeIntervalSeconds int      `env:"HEALTH_PROBE_INTERVAL_SECONDS" envDefault:"30"`
	CORSAllowedOrigins         []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel                   string   `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) WanderAITimeout() time.Duration {
	return time.Duration(c.WanderAITimeoutSeconds) * time.Second
}

func (c *Config) AuthCacheTTL() time.Duration {
	return time.Duration(c.AuthCacheTTLSeconds) * time.Second
}

func (c *Config) SessionLockTTL() time.Duration {
	return time.Duration(c.SessionLockTTLSeconds) * time.Second
}

// GatewayCallsPerTurn is the most sequential AI backend calls one chat turn
// can make: a staged first turn extracts intent and then suggests places.
func (c *Config) GatewayCallsPerTurn() int {
	if c.ChatMode == ChatModeStaged {
		return 2
	}
	return 1
}

// MinSessionLockTTL is the shortest lock lease that outlasts a turn whose
// gateway calls all run to their timeout.
func (c *Config) MinSessionLockTTL() time.Duration {
	return time.Duration(c.GatewayCallsPerTurn())*c.WanderAITimeout() + SessionLockHeadroom
}

func (c *Config) HealthProbeInterval() time.Duration {
	return time.Duration(c.HealthProbeIntervalSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	switch c.SessionStore {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE=%s", StoreBackendPostgres)
		}
	case StoreBackendMemory:
		if isProduction {
			return fmt.Errorf("SESSION_STORE=%s loses all sessions on restart and is not allowed in production", StoreBackendMemory)
		}
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", StoreBackendPostgres, StoreBackendMemory, c.SessionStore)
	}

	if c.ChatMode != ChatModeProxy && c.ChatMode != ChatModeStaged {
		return fmt.Errorf("CHAT_MODE must be %q or %q, got %q", ChatModeProxy, ChatModeStaged, c.ChatMode)
	}

	if c.WanderAITimeoutSeconds <= 0 {
		return fmt.Errorf("WANDERAI_TIMEOUT_SECONDS must be positive")
	}
	if minTTL := c.MinSessionLockTTL(); c.SessionLockTTL() < minTTL {
		return fmt.Errorf("SESSION_LOCK_TTL_SECONDS (%d) must be at least %d: CHAT_MODE=%s makes up to %d gateway calls of WANDERAI_TIMEOUT_SECONDS (%d) per turn",
			c.SessionLockTTLSeconds, int(minTTL.Seconds()), c.ChatMode, c.GatewayCallsPerTurn(), c.WanderAITimeoutSeconds)
	}

	if isProduction {
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.AuthProviderAPIKey == "" {
			log.Warn().Msg("AUTH_PROVIDER_API_KEY is empty in production: token verification will likely fail")
		}
		for _, origin := range c.CORSAllowedOrigins {
			if origin == "*" {
				log.Warn().Msg("CORS_ALLOWED_ORIGINS allows any origin in production")
				break
			}
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
