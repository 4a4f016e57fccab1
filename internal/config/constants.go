package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 120 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Largest accepted request body
const MaxRequestBodyBytes = 64 << 10

// Bound on connecting to Redis and Postgres at startup
const StartupConnectTimeout = 10 * time.Second

// Conversation bounds
const (
	MaxHistory          = 20
	MaxSuggestedPlaces  = 50
	MaxTitleRunes       = 50
	MaxEditedTitleRunes = 100
)

// How long a chat turn waits to acquire a busy session before giving up
const SessionLockWait = 10 * time.Second

// Lock lease slack over the gateway time of a turn, for the store write
// and event publish
const SessionLockHeadroom = 15 * time.Second

// Number of destinations requested from the AI backend in staged mode
const DefaultSuggestTopK = 3

// Rate limiting window shared by the chat and auth limiters
const RateLimitWindow = time.Minute
