package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wanderai/api-server/internal/config"
	"github.com/wanderai/api-server/internal/database"
	"github.com/wanderai/api-server/internal/gateway"
	"github.com/wanderai/api-server/internal/handler"
	"github.com/wanderai/api-server/internal/jobs"
	"github.com/wanderai/api-server/internal/lock"
	"github.com/wanderai/api-server/internal/middleware"
	"github.com/wanderai/api-server/internal/redis"
	"github.com/wanderai/api-server/internal/repository"
	"github.com/wanderai/api-server/internal/service"
	"github.com/wanderai/api-server/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.StartupConnectTimeout)
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	var (
		sessionRepo repository.SessionRepository
		locker      lock.Locker
	)
	switch cfg.SessionStore {
	case config.StoreBackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), config.StartupConnectTimeout)
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		cancel()
		log.Info().Msg("database connected")

		sessionRepo = repository.NewSessionRepository(db.DB)
		locker = lock.NewRedisLocker(redisClient.Client, cfg.SessionLockTTL(), config.SessionLockWait)
	default:
		log.Warn().Msg("using in-memory session store: sessions are lost on restart")
		sessionRepo = repository.NewMemorySessionRepository()
		locker = lock.NewLocalLocker(config.SessionLockWait)
	}

	broker := sse.NewBroker(redisClient.Client)
	defer broker.Close()

	aiGateway := gateway.NewClient(cfg.WanderAIBackendURL, cfg.WanderAITimeout())

	placeCatalog, err := service.NewPlaceCatalog()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load place catalog")
	}
	userService, err := service.NewUserService()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load user data")
	}

	var dialogue service.Dialogue
	switch cfg.ChatMode {
	case config.ChatModeStaged:
		dialogue = service.NewStagedDialogue(aiGateway, service.NewClassifier(placeCatalog.Keywords()))
	default:
		dialogue = service.NewProxyDialogue(aiGateway)
	}
	log.Info().Str("chatMode", cfg.ChatMode).Str("sessionStore", cfg.SessionStore).Msg("chat engine configured")

	identityClient := service.NewIdentityClient(cfg.AuthProviderURL, cfg.AuthProviderAPIKey, cfg.AuthCacheTTL())

	chatService := service.NewChatService(sessionRepo, locker, dialogue, broker)
	sessionService := service.NewSessionService(sessionRepo, broker)
	authService := service.NewAuthService(identityClient)

	rateLimiter := middleware.NewRedisRateLimiter(redisClient.Client)
	authMiddleware := middleware.NewAuthMiddleware(identityClient)
	chatRateLimitMiddleware := middleware.NewUserRateLimitMiddleware(rateLimiter, cfg.ChatRateLimitPerMin, "chat")
	authRateLimitMiddleware := middleware.NewIPRateLimitMiddleware(rateLimiter, cfg.AuthRateLimitPerMin, "auth")
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.MaxRequestBodyBytes)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	healthProbe := jobs.NewHealthProbeJob(aiGateway, redisClient.Client, cfg.HealthProbeInterval())

	healthHandler := handler.NewHealthHandler(healthProbe)
	authHandler := handler.NewAuthHandler(authService)
	placesHandler := handler.NewPlacesHandler(placeCatalog)
	chatHandler := handler.NewChatHandler(chatService, aiGateway)
	sessionHandler := handler.NewSessionHandler(sessionService)
	eventsHandler := handler.NewEventsHandler(broker, sessionService)
	userHandler := handler.NewUserHandler(userService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Total-Count", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Method(http.MethodGet, "/health", healthHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Use(authRateLimitMiddleware.Handler)
		r.Mount("/", authHandler.Routes())
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
			r.Get("/location", handler.Location)
			r.Mount("/places", placesHandler.Routes())
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handler)

			// Streams stay open, so no request timeout here.
			r.Get("/events", eventsHandler.ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
				r.Mount("/sessions", sessionHandler.Routes())
				r.Mount("/user", userHandler.Routes())

				r.Group(func(r chi.Router) {
					r.Use(chatRateLimitMiddleware.Handler)
					r.Mount("/chat", chatHandler.Routes())
				})
			})
		})
	})

	healthProbe.Start()
	defer healthProbe.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
