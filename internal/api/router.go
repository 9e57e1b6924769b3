package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/poctrail/assistant/internal/api/handler"
	customMiddleware "github.com/poctrail/assistant/internal/api/middleware"
	"github.com/poctrail/assistant/internal/config"
	"github.com/poctrail/assistant/internal/llm"
	"github.com/poctrail/assistant/internal/llm/gemini"
	"github.com/poctrail/assistant/internal/llm/openai"
	"github.com/poctrail/assistant/internal/metrics"
	"github.com/poctrail/assistant/internal/repository/postgres"
	"github.com/poctrail/assistant/internal/repository/redis"
	"github.com/poctrail/assistant/internal/security"
	"github.com/poctrail/assistant/internal/service"
	"github.com/poctrail/assistant/internal/session"
	"github.com/poctrail/assistant/internal/tools"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client, registry *session.Registry) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	encryptor, err := security.NewEncryptorFromBase64(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid encryption key")
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)
	aiConfigRepo := postgres.NewAIConfigRepository(db)
	pocRepo := postgres.NewPOCRepository(db)

	configCache := redis.NewConfigCache(redisClient)
	rateLimiter := redis.NewRateLimiter(redisClient, cfg.Assistant.RateLimit.TurnsPerMinute)

	// Model providers. Keys are per tenant, so every provider is registered
	// and the default picks which one serves turns.
	providers := llm.NewRegistry(cfg.LLM.Provider)
	providers.Register(gemini.NewProvider(cfg.LLM.Gemini))
	providers.Register(openai.NewProvider(cfg.LLM.OpenAI))
	log.Info().Strs("providers", providers.Names()).Str("default", providers.DefaultName()).Msg("model providers registered")

	m := metrics.Global()
	bridge := tools.NewBridge(pocRepo, userRepo, m)

	// Services
	authService := service.NewAuthService(userRepo, tenantRepo, jwtManager)
	configService := service.NewTenantConfigService(aiConfigRepo, configCache, encryptor, registry)
	statusService := service.NewStatusService(configService)
	assistantService := service.NewAssistantService(
		registry,
		configService,
		providers,
		bridge,
		userRepo,
		m,
		cfg.Assistant.MaxToolRounds,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	assistantHandler := handler.NewAssistantHandler(assistantService, statusService, cfg.Assistant.MaxMessageChars)
	configHandler := handler.NewTenantConfigHandler(configService)

	// Middleware over protected routes
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db, redisClient))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/me", authHandler.Me)
			r.Get("/providers", handler.ListProviders(providers))

			// Operator endpoints
			r.Group(func(r chi.Router) {
				r.Use(customMiddleware.RequireManager)
				r.Get("/stats", handler.Stats(registry))
				r.Post("/cache/flush", handler.FlushConfigCache(configCache))
			})

			r.Route("/assistant", func(r chi.Router) {
				r.Get("/status", assistantHandler.Status)

				r.Group(func(r chi.Router) {
					r.Use(customMiddleware.RequireManager)
					r.Get("/config", configHandler.Get)
					r.Put("/config", configHandler.Put)
				})

				r.Post("/sessions", assistantHandler.NewSession)
				r.Get("/sessions/{sessionID}/messages", assistantHandler.History)
				r.Delete("/sessions/{sessionID}", assistantHandler.CloseSession)

				// Turns burn model quota, so only they are rate limited.
				if cfg.Assistant.RateLimit.Enabled {
					r.With(rateLimitMiddleware.Limit).Post("/messages", assistantHandler.Message)
				} else {
					r.Post("/messages", assistantHandler.Message)
				}
			})
		})
	})

	return r
}
