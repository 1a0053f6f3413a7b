package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/auth"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/config"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/handler"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/middleware"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/provider"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/redis"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/service"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("K_SERVICE") != "" || os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	var ipRateLimiter *service.RateLimiter
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
		ipRateLimiter = service.NewRateLimiter(redisClient.Client)
	}

	userStore := store.NewMemoryUserStore()
	imageStore := store.NewMemoryImageStore()

	sessions := auth.NewSessionManager(cfg.JWTSecret)
	hfClient := provider.NewClient(
		cfg.HuggingFaceBaseURL, cfg.HuggingFaceModel,
		cfg.HuggingFaceToken, cfg.ProviderTimeout(),
	)

	accountService := service.NewAccountService(userStore, sessions, cfg.SignupTokens)
	generationService := service.NewGenerationService(userStore, imageStore, hfClient)

	authMiddleware := middleware.NewAuthMiddleware(sessions)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.MaxRequestBodyBytes)
	authRateLimit := middleware.NewIPRateLimitMiddleware(ipRateLimiter, 10, 5*time.Minute, "auth")
	generateRateLimit := middleware.NewIPRateLimitMiddleware(ipRateLimiter, 30, 1*time.Minute, "generate")

	authHandler := handler.NewAuthHandler(accountService)
	imageHandler := handler.NewImageHandler(generationService)
	userHandler := handler.NewUserHandler(accountService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(authRateLimit.Handler).Post("/register", authHandler.Register)
		r.With(authRateLimit.Handler).Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handler)
			r.With(generateRateLimit.Handler).Post("/generate-image", imageHandler.Generate)
			r.Get("/images", imageHandler.History)
			r.Get("/user", userHandler.Profile)
		})
	})

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
