package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"draftpress/internal/api"
	"draftpress/internal/api/middleware"
	"draftpress/internal/app/service"
	"draftpress/internal/common/security"
	"draftpress/internal/domain/repository"
	"draftpress/internal/platform/cache"
	"draftpress/internal/platform/config"
	"draftpress/internal/platform/database"
	"draftpress/internal/platform/llm"
	"draftpress/internal/platform/logging"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, dotenvLoaded := config.Load()

	logger, err := logging.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if !dotenvLoaded {
		logger.Debug("no .env file found, using process environment")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
	logger.Info("server stopped gracefully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Storage
	var (
		userRepo repository.UserRepository
		postRepo repository.PostRepository
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := repository.NewMemoryStore()
		userRepo, postRepo = store.Users(), store.Posts()
		logger.Warn("using in-memory storage, data will not survive a restart")
	default:
		db, err := database.Connect(ctx, cfg.DBConnStr)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("database connected", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

		if cfg.DBAutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
			logger.Info("database migrated")
		}
		userRepo, postRepo = repository.NewPgUserRepository(db), repository.NewPgPostRepository(db)
	}

	// 3. Initialize Redis rate limiter
	var limiter middleware.Limiter
	if cfg.RateLimitRequests > 0 {
		rdb, err := cache.ConnectRedis(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn("rate limiting disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow)
			logger.Info("rate limiting enabled",
				zap.Int("requests", cfg.RateLimitRequests),
				zap.Duration("window", cfg.RateLimitWindow))
		}
	}

	// 4. Initialize Security
	hasher, err := security.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokens := security.NewTokenService(cfg.JWTKey, cfg.JWTExp)

	// 5. Initialize Services
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, generation requests will fail")
	}
	generator := llm.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)

	creds := service.NewCredentialStore(userRepo, hasher)
	authService := service.NewAuthService(creds, tokens, logger)
	postService := service.NewPostService(postRepo, logger)
	generateService := service.NewGenerateService(generator, postService, cfg.GenerationTimeout, logger)

	// 6. Initialize Router & HTTP Server
	router := api.NewRouter(api.RouterDeps{
		AuthService:     authService,
		PostService:     postService,
		GenerateService: generateService,
		Users:           creds,
		TokenAuth:       tokens.JWTAuth(),
		Limiter:         limiter,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		Logger:          logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.GenerationTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("could not listen on %s: %w", server.Addr, err)
		}
		close(errCh)
	}()

	// 7. Graceful Shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
