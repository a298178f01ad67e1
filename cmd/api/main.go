package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gp-captain-panel/internal/config"
	"gp-captain-panel/internal/handler"
	"gp-captain-panel/internal/logger"
	"gp-captain-panel/internal/repository"
	"gp-captain-panel/internal/router"
	"gp-captain-panel/internal/service"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	log := logger.New(cfg.App.Name, cfg.App.Debug)
	log.Info().Str("environment", cfg.App.Environment).Str("version", cfg.App.Version).Msg("starting panel API")

	// GitHub store backs config and/or presence depending on the
	// selected backends; construct it lazily, once.
	var github *repository.GitHubStore
	githubStore := func() *repository.GitHubStore {
		if github == nil {
			gh, err := repository.NewGitHubStore(cfg.GitHub, log)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to initialize GitHub store")
			}
			github = gh
		}
		return github
	}

	// Initialize config store based on config
	var configStore repository.ConfigStore
	switch cfg.Store.Type {
	case "sqlite":
		sqliteStore, err := repository.NewSQLiteConfigStore(cfg.Store.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize SQLite store")
		}
		configStore = sqliteStore
	case "mysql":
		mysqlStore, err := repository.NewMySQLConfigStore(cfg.Store.MySQLDSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize MySQL store")
		}
		configStore = mysqlStore
	case "postgres", "postgresql":
		pgStore, err := repository.NewPostgresConfigStore(cfg.Store.PostgresDSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL store")
		}
		configStore = pgStore
	case "memory":
		configStore = repository.NewMemoryConfigStore()
		log.Warn().Msg("memory config store selected; configs will not survive restarts")
	default: // github
		configStore = githubStore()
		log.Info().Str("owner", cfg.GitHub.Owner).Str("repo", cfg.GitHub.Repo).Msg("GitHub config store initialized")
	}
	defer configStore.Close()

	// Initialize presence store
	var presenceStore repository.PresenceStore
	switch cfg.Presence.Type {
	case "redis":
		redisStore, err := repository.NewRedisPresenceStore(repository.RedisPresenceConfig{
			Addr:      cfg.Presence.RedisAddress(),
			Password:  cfg.Presence.RedisPassword,
			DB:        cfg.Presence.RedisDB,
			KeyPrefix: cfg.Presence.RedisPrefix,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Redis presence store")
		}
		presenceStore = redisStore
	case "memory":
		presenceStore = repository.NewMemoryPresenceStore()
		log.Warn().Msg("memory presence store selected; presence will not survive restarts")
	default: // github
		presenceStore = githubStore()
	}
	defer presenceStore.Close()

	// Initialize services
	configService := service.NewConfigService(configStore, log)
	presenceService := service.NewPresenceService(presenceStore, log)
	accountService := service.NewAccountService(configStore, presenceService, log)

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	configHandler := handler.NewConfigHandler(configService)
	accountsHandler := handler.NewAccountsHandler(accountService)
	heartbeatHandler := handler.NewHeartbeatHandler(presenceService)

	// Create router
	r := router.New(router.Config{
		Handler:          healthHandler,
		ConfigHandler:    configHandler,
		AccountsHandler:  accountsHandler,
		HeartbeatHandler: heartbeatHandler,
		Logger:           log,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Address()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
