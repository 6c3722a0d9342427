// @title           Roombus API
// @version         1.0
// @description     Multi-tenant realtime message bus: per-project Room websocket surface plus Credential Gateway.

// @contact.name   Jan Team
// @contact.url    https://github.com/janhq/jan-server

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8186
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Service-key bearer token guarding /api-keys administration

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/config"
	"github.com/janhq/roombus/internal/domain/credential"
	"github.com/janhq/roombus/internal/domain/room"
	"github.com/janhq/roombus/internal/infrastructure/auth"
	"github.com/janhq/roombus/internal/infrastructure/credentialdb"
	"github.com/janhq/roombus/internal/infrastructure/logger"
	"github.com/janhq/roombus/internal/infrastructure/observability"
	"github.com/janhq/roombus/internal/infrastructure/store"
	"github.com/janhq/roombus/internal/interfaces/httpserver"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	registry   *room.Registry
	kv         store.Store
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, registry *room.Registry, kv store.Store, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		registry:   registry,
		kv:         kv,
		log:        log,
	}
}

// Start runs the application, blocking until ctx is cancelled, then drains
// every live Room before returning.
func (a *Application) Start(ctx context.Context) error {
	err := a.httpServer.Run(ctx)
	a.registry.Shutdown()
	if closeErr := a.kv.Close(); closeErr != nil {
		a.log.Warn().Err(closeErr).Msg("failed to close kv store")
	}
	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	authValidator := auth.NewServiceKeyValidator(cfg, log)

	kv, err := newKVStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize kv store")
	}

	credentialService, err := newCredentialService(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize credential gateway")
	}

	registry := room.NewRegistry(room.Config{
		RequestTimeout:    cfg.RequestTimeout,
		IdleAlarmDelay:    cfg.IdleAlarmDelay,
		LogRetentionHours: cfg.LogRetentionHours,
		MaxLogsPerHour:    cfg.MaxLogsPerHour,
		AdminReplayLimit:  cfg.AdminReplayLimit,
		FixturesEnabled:   cfg.FixturesEnabled,
	}, kv, log)

	httpServer := httpserver.New(cfg, log, registry, credentialService, kv, authValidator)

	app := NewApplication(httpServer, registry, kv, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func newKVStore(cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	if cfg.KVBackend == "memory" {
		log.Warn().Msg("using in-memory kv store; log buckets and usage counters will not survive a restart")
		return store.NewMemoryStore(log), nil
	}
	return store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
}

func newCredentialService(cfg *config.Config, log zerolog.Logger) (*credential.Service, error) {
	db, err := credentialdb.NewPostgresDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	repo, err := credentialdb.NewAPIKeyRepository(db)
	if err != nil {
		return nil, err
	}
	return credential.NewService(repo, cfg.CredentialKeyEnv, log), nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
