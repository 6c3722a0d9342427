//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/janhq/roombus/internal/config"
	"github.com/janhq/roombus/internal/domain/credential"
	"github.com/janhq/roombus/internal/domain/room"
	"github.com/janhq/roombus/internal/infrastructure/auth"
	"github.com/janhq/roombus/internal/infrastructure/credentialdb"
	"github.com/janhq/roombus/internal/infrastructure/store"
	"github.com/janhq/roombus/internal/interfaces/httpserver"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	ProvideAuthValidator,
	ProvideKVStore,
	ProvideCredentialDB,
	ProvideCredentialRepository,

	// Domain providers
	ProvideCredentialService,
	ProvideRoomRegistry,

	// Interface providers
	httpserver.New,

	// Application
	NewApplication,
)

// ProvideAuthValidator provides the service-key bearer validator.
func ProvideAuthValidator(cfg *config.Config, log zerolog.Logger) *auth.ServiceKeyValidator {
	return auth.NewServiceKeyValidator(cfg, log)
}

// ProvideKVStore provides the Room's durable KV store.
func ProvideKVStore(cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	return store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
}

// ProvideCredentialDB opens the Credential Gateway's Postgres connection.
func ProvideCredentialDB(cfg *config.Config) (*gorm.DB, error) {
	return credentialdb.NewPostgresDB(cfg.DatabaseDSN)
}

// ProvideCredentialRepository adapts the Postgres connection to credential.Repository.
func ProvideCredentialRepository(db *gorm.DB) (credential.Repository, error) {
	return credentialdb.NewAPIKeyRepository(db)
}

// ProvideCredentialService provides the Credential Gateway service.
func ProvideCredentialService(repo credential.Repository, cfg *config.Config, log zerolog.Logger) *credential.Service {
	return credential.NewService(repo, cfg.CredentialKeyEnv, log)
}

// ProvideRoomRegistry provides the Room registry.
func ProvideRoomRegistry(cfg *config.Config, kv store.Store, log zerolog.Logger) *room.Registry {
	return room.NewRegistry(room.Config{
		RequestTimeout:    cfg.RequestTimeout,
		IdleAlarmDelay:    cfg.IdleAlarmDelay,
		LogRetentionHours: cfg.LogRetentionHours,
		MaxLogsPerHour:    cfg.MaxLogsPerHour,
		AdminReplayLimit:  cfg.AdminReplayLimit,
		FixturesEnabled:   cfg.FixturesEnabled,
	}, kv, log)
}

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(cfg *config.Config, log zerolog.Logger) (*Application, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
