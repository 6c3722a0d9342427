package handlers

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/config"
	"github.com/janhq/roombus/internal/domain/credential"
	"github.com/janhq/roombus/internal/domain/room"
	"github.com/janhq/roombus/internal/infrastructure/store"
)

// Provider holds all HTTP handlers.
type Provider struct {
	Room       *RoomHandler
	Credential *CredentialHandler
}

// NewProvider creates a new handler provider.
func NewProvider(registry *room.Registry, keys *credential.Service, kv store.Store, cfg *config.Config, log zerolog.Logger) *Provider {
	return &Provider{
		Room:       NewRoomHandler(registry, keys, kv, cfg, log),
		Credential: NewCredentialHandler(keys),
	}
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	NewRoomHandler,
	NewCredentialHandler,
	NewProvider,
)
