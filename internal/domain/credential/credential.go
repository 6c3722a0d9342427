// Package credential implements the Credential Gateway: issuing, hashing,
// validating, describing and revoking per-project API keys.
package credential

import (
	"context"
	"time"
)

// Key is the authoritative record for a project's API key, mirroring the
// external store's ApiKey row. At most one (ProjectID, IsActive=true) row
// exists at a time.
type Key struct {
	ID          string
	ProjectID   string
	KeyHash     string
	KeyPrefix   string
	CreatedAt   time.Time
	LastUsedAt  *time.Time
	IsActive    bool
	CreatedBy   string
	Description string
}

// Repository defines the operations the external key store must support:
// create, find active-by-project, find by project+hash, list, revoke, and
// the last-used timestamp update.
type Repository interface {
	Create(ctx context.Context, key *Key) (*Key, error)
	FindActiveByProject(ctx context.Context, projectID string) (*Key, error)
	FindByProjectAndHash(ctx context.Context, projectID, keyHash string) (*Key, error)
	List(ctx context.Context) ([]Key, error)
	Revoke(ctx context.Context, projectID string) error
	TouchLastUsed(ctx context.Context, id string, when time.Time) error
}
