// Package credentialdb is the GORM/Postgres-backed implementation of the
// credential.Repository interface — the external SQL store the Credential
// Gateway is a thin shim around (spec §6).
package credentialdb

import (
	"time"

	"github.com/janhq/roombus/internal/domain/credential"
)

// ApiKey is the persisted row for a project API key.
type ApiKey struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	ProjectID   string `gorm:"type:varchar(64);uniqueIndex:idx_active_project,where:is_active"`
	KeyHash     string `gorm:"type:varchar(64);not null;index"`
	KeyPrefix   string `gorm:"type:varchar(12);not null"`
	CreatedAt   time.Time
	LastUsedAt  *time.Time
	IsActive    bool   `gorm:"not null;default:true"`
	CreatedBy   string `gorm:"type:varchar(128)"`
	Description string `gorm:"type:varchar(256)"`
}

// TableName pins the GORM table name independent of struct naming.
func (ApiKey) TableName() string { return "api_keys" }

// EtoD converts the persisted row into its domain representation.
func (m *ApiKey) EtoD() *credential.Key {
	if m == nil {
		return nil
	}
	return &credential.Key{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		KeyHash:     m.KeyHash,
		KeyPrefix:   m.KeyPrefix,
		CreatedAt:   m.CreatedAt,
		LastUsedAt:  m.LastUsedAt,
		IsActive:    m.IsActive,
		CreatedBy:   m.CreatedBy,
		Description: m.Description,
	}
}

// fromDomain converts a domain Key into the persisted row shape.
func fromDomain(k *credential.Key) *ApiKey {
	if k == nil {
		return nil
	}
	return &ApiKey{
		ID:          k.ID,
		ProjectID:   k.ProjectID,
		KeyHash:     k.KeyHash,
		KeyPrefix:   k.KeyPrefix,
		CreatedAt:   k.CreatedAt,
		LastUsedAt:  k.LastUsedAt,
		IsActive:    k.IsActive,
		CreatedBy:   k.CreatedBy,
		Description: k.Description,
	}
}
