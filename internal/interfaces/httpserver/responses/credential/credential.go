// Package credentialres contains HTTP response DTOs for the Credential Gateway.
package credentialres

import (
	"time"

	"github.com/janhq/roombus/internal/domain/credential"
)

// KeyResponse is the record shape returned by list/describe — it never
// carries the plaintext key or hash, only the prefix.
type KeyResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	KeyPrefix   string     `json:"keyPrefix"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	Description string     `json:"description,omitempty"`
}

// CreateKeyResponse is returned once from POST /api-keys and carries the
// plaintext key — the only time it is ever transmitted.
type CreateKeyResponse struct {
	KeyResponse
	APIKey string `json:"apiKey"`
}

// NewKeyResponse projects a domain Key, omitting its hash.
func NewKeyResponse(k *credential.Key) KeyResponse {
	return KeyResponse{
		ID:          k.ID,
		ProjectID:   k.ProjectID,
		KeyPrefix:   k.KeyPrefix,
		CreatedAt:   k.CreatedAt,
		LastUsedAt:  k.LastUsedAt,
		IsActive:    k.IsActive,
		CreatedBy:   k.CreatedBy,
		Description: k.Description,
	}
}

// NewCreateKeyResponse projects a freshly issued Key plus its plaintext.
func NewCreateKeyResponse(k *credential.Key, plaintext string) CreateKeyResponse {
	return CreateKeyResponse{KeyResponse: NewKeyResponse(k), APIKey: plaintext}
}

// NewKeyListResponse projects a slice of domain Keys.
func NewKeyListResponse(keys []credential.Key) []KeyResponse {
	out := make([]KeyResponse, len(keys))
	for i := range keys {
		out[i] = NewKeyResponse(&keys[i])
	}
	return out
}
