// Package credential contains HTTP request DTOs for the Credential Gateway.
package credential

// CreateKeyRequest is the body of POST /api-keys.
type CreateKeyRequest struct {
	ProjectID   string `json:"projectId" binding:"required"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
}
