package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janhq/roombus/internal/domain/credential"
	credreq "github.com/janhq/roombus/internal/interfaces/httpserver/requests/credential"
	"github.com/janhq/roombus/internal/interfaces/httpserver/responses"
	credres "github.com/janhq/roombus/internal/interfaces/httpserver/responses/credential"
)

// CredentialHandler implements the Credential Gateway's HTTP surface
// (spec §4.7): issue, list, describe, and revoke API keys.
type CredentialHandler struct {
	service *credential.Service
}

// NewCredentialHandler constructs a CredentialHandler.
func NewCredentialHandler(service *credential.Service) *CredentialHandler {
	return &CredentialHandler{service: service}
}

// CreateKey handles POST /api-keys.
func (h *CredentialHandler) CreateKey(c *gin.Context) {
	var req credreq.CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Write(c, http.StatusBadRequest, "validation_error", "projectId is required")
		return
	}

	key, plaintext, err := h.service.CreateKey(c.Request.Context(), req.ProjectID, req.Description, req.CreatedBy)
	if err != nil {
		if errors.Is(err, credential.ErrAlreadyActive) {
			responses.Write(c, http.StatusConflict, "conflict", "an active api key already exists for this project")
			return
		}
		responses.WriteError(c, err, "failed to create api key")
		return
	}

	c.JSON(http.StatusCreated, credres.NewCreateKeyResponse(key, plaintext))
}

// ListKeys handles GET /api-keys.
func (h *CredentialHandler) ListKeys(c *gin.Context) {
	keys, err := h.service.List(c.Request.Context())
	if err != nil {
		responses.WriteError(c, err, "failed to list api keys")
		return
	}
	c.JSON(http.StatusOK, credres.NewKeyListResponse(keys))
}

// DescribeKey handles GET /api-keys/:projectId.
func (h *CredentialHandler) DescribeKey(c *gin.Context) {
	projectID := c.Param("projectId")
	key, err := h.service.Describe(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			responses.Write(c, http.StatusNotFound, "not_found", "no active api key for this project")
			return
		}
		responses.WriteError(c, err, "failed to describe api key")
		return
	}
	c.JSON(http.StatusOK, credres.NewKeyResponse(key))
}

// RevokeKey handles DELETE /api-keys/:projectId.
func (h *CredentialHandler) RevokeKey(c *gin.Context) {
	projectID := c.Param("projectId")
	if err := h.service.Revoke(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			responses.Write(c, http.StatusNotFound, "not_found", "no active api key for this project")
			return
		}
		responses.WriteError(c, err, "failed to revoke api key")
		return
	}
	c.JSON(http.StatusOK, gin.H{"projectId": projectID, "revoked": true})
}
