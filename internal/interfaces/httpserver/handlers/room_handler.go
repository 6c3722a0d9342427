package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/config"
	"github.com/janhq/roombus/internal/domain/credential"
	"github.com/janhq/roombus/internal/domain/room"
	"github.com/janhq/roombus/internal/infrastructure/store"
	"github.com/janhq/roombus/internal/interfaces/httpserver/responses"
	"github.com/janhq/roombus/internal/interfaces/httpserver/wsupgrade"
)

// projectIDPattern is the Front Router's id-format check (spec §4.1). The
// spec leaves the exact grammar open; this accepts the slug shapes every
// sample projectId in the spec's worked example uses.
var projectIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

// RoomHandler implements the Room-scoped HTTP surface: the websocket
// upgrade, and the /status, /health, /usage management endpoints (spec
// §4.1-§4.2, §4.8).
type RoomHandler struct {
	registry *room.Registry
	keys     *credential.Service
	kv       store.Store
	cfg      *config.Config
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewRoomHandler constructs a RoomHandler.
func NewRoomHandler(registry *room.Registry, keys *credential.Service, kv store.Store, cfg *config.Config, log zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		registry: registry,
		keys:     keys,
		kv:       kv,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "room-handler").Logger(),
	}
}

// resolveProject implements the Front Router's projectId/apiKey decision
// table (spec §4.1) shared by every Room-scoped endpoint. It writes an
// error response and returns ok=false on any rejection.
func (h *RoomHandler) resolveProject(c *gin.Context) (projectID string, ok bool) {
	projectID = c.Query("projectId")
	if projectID == "" {
		responses.Write(c, http.StatusBadRequest, "validation_error", "projectId is required")
		return "", false
	}
	if !projectIDPattern.MatchString(projectID) {
		responses.Write(c, http.StatusBadRequest, "validation_error", "projectId has an invalid format")
		return "", false
	}

	if h.cfg.IsBypassProject(projectID) {
		return projectID, true
	}

	apiKey := c.Query("apiKey")
	if apiKey == "" {
		apiKey = c.GetHeader("x-api-key")
	}
	if apiKey == "" {
		return projectID, true
	}
	if !h.keys.Validate(c.Request.Context(), projectID, apiKey) {
		responses.Write(c, http.StatusForbidden, "forbidden", "invalid api key")
		return "", false
	}
	return projectID, true
}

// Upgrade handles GET /websocket?type=T&projectId=P&apiKey=.
func (h *RoomHandler) Upgrade(c *gin.Context) {
	if !strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		responses.Write(c, http.StatusUpgradeRequired, "upgrade_required", "this endpoint only accepts websocket upgrades")
		return
	}

	projectID, ok := h.resolveProject(c)
	if !ok {
		return
	}

	roleParam := c.Query("type")
	if !room.IsValidRole(roleParam) {
		responses.WriteExtra(c, http.StatusBadRequest, "validation_error", "type must be one of the accepted roles", map[string]any{
			"validRoles": []string{"runtime", "agent", "prod", "admin"},
		})
		return
	}
	role := room.Role(roleParam)

	r := h.registry.GetOrCreate(projectID)
	if role == room.RoleRuntime && r.RuntimeOpen() {
		responses.Write(c, http.StatusConflict, "conflict", "a runtime connection is already open for this project")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("project_id", projectID).Msg("websocket upgrade failed")
		return
	}

	socket := wsupgrade.New(conn, h.log)
	meta := room.Metadata{UserAgent: c.Request.UserAgent(), Origin: c.GetHeader("Origin")}

	admitted, err := r.Admit(role, socket, meta)
	if err != nil {
		if errors.Is(err, room.ErrRuntimeSingleton) {
			_ = socket.Close(room.ClosePolicyViolation, "runtime already open")
			return
		}
		_ = socket.Close(room.ClosePolicyViolation, "admission failed")
		return
	}

	go wsupgrade.ReadLoop(conn,
		func(raw []byte) { r.HandleMessage(admitted.ID, raw) },
		func() { r.Disconnect(admitted.ID) },
	)
}

// Status handles GET /status?projectId=P.
func (h *RoomHandler) Status(c *gin.Context) {
	projectID, ok := h.resolveProject(c)
	if !ok {
		return
	}
	r, found := h.registry.Get(projectID)
	if !found {
		c.JSON(http.StatusOK, room.StatusSnapshot{ProjectID: projectID})
		return
	}
	snap, err := r.Status()
	if err != nil {
		c.JSON(http.StatusOK, room.StatusSnapshot{ProjectID: projectID})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Health handles GET /health. With no projectId it is the worker-level
// liveness probe; with one it is the Room-scoped check (spec §4.1, §4.2).
func (h *RoomHandler) Health(c *gin.Context) {
	if c.Query("projectId") == "" {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": room.NowMillis()})
		return
	}

	projectID, ok := h.resolveProject(c)
	if !ok {
		return
	}
	alive := false
	if r, found := h.registry.Get(projectID); found {
		alive = !r.Closed()
	}
	c.JSON(http.StatusOK, gin.H{
		"projectId": projectID,
		"status":    "healthy",
		"roomAlive": alive,
		"timestamp": room.NowMillis(),
	})
}

// Usage handles GET /usage?projectId=P (spec §4.8). It reads straight from
// the durable counters rather than waking a suspended Room.
func (h *RoomHandler) Usage(c *gin.Context) {
	projectID, ok := h.resolveProject(c)
	if !ok {
		return
	}
	report := room.ReadUsageReport(c.Request.Context(), h.kv, projectID, h.log)
	c.JSON(http.StatusOK, report)
}
