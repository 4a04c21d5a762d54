package handlers

import (
	"strconv"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type SyncHandler struct {
	syncService *services.SyncService
}

func NewSyncHandler(syncService *services.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// Events returns what changed on the caller's other devices since the
// cursor. Without ?since the newest cursor is returned so a fresh client
// does not replay history.
func (h *SyncHandler) Events(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	raw := c.Query("since")
	if raw == "" {
		return ok(c, dto.SyncEventsResponse{Events: []interface{}{}, NextCursor: h.syncService.Latest(userID)})
	}
	since, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "since must be a non-negative integer")
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	events, next, err := h.syncService.Since(userID, tenant.GetDeviceID(c), since, limit)
	if err != nil {
		return serviceError(c, err, "Failed to load sync events")
	}
	return ok(c, dto.SyncEventsResponse{Events: events, NextCursor: next})
}

func (h *SyncHandler) Publish(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SyncEventRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	var payload interface{}
	if len(req.Payload) > 0 {
		payload = req.Payload
	}
	if err := h.syncService.Emit(userID, tenant.GetDeviceID(c), req.Type, payload); err != nil {
		return serviceError(c, err, "Failed to publish sync event")
	}
	return created(c, fiber.Map{"cursor": h.syncService.Latest(userID)})
}
