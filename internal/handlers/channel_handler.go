package handlers

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ChannelHandler struct {
	channelService *services.ChannelService
	ingestService  *services.IngestService
}

func NewChannelHandler(channelService *services.ChannelService, ingestService *services.IngestService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService, ingestService: ingestService}
}

func (h *ChannelHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)
	channels, total, err := h.channelService.List(userID, c.Query("search"), page, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list channels")
	}
	return paged(c, channels, total, page, limit)
}

func (h *ChannelHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	ch, err := h.channelService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to create channel")
	}
	return created(c, ch)
}

func (h *ChannelHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ch, err := h.channelService.Get(userID, id)
	if err != nil {
		return serviceError(c, err, "Failed to load channel")
	}
	return ok(c, ch)
}

func (h *ChannelHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	ch, err := h.channelService.Update(userID, id, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update channel")
	}
	return ok(c, ch)
}

func (h *ChannelHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.channelService.Delete(userID, id); err != nil {
		return serviceError(c, err, "Failed to delete channel")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Sync refreshes the channel from YouTube. A failed fetch still answers 200
// with the stored snapshot flagged stale.
func (h *ChannelHandler) Sync(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	result, err := h.ingestService.Sync(c.UserContext(), userID, id)
	if err != nil {
		return serviceError(c, err, "Failed to sync channel")
	}
	return ok(c, result)
}

func (h *ChannelHandler) Share(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ShareChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	ch, err := h.channelService.Share(userID, id, req.TeamID)
	if err != nil {
		return serviceError(c, err, "Failed to share channel")
	}
	return ok(c, ch)
}
