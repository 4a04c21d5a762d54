package handlers

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InsightHandler struct {
	insightService *services.InsightService
}

func NewInsightHandler(insightService *services.InsightService) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

func (h *InsightHandler) Generate(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.GenerateInsightRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.ChannelID == uuid.Nil {
		return fail(c, fiber.StatusBadRequest, "channel_id is required")
	}
	insight, err := h.insightService.Generate(c.UserContext(), userID, req.ChannelID, middleware.GetLocale(c))
	if err != nil {
		return serviceError(c, err, "Failed to generate insight")
	}
	return created(c, insight)
}

func (h *InsightHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	channelID, err := queryID(c, "channel_id")
	if err != nil {
		return err
	}
	page, limit := pageParams(c)
	insights, total, err := h.insightService.List(userID, channelID, page, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list insights")
	}
	return paged(c, insights, total, page, limit)
}

func (h *InsightHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.insightService.Delete(userID, id); err != nil {
		return serviceError(c, err, "Failed to delete insight")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
