package handlers

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	dashboards, err := h.dashboardService.List(userID)
	if err != nil {
		return serviceError(c, err, "Failed to list dashboards")
	}
	return ok(c, dashboards)
}

func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.dashboardService.Get(userID, id)
	if err != nil {
		return serviceError(c, err, "Failed to load dashboard")
	}
	return ok(c, d)
}

func (h *DashboardHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.DashboardRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	d, err := h.dashboardService.Create(userID, tenant.GetDeviceID(c), &req)
	if err != nil {
		return serviceError(c, err, "Failed to create dashboard")
	}
	return created(c, d)
}

func (h *DashboardHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.DashboardRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	d, err := h.dashboardService.Update(userID, id, tenant.GetDeviceID(c), &req)
	if err != nil {
		return serviceError(c, err, "Failed to update dashboard")
	}
	return ok(c, d)
}

func (h *DashboardHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.dashboardService.Delete(userID, id, tenant.GetDeviceID(c)); err != nil {
		return serviceError(c, err, "Failed to delete dashboard")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	overview, err := h.dashboardService.Overview(userID)
	if err != nil {
		return serviceError(c, err, "Failed to load overview")
	}
	return ok(c, overview)
}
