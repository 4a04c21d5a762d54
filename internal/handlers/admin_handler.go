package handlers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/trial"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	adminService *services.AdminService
	trials       *trial.Service
}

func NewAdminHandler(adminService *services.AdminService, trials *trial.Service) *AdminHandler {
	return &AdminHandler{adminService: adminService, trials: trials}
}

func (h *AdminHandler) Users(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	users, total, err := h.adminService.ListUsers(c.Query("search"), page, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list users")
	}
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = services.UserResponse(&users[i])
	}
	return paged(c, out, total, page, limit)
}

func (h *AdminHandler) SetPlan(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SetPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	user, err := h.adminService.SetPlan(id, req.Plan)
	if err != nil {
		return serviceError(c, err, "Failed to set plan")
	}
	return ok(c, services.UserResponse(user))
}

// ResetTrial gives a visitor a fresh set of free analyses.
func (h *AdminHandler) ResetTrial(c *fiber.Ctx) error {
	var req dto.ResetTrialRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	fp := strings.TrimSpace(req.Fingerprint)
	if fp == "" {
		return fail(c, fiber.StatusBadRequest, "fingerprint is required")
	}
	st, err := h.trials.Reset(c.UserContext(), fp)
	if err != nil {
		return serviceError(c, err, "Failed to reset trial")
	}
	return ok(c, st)
}

func (h *AdminHandler) Logs(c *fiber.Ctx) error {
	logs, err := h.adminService.Logs(c.Query("level"), c.QueryInt("limit"))
	if err != nil {
		return serviceError(c, err, "Failed to load logs")
	}
	return ok(c, logs)
}
