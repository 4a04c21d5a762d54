package handlers

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/gofiber/fiber/v2"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

func (h *TeamHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.TeamRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	team, err := h.teamService.Create(userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to create team")
	}
	return created(c, team)
}

func (h *TeamHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	teams, err := h.teamService.ListMine(userID)
	if err != nil {
		return serviceError(c, err, "Failed to list teams")
	}
	return ok(c, teams)
}

func (h *TeamHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	teamID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	team, err := h.teamService.Get(userID, teamID)
	if err != nil {
		return serviceError(c, err, "Failed to load team")
	}
	return ok(c, team)
}

func (h *TeamHandler) Rename(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	teamID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.TeamRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	team, err := h.teamService.Rename(userID, teamID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to rename team")
	}
	return ok(c, team)
}

func (h *TeamHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	teamID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.teamService.Delete(userID, teamID); err != nil {
		return serviceError(c, err, "Failed to delete team")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TeamHandler) AddMember(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	teamID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	member, err := h.teamService.AddMember(userID, teamID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to add member")
	}
	return created(c, member)
}

// UpdateMember and RemoveMember address members by their user id.
func (h *TeamHandler) UpdateMember(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	teamID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	memberID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	var req dto.UpdateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	member, err := h.teamService.UpdateMember(userID, teamID, memberID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update member")
	}
	return ok(c, member)
}

func (h *TeamHandler) RemoveMember(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	teamID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	memberID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.teamService.RemoveMember(userID, teamID, memberID); err != nil {
		return serviceError(c, err, "Failed to remove member")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TeamHandler) Leave(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	teamID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.teamService.Leave(userID, teamID); err != nil {
		return serviceError(c, err, "Failed to leave team")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
