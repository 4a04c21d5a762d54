package handlers

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.userService.Get(userID)
	if err != nil {
		return serviceError(c, err, "Failed to load profile")
	}
	return ok(c, services.UserResponse(user))
}

// UpdateMe saves profile changes. A locale change also refreshes the
// NEXT_LOCALE cookie so server-rendered pages follow it.
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := h.userService.UpdateProfile(userID, tenant.GetDeviceID(c), &req)
	if err != nil {
		return serviceError(c, err, "Failed to update profile")
	}
	if req.Locale != nil {
		c.Cookie(&fiber.Cookie{
			Name:     middleware.LocaleCookie,
			Value:    user.Locale,
			Path:     "/",
			MaxAge:   365 * 24 * 3600,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return ok(c, services.UserResponse(user))
}
