package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

const fingerprintHeader = "X-Device-Fingerprint"

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// withClient fills the parts of DeviceInfo the client does not send itself.
func withClient(c *fiber.Ctx, info *dto.DeviceInfo) {
	if info.Fingerprint == "" {
		info.Fingerprint = c.Get(fingerprintHeader)
	}
	info.UserAgent = c.Get(fiber.HeaderUserAgent)
	info.IP = c.IP()
	info.AcceptLanguage = c.Get(fiber.HeaderAcceptLanguage)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	withClient(c, &req.DeviceInfo)

	resp, err := h.authService.Register(&req)
	if err != nil {
		return serviceError(c, err, "Failed to register")
	}
	return created(c, resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	withClient(c, &req.DeviceInfo)

	resp, err := h.authService.Login(&req)
	if err != nil {
		return serviceError(c, err, "Failed to sign in")
	}
	return ok(c, resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Refresh(&req)
	if err != nil {
		return serviceError(c, err, "Failed to refresh session")
	}
	return ok(c, resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.authService.Logout(&req); err != nil {
		return serviceError(c, err, "Failed to logout")
	}
	return ok(c, fiber.Map{"message": "Logged out successfully"})
}

// LogoutAll revokes every refresh token of the caller and tells the other
// devices to drop their session.
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.authService.LogoutAll(userID, tenant.GetDeviceID(c)); err != nil {
		return serviceError(c, err, "Failed to logout")
	}
	return ok(c, fiber.Map{"message": "Logged out from all devices"})
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.DeleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.authService.DeleteAccount(userID, req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return fail(c, fiber.StatusUnauthorized, "Incorrect password. Please try again.")
		}
		return serviceError(c, err, "Failed to delete account")
	}
	return ok(c, fiber.Map{"message": "Account deleted successfully"})
}

// Session reports when the current access token should be refreshed.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	resp, err := h.authService.Session(userID, tenant.GetDeviceID(c), tenant.GetExpiry(c))
	if err != nil {
		return serviceError(c, err, "Failed to load session")
	}
	return ok(c, resp)
}

func (h *AuthHandler) GoogleSignIn(c *fiber.Ctx) error {
	var req dto.GoogleSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	withClient(c, &req.DeviceInfo)

	resp, err := h.authService.GoogleSignIn(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err, "Google sign-in failed")
	}
	return ok(c, resp)
}

func (h *AuthHandler) GoogleURL(c *fiber.Ctx) error {
	url, state, err := h.authService.Google().AuthURL()
	if err != nil {
		return serviceError(c, err, "Failed to start Google sign-in")
	}
	return ok(c, dto.GoogleURLResponse{URL: url, State: state})
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	var req dto.GoogleCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	withClient(c, &req.DeviceInfo)

	resp, err := h.authService.GoogleCallback(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err, "Google sign-in failed")
	}
	return ok(c, resp)
}
