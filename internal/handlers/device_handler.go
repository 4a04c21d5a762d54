package handlers

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type DeviceHandler struct {
	deviceService *services.DeviceService
}

func NewDeviceHandler(deviceService *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

func (h *DeviceHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	devices, err := h.deviceService.List(userID)
	if err != nil {
		return serviceError(c, err, "Failed to list devices")
	}
	return ok(c, fiber.Map{"devices": devices, "current_device_id": tenant.GetDeviceID(c)})
}

func (h *DeviceHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	device, err := h.deviceService.Update(userID, id, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update device")
	}
	return ok(c, device)
}

func (h *DeviceHandler) Revoke(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.deviceService.Revoke(userID, id, tenant.GetDeviceID(c)); err != nil {
		return serviceError(c, err, "Failed to revoke device")
	}
	return ok(c, fiber.Map{"message": "Device signed out"})
}

func (h *DeviceHandler) Alerts(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	alerts, err := h.deviceService.Alerts(userID, c.QueryBool("unread"))
	if err != nil {
		return serviceError(c, err, "Failed to list security alerts")
	}
	return ok(c, alerts)
}

func (h *DeviceHandler) AckAlert(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.deviceService.AckAlert(userID, id); err != nil {
		return serviceError(c, err, "Failed to acknowledge alert")
	}
	return ok(c, fiber.Map{"acknowledged": true})
}
