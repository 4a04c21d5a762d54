package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	subscriptionService *services.SubscriptionService
	secret              string
}

func NewWebhookHandler(subscriptionService *services.SubscriptionService, secret string) *WebhookHandler {
	return &WebhookHandler{subscriptionService: subscriptionService, secret: secret}
}

// HandleBilling applies a subscription event from the billing provider. The
// Authorization header must equal the configured secret.
func (h *WebhookHandler) HandleBilling(c *fiber.Ctx) error {
	if h.secret == "" {
		return fail(c, fiber.StatusNotFound, "Webhooks not configured")
	}
	if subtle.ConstantTimeCompare([]byte(c.Get(fiber.HeaderAuthorization)), []byte(h.secret)) != 1 {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var webhook dto.BillingWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid webhook payload")
	}

	if err := h.subscriptionService.HandleWebhookEvent(&webhook.Event); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		slog.Error("webhook processing failed", "event_type", webhook.Event.Type, "event_id", webhook.Event.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to process webhook event")
	}

	slog.Info("webhook processed", "event_type", webhook.Event.Type, "event_id", webhook.Event.ID)
	return c.JSON(fiber.Map{"received": true})
}
