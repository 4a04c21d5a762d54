package handlers

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/gofiber/fiber/v2"
)

// I18nHandler serves the merged locale catalogs and lets admins override
// single messages at runtime.
type I18nHandler struct {
	catalog      *i18n.Catalog
	translations *services.TranslationService
}

func NewI18nHandler(catalog *i18n.Catalog, translations *services.TranslationService) *I18nHandler {
	return &I18nHandler{catalog: catalog, translations: translations}
}

func (h *I18nHandler) Locales(c *fiber.Ctx) error {
	return ok(c, fiber.Map{
		"locales": h.catalog.Locales(),
		"default": h.catalog.Default(),
		"current": middleware.GetLocale(c),
	})
}

func (h *I18nHandler) Messages(c *fiber.Ctx) error {
	locale := c.Params("locale")
	if !h.catalog.Supported(locale) {
		return fail(c, fiber.StatusNotFound, "Unsupported locale: "+locale)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	return ok(c, h.catalog.Messages(locale))
}

func (h *I18nHandler) Overrides(c *fiber.Ctx) error {
	rows, err := h.translations.List(c.Query("locale"))
	if err != nil {
		return serviceError(c, err, "Failed to list translations")
	}
	return ok(c, rows)
}

func (h *I18nHandler) SetOverride(c *fiber.Ctx) error {
	var req dto.TranslationRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	row, err := h.translations.Set(c.Params("locale"), c.Params("key"), req.Value)
	if err != nil {
		return serviceError(c, err, "Failed to store translation")
	}
	return ok(c, row)
}

func (h *I18nHandler) DeleteOverride(c *fiber.Ctx) error {
	if err := h.translations.Delete(c.Params("locale"), c.Params("key")); err != nil {
		return serviceError(c, err, "Failed to delete translation")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
