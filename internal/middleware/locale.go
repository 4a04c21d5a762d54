package middleware

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/gofiber/fiber/v2"
)

const LocaleCookie = "NEXT_LOCALE"

// Locale resolves the request locale from ?locale=, the NEXT_LOCALE cookie,
// then Accept-Language, and stores it in Locals("locale").
func Locale(catalog *i18n.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locale := catalog.Match(c.Query("locale"), c.Cookies(LocaleCookie), c.Get(fiber.HeaderAcceptLanguage))
		c.Locals("locale", locale)
		c.Set(fiber.HeaderContentLanguage, locale)
		return c.Next()
	}
}

func GetLocale(c *fiber.Ctx) string {
	if l, ok := c.Locals("locale").(string); ok {
		return l
	}
	return i18n.DefaultLocale
}
