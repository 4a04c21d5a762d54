package middleware

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireFeature rejects callers whose current plan lacks feature. The plan
// is read from the user row so upgrades apply before the token is refreshed.
func RequireFeature(db *gorm.DB, registry *plans.Registry, feature string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := tenant.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Success: false, Error: "Unauthorized",
			})
		}

		plan := tenant.GetPlan(c)
		var user models.User
		if err := db.Select("plan").First(&user, "id = ?", userID).Error; err == nil && user.Plan != "" {
			plan = user.Plan
		}

		if !registry.HasFeature(plan, feature) {
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Success: false, Error: "Your plan does not include " + feature,
			})
		}
		c.Locals("plan", plan)
		return c.Next()
	}
}
