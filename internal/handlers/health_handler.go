package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/config"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/database"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	registry *plans.Registry
}

func NewHealthHandler(db *gorm.DB, cfg *config.Config, registry *plans.Registry) *HealthHandler {
	return &HealthHandler{db: db, cfg: cfg, registry: registry}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status, dbStatus := "ok", "ok"
	code := fiber.StatusOK
	if err := database.Ping(h.db); err != nil {
		status, dbStatus = "degraded", "unhealthy: "+err.Error()
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(dto.HealthResponse{
		Status:            status,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		DB:                dbStatus,
		PlanCount:         len(h.registry.All()),
		YouTubeConfigured: h.cfg.YouTubeAPIKey != "",
		StorageConfigured: h.cfg.StorageEnabled(),
	})
}
