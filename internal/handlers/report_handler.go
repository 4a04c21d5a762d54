package handlers

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	report, err := h.reportService.Create(userID, middleware.GetLocale(c), &req)
	if err != nil {
		return serviceError(c, err, "Failed to create report")
	}
	return created(c, report)
}

func (h *ReportHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	channelID, err := queryID(c, "channel_id")
	if err != nil {
		return err
	}
	page, limit := pageParams(c)
	reports, total, err := h.reportService.List(userID, channelID, page, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list reports")
	}
	return paged(c, reports, total, page, limit)
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	report, err := h.reportService.Get(userID, id)
	if err != nil {
		return serviceError(c, err, "Failed to load report")
	}
	return ok(c, report)
}

func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.reportService.Delete(userID, id); err != nil {
		return serviceError(c, err, "Failed to delete report")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export answers with a presigned download link when object storage is
// configured and streams the file otherwise.
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	export, err := h.reportService.Export(c.UserContext(), userID, id, c.Query("format", "csv"))
	if err != nil {
		return serviceError(c, err, "Failed to export report")
	}

	if export.URL != "" {
		return ok(c, dto.ExportResponse{
			URL:       export.URL,
			Key:       export.Key,
			Format:    export.Format,
			ExpiresAt: export.ExpiresAt,
		})
	}
	c.Set(fiber.HeaderContentType, export.ContentType+"; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	return c.Send(export.Data)
}
