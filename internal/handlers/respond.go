package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/trial"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/youtube"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errorStatus maps service sentinels onto HTTP statuses. Anything unknown is
// an internal error.
var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrInvalidInput, fiber.StatusBadRequest},
	{services.ErrPasswordRequired, fiber.StatusBadRequest},
	{services.ErrInvalidReportType, fiber.StatusBadRequest},
	{services.ErrInvalidFormat, fiber.StatusBadRequest},
	{services.ErrInvalidRole, fiber.StatusBadRequest},
	{services.ErrUnsupportedLocale, fiber.StatusBadRequest},
	{services.ErrUnknownPlan, fiber.StatusBadRequest},
	{services.ErrCurrentDevice, fiber.StatusBadRequest},
	{services.ErrOwnerCannotLeave, fiber.StatusBadRequest},
	{trial.ErrInvalidAction, fiber.StatusBadRequest},

	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{services.ErrInvalidToken, fiber.StatusUnauthorized},
	{services.ErrGoogleToken, fiber.StatusUnauthorized},
	{services.ErrInvalidState, fiber.StatusUnauthorized},

	{services.ErrPlanLimit, fiber.StatusPaymentRequired},
	{services.ErrFeatureUnavailable, fiber.StatusPaymentRequired},
	{trial.ErrExhausted, fiber.StatusPaymentRequired},

	{services.ErrChannelForbidden, fiber.StatusForbidden},
	{services.ErrTeamForbidden, fiber.StatusForbidden},

	{services.ErrUserNotFound, fiber.StatusNotFound},
	{services.ErrChannelNotFound, fiber.StatusNotFound},
	{services.ErrVideoNotFound, fiber.StatusNotFound},
	{services.ErrCommentNotFound, fiber.StatusNotFound},
	{services.ErrReportNotFound, fiber.StatusNotFound},
	{services.ErrDashboardNotFound, fiber.StatusNotFound},
	{services.ErrInsightNotFound, fiber.StatusNotFound},
	{services.ErrTeamNotFound, fiber.StatusNotFound},
	{services.ErrMemberNotFound, fiber.StatusNotFound},
	{services.ErrDeviceNotFound, fiber.StatusNotFound},
	{services.ErrAlertNotFound, fiber.StatusNotFound},
	{services.ErrUnknownKey, fiber.StatusNotFound},
	{youtube.ErrNotFound, fiber.StatusNotFound},

	{services.ErrEmailTaken, fiber.StatusConflict},
	{services.ErrChannelExists, fiber.StatusConflict},
	{services.ErrVideoExists, fiber.StatusConflict},
	{services.ErrAlreadyMember, fiber.StatusConflict},
	{trial.ErrConverted, fiber.StatusConflict},

	{youtube.ErrQuotaExceeded, fiber.StatusTooManyRequests},

	{services.ErrGoogleDisabled, fiber.StatusServiceUnavailable},
	{services.ErrYouTubeUnavailable, fiber.StatusServiceUnavailable},
	{youtube.ErrNotConfigured, fiber.StatusServiceUnavailable},
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(dto.DataResponse{Success: true, Data: data})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(dto.DataResponse{Success: true, Data: data})
}

func paged(c *fiber.Ctx, data interface{}, total int64, page, limit int) error {
	return c.JSON(dto.PageResponse{Success: true, Data: data, Total: total, Page: page, Limit: limit})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Success: false, Error: msg})
}

func badBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "Invalid request body")
}

// serviceError writes err with its mapped status. Internal errors are logged
// and replaced by msg.
func serviceError(c *fiber.Ctx, err error, msg string) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return fail(c, e.status, err.Error())
		}
	}
	slog.Error(msg, "path", c.Path(), "error", err)
	return fail(c, fiber.StatusInternalServerError, msg)
}

// ErrorHandler renders errors that escape a handler. Details of 5xx errors
// stay in the log.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}
	return fail(c, code, message)
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return userID, nil
}

// paramID parses a UUID path parameter.
func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// queryID parses an optional UUID query parameter.
func queryID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return &id, nil
}

func pageParams(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
