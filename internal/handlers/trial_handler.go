package handlers

import (
	"errors"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/trial"
	"github.com/gofiber/fiber/v2"
)

type TrialHandler struct {
	trials  *trial.Service
	ingest  *services.IngestService
	catalog *i18n.Catalog
	secure  bool
}

func NewTrialHandler(trials *trial.Service, ingest *services.IngestService, catalog *i18n.Catalog, secureCookie bool) *TrialHandler {
	return &TrialHandler{trials: trials, ingest: ingest, catalog: catalog, secure: secureCookie}
}

func visitor(c *fiber.Ctx) string {
	return trial.Fingerprint(
		c.Get(fingerprintHeader),
		c.Get(fiber.HeaderUserAgent),
		c.IP(),
		c.Get(fiber.HeaderAcceptLanguage),
	)
}

// mirror sets the signed cookie copy and the remaining-uses header.
func (h *TrialHandler) mirror(c *fiber.Ctx, st *trial.Status) {
	if value, err := h.trials.Cookie(st); err == nil && value != "" {
		c.Cookie(&fiber.Cookie{
			Name:     trial.CookieName,
			Value:    value,
			Path:     "/",
			Expires:  st.ExpiresAt,
			HTTPOnly: true,
			Secure:   h.secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	c.Set("X-Trial-Remaining", strconv.Itoa(st.Remaining))
}

// respond mirrors st to the client and writes it with a localized hint.
func (h *TrialHandler) respond(c *fiber.Ctx, status int, st *trial.Status) error {
	h.mirror(c, st)
	locale := middleware.GetLocale(c)
	msg := h.catalog.T(locale, "trial.remaining", "remaining", st.Remaining)
	if st.Exhausted() {
		msg = h.catalog.T(locale, "trial.exhausted")
	}
	body := fiber.Map{"trial": st, "message": msg}
	if status >= 400 {
		return c.Status(status).JSON(fiber.Map{"success": false, "error": msg, "data": body})
	}
	return c.Status(status).JSON(dto.DataResponse{Success: true, Data: body})
}

func (h *TrialHandler) Status(c *fiber.Ctx) error {
	st := h.trials.Resolve(c.UserContext(), visitor(c), c.Cookies(trial.CookieName))
	return h.respond(c, fiber.StatusOK, st)
}

func (h *TrialHandler) consume(c *fiber.Ctx, action, resource string) error {
	st, err := h.trials.Consume(c.UserContext(), visitor(c), c.Cookies(trial.CookieName), action, resource)
	switch {
	case err == nil:
		return h.respond(c, fiber.StatusOK, st)
	case errors.Is(err, trial.ErrExhausted):
		return h.respond(c, fiber.StatusPaymentRequired, st)
	default:
		return serviceError(c, err, "Failed to record trial usage")
	}
}

func (h *TrialHandler) Consume(c *fiber.Ctx) error {
	var req dto.ConsumeTrialRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	return h.consume(c, req.Action, req.Resource)
}

// Analyze previews a public channel for an anonymous visitor. The preview
// runs before the trial is charged so a failed lookup costs nothing.
func (h *TrialHandler) Analyze(c *fiber.Ctx) error {
	var req dto.TrialAnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	ctx := c.UserContext()
	fp, cookie := visitor(c), c.Cookies(trial.CookieName)

	if st := h.trials.Resolve(ctx, fp, cookie); st.Exhausted() {
		return h.respond(c, fiber.StatusPaymentRequired, st)
	}

	preview, err := h.ingest.Preview(ctx, req.ChannelID)
	if err != nil {
		return serviceError(c, err, "Failed to analyze channel")
	}
	st, err := h.trials.Consume(ctx, fp, cookie, trial.ActionAnalyzeChannel, req.ChannelID)
	if err != nil {
		if errors.Is(err, trial.ErrExhausted) {
			return h.respond(c, fiber.StatusPaymentRequired, st)
		}
		return serviceError(c, err, "Failed to record trial usage")
	}
	h.mirror(c, st)
	return ok(c, fiber.Map{"preview": preview, "trial": st})
}

// Claim ties the visitor's trial history to the signed-in account.
func (h *TrialHandler) Claim(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	st, err := h.trials.Claim(c.UserContext(), visitor(c), c.Cookies(trial.CookieName), userID)
	if err != nil {
		return serviceError(c, err, "Failed to claim trial")
	}
	c.ClearCookie(trial.CookieName)
	return ok(c, fiber.Map{"trial": st, "message": h.catalog.T(middleware.GetLocale(c), "trial.claimed")})
}
