package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/config"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// Handlers bundles every HTTP handler the API mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Device    *handlers.DeviceHandler
	Sync      *handlers.SyncHandler
	Trial     *handlers.TrialHandler
	Channel   *handlers.ChannelHandler
	Video     *handlers.VideoHandler
	Report    *handlers.ReportHandler
	Dashboard *handlers.DashboardHandler
	Insight   *handlers.InsightHandler
	Team      *handlers.TeamHandler
	I18n      *handlers.I18nHandler
	Webhook   *handlers.WebhookHandler
	Admin     *handlers.AdminHandler
	Health    *handlers.HealthHandler
}

// Limits are requests per minute per IP. Zero disables the limiter, which
// tests rely on.
type Limits struct {
	API  int
	Auth int
}

func perIP(max int) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false, "error": "Too many requests",
			})
		},
	})
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, registry *plans.Registry, catalog *i18n.Catalog, limits Limits, h Handlers) {
	api := app.Group("/api", perIP(limits.API), middleware.Locale(catalog))
	jwt := middleware.JWTProtected(cfg)

	api.Get("/health", h.Health.Check)

	api.Get("/i18n/locales", h.I18n.Locales)
	api.Get("/i18n/:locale", h.I18n.Messages)

	// Billing provider, authorized by shared secret (no JWT)
	api.Post("/webhooks/billing", h.Webhook.HandleBilling)

	// Auth, stricter limit
	auth := api.Group("/auth")
	authLimit := perIP(limits.Auth)
	auth.Post("/register", authLimit, h.Auth.Register)
	auth.Post("/login", authLimit, h.Auth.Login)
	auth.Post("/refresh", authLimit, h.Auth.Refresh)
	auth.Post("/google", authLimit, h.Auth.GoogleSignIn)
	auth.Get("/google/url", authLimit, h.Auth.GoogleURL)
	auth.Post("/google/callback", authLimit, h.Auth.GoogleCallback)
	auth.Post("/logout", h.Auth.Logout)
	auth.Post("/logout-all", jwt, h.Auth.LogoutAll)
	auth.Get("/session", jwt, h.Auth.Session)
	auth.Delete("/account", jwt, h.Auth.DeleteAccount)

	// Anonymous trial; a token is optional except for claiming
	trial := api.Group("/trial", middleware.OptionalJWT(cfg))
	trial.Get("/status", h.Trial.Status)
	trial.Post("/consume", h.Trial.Consume)
	trial.Post("/analyze", h.Trial.Analyze)
	trial.Post("/claim", jwt, h.Trial.Claim)

	api.Get("/users/me", jwt, h.User.Me)
	api.Put("/users/me", jwt, h.User.UpdateMe)

	api.Get("/devices", jwt, h.Device.List)
	api.Put("/devices/:id", jwt, h.Device.Update)
	api.Delete("/devices/:id", jwt, h.Device.Revoke)
	api.Get("/security/alerts", jwt, h.Device.Alerts)
	api.Post("/security/alerts/:id/ack", jwt, h.Device.AckAlert)

	api.Get("/sync/events", jwt, h.Sync.Events)
	api.Post("/sync/events", jwt, h.Sync.Publish)

	channels := api.Group("/channels", jwt)
	channels.Get("/", h.Channel.List)
	channels.Post("/", h.Channel.Create)
	channels.Get("/:id", h.Channel.Get)
	channels.Put("/:id", h.Channel.Update)
	channels.Delete("/:id", h.Channel.Delete)
	channels.Post("/:id/sync", h.Channel.Sync)
	channels.Put("/:id/team", h.Channel.Share)
	channels.Get("/:id/videos", h.Video.List)
	channels.Post("/:id/videos", h.Video.Create)

	videos := api.Group("/videos", jwt)
	videos.Get("/:id", h.Video.Get)
	videos.Put("/:id", h.Video.Update)
	videos.Delete("/:id", h.Video.Delete)
	videos.Get("/:id/comments", h.Video.Comments)
	videos.Post("/:id/comments", h.Video.AddComment)
	api.Delete("/comments/:id", jwt, h.Video.DeleteComment)

	reports := api.Group("/reports", jwt)
	reports.Get("/", h.Report.List)
	reports.Post("/", h.Report.Create)
	reports.Get("/:id", h.Report.Get)
	reports.Delete("/:id", h.Report.Delete)
	reports.Get("/:id/export", middleware.RequireFeature(db, registry, plans.FeatureReportExport), h.Report.Export)

	dashboards := api.Group("/dashboards", jwt)
	dashboards.Get("/", h.Dashboard.List)
	dashboards.Post("/", h.Dashboard.Create)
	dashboards.Get("/overview", h.Dashboard.Overview)
	dashboards.Get("/:id", h.Dashboard.Get)
	dashboards.Put("/:id", h.Dashboard.Update)
	dashboards.Delete("/:id", h.Dashboard.Delete)

	insights := api.Group("/insights", jwt)
	insights.Get("/", h.Insight.List)
	insights.Post("/generate", middleware.RequireFeature(db, registry, plans.FeatureAIInsights), h.Insight.Generate)
	insights.Delete("/:id", h.Insight.Delete)

	teams := api.Group("/teams", jwt)
	teams.Get("/", h.Team.List)
	teams.Post("/", h.Team.Create)
	teams.Get("/:id", h.Team.Get)
	teams.Put("/:id", h.Team.Rename)
	teams.Delete("/:id", h.Team.Delete)
	teams.Post("/:id/members", h.Team.AddMember)
	teams.Put("/:id/members/:userId", h.Team.UpdateMember)
	teams.Delete("/:id/members/:userId", h.Team.RemoveMember)
	teams.Post("/:id/leave", h.Team.Leave)

	// Admin: X-Admin-Token or an admin account
	admin := api.Group("/admin", middleware.OptionalJWT(cfg), middleware.AdminRequired(db, cfg))
	admin.Get("/users", h.Admin.Users)
	admin.Put("/users/:id/plan", h.Admin.SetPlan)
	admin.Post("/trials/reset", h.Admin.ResetTrial)
	admin.Get("/logs", h.Admin.Logs)
	admin.Get("/i18n", h.I18n.Overrides)
	admin.Put("/i18n/:locale/:key", h.I18n.SetOverride)
	admin.Delete("/i18n/:locale/:key", h.I18n.DeleteOverride)
}
