package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-admin-api/internal/config"
	"github.com/noah-isme/campus-admin-api/internal/handler"
	"github.com/noah-isme/campus-admin-api/internal/middleware"
	"github.com/noah-isme/campus-admin-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	StudentHandler   *handler.StudentHandler
	AnalyticsHandler *handler.AnalyticsHandler
	ChatHandler      *handler.ChatHandler
	KnowledgeHandler *handler.KnowledgeHandler
	JWTMiddleware    fiber.Handler
	// HealthProbes feed /health/ready; nil leaves readiness trivially up.
	HealthProbes map[string]handler.Probe
	// AdminRoles restricts protected groups; empty disables the role check.
	AdminRoles []string
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	handler.NewHealthHandler(cfg, deps.HealthProbes).Register(api)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth", middleware.RateLimit("login", 10, time.Minute)))
	}

	guards := protectedChain(deps)

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", guards...))
	}

	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.Register(api.Group("/analytics", guards...))
	}

	if deps.ChatHandler != nil {
		chat := append(append([]fiber.Handler{}, guards...), middleware.RateLimit("chat", cfg.ChatRateLimit, cfg.ChatRateWindow))
		deps.ChatHandler.Register(api.Group("/chat", chat...))
	}

	if deps.KnowledgeHandler != nil {
		deps.KnowledgeHandler.Register(api.Group("/knowledge", guards...))
	}
}

func protectedChain(deps Dependencies) []fiber.Handler {
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	chain := []fiber.Handler{jwtMiddleware}
	if len(deps.AdminRoles) > 0 {
		chain = append(chain, middleware.RequireRole(deps.AdminRoles...))
	}
	return chain
}
