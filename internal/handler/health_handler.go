package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-admin-api/internal/config"
	"github.com/noah-isme/campus-admin-api/internal/utils"
)

// Probe reports whether a backing dependency is reachable.
type Probe func(ctx context.Context) error

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	AI          bool      `json:"ai_enabled"`
}

// ReadinessCheck is one probe outcome.
type ReadinessCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthHandler serves liveness and readiness.
type HealthHandler struct {
	cfg     config.Config
	probes  map[string]Probe
	timeout time.Duration
}

// NewHealthHandler builds the handler. Probes are keyed by dependency name.
func NewHealthHandler(cfg config.Config, probes map[string]Probe) *HealthHandler {
	return &HealthHandler{cfg: cfg, probes: probes, timeout: 2 * time.Second}
}

// Register attaches the health routes.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health", h.Live)
	router.Get("/health/ready", h.Ready)
}

// Live always answers while the process serves requests.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "service healthy", HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC(),
		Service:     h.cfg.AppName,
		Environment: h.cfg.AppEnv,
		AI:          h.cfg.AIEnabled(),
	})
}

// Ready runs every probe and answers 503 when any of them fails.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	checks := make([]ReadinessCheck, 0, len(names))
	ready := true
	for _, name := range names {
		check := ReadinessCheck{Name: name, Status: "up"}
		if err := h.probes[name](ctx); err != nil {
			check.Status = "down"
			check.Error = err.Error()
			ready = false
		}
		checks = append(checks, check)
	}

	if !ready {
		return utils.Fail(c, fiber.StatusServiceUnavailable, "service not ready", checks)
	}
	return utils.SendSuccess(c, "service ready", checks)
}
