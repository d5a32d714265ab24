package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	videoDTO "github.com/visually/visually-api/internal/adapter/dto/video"
	"github.com/visually/visually-api/pkg/config"
)

// HealthCheck probes one dependency for /health
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Router holds all handlers
type Router struct {
	cfg          *config.Config
	videoHandler *Video
	checks       []HealthCheck
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, videoHandler *Video, checks ...HealthCheck) *Router {
	return &Router{
		cfg:          cfg,
		videoHandler: videoHandler,
		checks:       checks,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupVideoRoutes(v1)
}

// setupVideoRoutes configures render routes
func (rt *Router) setupVideoRoutes(g *echo.Group) {
	videoGroup := g.Group("/videos")

	if rt.videoHandler != nil {
		videoGroup.POST("/render", rt.videoHandler.Render)
		videoGroup.GET("/render/:id", rt.videoHandler.GetRun)
	} else {
		videoGroup.POST("/render", rt.notImplemented)
		videoGroup.GET("/render/:id", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":  "This endpoint is not yet implemented",
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	})
}

// healthCheck returns health status; any failing check degrades it to 503
func (rt *Router) healthCheck(c echo.Context) error {
	env := "development"
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	resp := videoDTO.HealthResponse{
		Status:      "ok",
		Environment: env,
		Time:        time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	for _, check := range rt.checks {
		if err := check.Check(ctx); err != nil {
			if resp.Checks == nil {
				resp.Checks = make(map[string]string)
			}
			resp.Checks[check.Name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	return c.JSON(status, resp)
}
