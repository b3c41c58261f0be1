package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/HSouheill/sm_online_shop/controllers"
	"github.com/HSouheill/sm_online_shop/middleware"
	"github.com/HSouheill/sm_online_shop/services"
	"github.com/HSouheill/sm_online_shop/session"
	"github.com/HSouheill/sm_online_shop/views"
)

// Controllers bundles every handler set the shop serves
type Controllers struct {
	Shop  *controllers.ShopController
	Admin *controllers.AdminController
	Auth  []*controllers.AuthController
}

// SystemOptions configures the routes that are not pages
type SystemOptions struct {
	Gatherer          prometheus.Gatherer
	MetricsAllowedIPs []string
	// ImageDir is served under /images when product images are stored locally
	ImageDir string
	Ping     func(ctx context.Context) error
}

// SetupRoutes configures all routes by calling the individual route registration functions
func SetupRoutes(e *echo.Echo, ctrl Controllers, sessions *session.Store, opts SystemOptions) {
	RegisterShopRoutes(e, ctrl.Shop, sessions)
	RegisterAdminRoutes(e, ctrl.Admin, sessions)
	for _, ac := range ctrl.Auth {
		RegisterAuthRoutes(e, ac)
	}
	RegisterSystemRoutes(e, opts)
}

// RegisterSystemRoutes adds health, metrics and static file routes
func RegisterSystemRoutes(e *echo.Echo, opts SystemOptions) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		status := map[string]string{"status": "healthy", "database": "connected"}
		if opts.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := opts.Ping(ctx); err != nil {
				c.Logger().Errorf("Health check failed: %v", err)
				status["status"] = "unhealthy"
				status["database"] = "unreachable"
				return c.JSON(http.StatusServiceUnavailable, status)
			}
		}
		return c.JSON(http.StatusOK, status)
	})

	if opts.Gatherer != nil {
		e.GET("/metrics", middleware.MetricsHandler(opts.Gatherer, opts.MetricsAllowedIPs))
	}

	e.StaticFS("/static", views.Static())
	if opts.ImageDir != "" {
		e.Static(services.LocalImagePrefix, opts.ImageDir)
	}
}
