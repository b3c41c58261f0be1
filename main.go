package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/HSouheill/sm_online_shop/config"
	"github.com/HSouheill/sm_online_shop/controllers"
	"github.com/HSouheill/sm_online_shop/jobs"
	"github.com/HSouheill/sm_online_shop/middleware"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/repositories"
	"github.com/HSouheill/sm_online_shop/routes"
	"github.com/HSouheill/sm_online_shop/security"
	"github.com/HSouheill/sm_online_shop/services"
	"github.com/HSouheill/sm_online_shop/session"
	"github.com/HSouheill/sm_online_shop/utils"
	"github.com/HSouheill/sm_online_shop/views"
	"github.com/HSouheill/sm_online_shop/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the bound form
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	if cfg.JWTSecret == "" || cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			log.Fatal("JWT_SECRET and SESSION_SECRET are required in production")
		}
		log.Println("Warning: JWT_SECRET or SESSION_SECRET not set, using random secrets; logins will not survive a restart")
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = uuid.NewString()
		}
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
		}
	}

	client := config.ConnectDB(cfg)
	db := client.Database(cfg.DBName)
	rdb := config.ConnectRedis(cfg)

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = controllers.HTTPErrorHandler

	renderer, err := views.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}
	e.Renderer = renderer

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	middleware.InitMetrics(registry)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	var imageDomains []string
	if cfg.ImageStore == "s3" && cfg.S3PublicURL != "" {
		imageDomains = append(imageDomains, cfg.S3PublicURL)
	}

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(httpsRedirect())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		ImageDomains: imageDomains,
		HSTS:         cfg.IsProduction(),
	}))
	e.Use(middleware.PrometheusMiddleware())
	e.Use(middleware.JWTMiddleware(cfg.JWTSecret))
	e.Use(security.RequireFormPost())
	e.Use(security.CSRF(cfg.IsProduction(), func(c echo.Context) bool {
		path := c.Request().URL.Path
		return path == "/metrics" || path == "/health" ||
			strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, services.LocalImagePrefix+"/")
	}))

	// Initialize repositories
	var categoryCache repositories.CategoryCache
	var throttle controllers.ResetThrottle
	if rdb != nil {
		categoryCache = services.NewRedisCategoryCache(rdb, 10*time.Minute)
		throttle = func(ctx context.Context, email string) error {
			return utils.ValidateResetAttempts(ctx, rdb, email)
		}
	}

	products := repositories.NewProductRepository(db, cfg.ProductsPerPage, categoryCache)
	users := repositories.NewUserRepository(db)
	orders := repositories.NewOrderRepository(db)
	sales := repositories.NewAdminSalesRepository(db)
	tokens := repositories.NewTokenRepository(db, cfg.TokenValidity)
	userAccounts := repositories.NewAccountRepository(db, models.RoleUser, bson.M{
		"balance": cfg.UserStartingBalance,
		"cart":    []models.CartItem{},
	})
	adminAccounts := repositories.NewAccountRepository(db, models.RoleAdmin, nil)

	images, err := services.NewImageStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise image store: %v", err)
	}
	var imageDir string
	if local, ok := images.(*services.LocalImageStore); ok {
		imageDir = local.Dir()
	}
	mailer, err := services.NewMailer(cfg)
	if err != nil {
		log.Fatal(err)
	}

	// Initialize controllers
	sessions := session.NewStore(cfg.SessionSecret, int(cfg.SessionTTL.Seconds()), cfg.IsProduction())
	base := controllers.Base{Sessions: sessions}
	authSettings := controllers.AuthSettings{
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.SessionTTL,
		SecureCookie: cfg.IsProduction(),
		BaseURL:      cfg.BaseURL,
	}

	ctrl := routes.Controllers{
		Shop:  controllers.NewShopController(base, products, users, orders, sales, userAccounts, wsHub, cfg.BaseURL),
		Admin: controllers.NewAdminController(base, products, sales, images, wsHub, cfg.SalesWindowDays),
		Auth: []*controllers.AuthController{
			controllers.NewAuthController(base, userAccounts, tokens, mailer, throttle, authSettings),
			controllers.NewAuthController(base, adminAccounts, tokens, mailer, throttle, authSettings),
		},
	}

	routes.SetupRoutes(e, ctrl, sessions, routes.SystemOptions{
		Gatherer:          registry,
		MetricsAllowedIPs: cfg.MetricsAllowedIPs,
		ImageDir:          imageDir,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
	})

	// Purge expired reset tokens in the background
	scheduler, err := jobs.NewScheduler(time.Local, tokens)
	if err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}
	scheduler.StartAsync()

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
