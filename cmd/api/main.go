package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/recorra/recorra-backend/docs"
	"github.com/recorra/recorra-backend/internal/config"
	"github.com/recorra/recorra-backend/internal/gateway/asaas"
	"github.com/recorra/recorra-backend/internal/handler"
	"github.com/recorra/recorra-backend/internal/middleware"
	"github.com/recorra/recorra-backend/internal/repository/postgres"
	"github.com/recorra/recorra-backend/internal/repository/storage"
	"github.com/recorra/recorra-backend/internal/service"
	"github.com/recorra/recorra-backend/internal/websocket"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	orgRepo := postgres.NewOrganizationRepository(pool)
	tierRepo := postgres.NewSeverityTierRepository(pool)
	splitRepo := postgres.NewSplitRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	rechargeRepo := postgres.NewRechargeRepository(pool)

	artifactRepo, err := storage.NewS3ArtifactRepository(context.Background(), cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize artifact storage")
	}

	// Payment gateway client
	gateway := asaas.NewClient(asaas.Credentials{
		APIKey:      cfg.Asaas.APIKey,
		Environment: cfg.Asaas.Environment,
		ProxyURL:    cfg.Asaas.ProxyURL,
	})
	log.Info().Str("environment", cfg.Asaas.Environment).Msg("Payment gateway client ready")

	// WebSocket hub for billing events
	hub := websocket.NewHub()

	// Initialize services
	walletResolver := service.NewWalletResolverService(orgRepo, cfg.Asaas.PlatformWalletID)
	splitService := service.NewSplitService(tierRepo, splitRepo, walletResolver, gateway, hub)
	prepaidService := service.NewPrepaidService(ledgerRepo, hub)
	rechargeService := service.NewRechargeService(rechargeRepo, orgRepo, prepaidService, gateway, artifactRepo, hub)

	// Create organization provider adapter for auth middleware
	orgProvider := &organizationProviderAdapter{orgRepo: orgRepo}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, orgProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	// Per-organization rate limiting
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// WebSocket JWT validation reuses the organization lookup
	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, orgProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create websocket validator")
	}

	// Initialize handlers
	billingHandler := handler.NewBillingHandler(splitService)
	walletHandler := handler.NewWalletHandler(prepaidService)
	rechargeHandler := handler.NewRechargeHandler(rechargeService)
	webhookHandler := handler.NewWebhookHandler(rechargeService, splitService, cfg.Asaas.WebhookToken)
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger UI
	e.GET("/docs/*", echoSwagger.WrapHandler)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, billingHandler, walletHandler, rechargeHandler, webhookHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// organizationProviderAdapter adapts the organization repository to the
// auth middleware and websocket lookup interfaces.
type organizationProviderAdapter struct {
	orgRepo *postgres.OrganizationRepository
}

// GetOrganizationByAuth0ID implements middleware.OrganizationProvider
// and websocket.OrganizationLookup.
func (a *organizationProviderAdapter) GetOrganizationByAuth0ID(auth0ID string) (int32, error) {
	org, err := a.orgRepo.GetByAuth0ID(context.Background(), auth0ID)
	if err != nil {
		return 0, err
	}
	return org.ID, nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
