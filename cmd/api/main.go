package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/moremoney/moremoney-backend/internal/auth"
	"github.com/moremoney/moremoney-backend/internal/config"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/handler"
	"github.com/moremoney/moremoney-backend/internal/mail"
	"github.com/moremoney/moremoney-backend/internal/middleware"
	"github.com/moremoney/moremoney-backend/internal/repository/postgres"
	"github.com/moremoney/moremoney-backend/internal/service"
	"github.com/moremoney/moremoney-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// @title MoreMoney API
// @version 1.0
// @description Finance tracker API: transactions, categories and the dashboard.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		log.Info().Msg("Migrations applied")
	}

	// Connect to database
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 0)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	dashboardRepo := postgres.NewDashboardRepository(pool)

	// Outgoing mail goes to RabbitMQ when configured, otherwise to the log
	var mailer domain.MailPublisher = mail.NoOpPublisher{}
	if cfg.Mail.AMQPURL != "" {
		amqpPublisher, err := mail.NewAMQPPublisher(cfg.Mail.AMQPURL, cfg.Mail.Exchange, cfg.Mail.Queue)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to mail queue")
		}
		defer func() {
			if err := amqpPublisher.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close mail publisher")
			}
		}()
		mailer = amqpPublisher
		log.Info().Str("queue", cfg.Mail.Queue).Msg("Mail queue connected")
	} else {
		log.Warn().Msg("AMQP_URL not set, recovery mail will only be logged")
	}

	// Sessions
	sessionCfg := auth.Config{
		Secret:   []byte(cfg.Session.Secret),
		Issuer:   cfg.Session.Issuer,
		Audience: cfg.Session.Audience,
		TTL:      cfg.Session.TTL,
	}
	issuer := auth.NewIssuer(sessionCfg)
	validator, err := auth.NewValidator(sessionCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session validator")
	}
	authMiddleware := middleware.NewAuthMiddleware(validator)

	// Realtime events
	hub := websocket.NewHub()

	// Initialize services
	authService := service.NewAuthService(userRepo, issuer)
	passwordService := service.NewPasswordService(userRepo, mailer, cfg.AppURL)
	companyService := service.NewCompanyService(companyRepo)
	userService := service.NewUserService(userRepo, companyRepo)
	categoryService := service.NewCategoryService(categoryRepo, transactionRepo, userRepo)
	categoryService.SetEventPublisher(hub)
	transactionService := service.NewTransactionService(transactionRepo, categoryRepo, userRepo)
	transactionService.SetEventPublisher(hub)
	dashboardService := service.NewDashboardService(dashboardRepo, service.DashboardOptions{
		RecentLimit:         cfg.Dashboard.RecentLimit,
		RecentFollowsPeriod: cfg.Dashboard.RecentFollowsPeriod,
		Concurrency:         cfg.Dashboard.QueryConcurrency,
	})

	// Rate limiters
	publicLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute/4+1, cfg.RateLimit.Burst/4+1)
	defer publicLimiter.Stop()
	apiLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	defer apiLimiter.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(requestLogger())
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// API documentation
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", handler.OpenAPIHandler(
		handler.Server{URL: "http://localhost:" + cfg.Port + "/api/v1", Description: "Local Development"},
		handler.Server{URL: "https://api.moremoney.app/api/v1", Description: "Production"},
	))

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware,
		handler.RouteLimits{Public: publicLimiter, API: apiLimiter},
		handler.Handlers{
			Auth:        handler.NewAuthHandler(authService, passwordService),
			Dashboard:   handler.NewDashboardHandler(dashboardService),
			Transaction: handler.NewTransactionHandler(transactionService),
			Category:    handler.NewCategoryHandler(categoryService),
			Company:     handler.NewCompanyHandler(companyService),
			User:        handler.NewUserHandler(userService),
		})

	// Live updates; the token travels on the query string
	wsHandler := handler.NewWebSocketHandler(hub, websocket.NewTokenValidator(validator), handler.WebSocketOptions{
		AllowedOrigins:        cfg.CORSOrigins,
		MaxConnectionsPerUser: cfg.WSMaxConnectionsPerUser,
	})
	e.GET("/ws", wsHandler.HandleWS)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// requestLogger logs one line per request using zerolog
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Int32("user_id", middleware.GetUserID(c)).
				Msg("request")

			return nil
		}
	}
}
