package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/cache"
	"github.com/silambarasu-a/namma-finance-sub000/internal/config"
	"github.com/silambarasu-a/namma-finance-sub000/internal/handler"
	"github.com/silambarasu-a/namma-finance-sub000/internal/middleware"
	"github.com/silambarasu-a/namma-finance-sub000/internal/queue"
	"github.com/silambarasu-a/namma-finance-sub000/internal/repository/postgres"
	"github.com/silambarasu-a/namma-finance-sub000/internal/service"
	"github.com/silambarasu-a/namma-finance-sub000/internal/websocket"
)

const (
	loginAttemptLimit  = 5
	loginAttemptWindow = 5 * time.Minute
	accrualInterval    = time.Hour
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Connected to database")

	// Connect to Redis
	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("Connected to redis")

	// Initialize storage
	store := postgres.NewStore(pool)
	userRepo := postgres.NewUserRepo(pool)
	customerRepo := postgres.NewCustomerRepo(pool)
	assignmentRepo := postgres.NewAssignmentRepo(pool)
	loanRepo := postgres.NewLoanRepo(pool)
	loanChargeRepo := postgres.NewLoanChargeRepo(pool)
	chargeRecordRepo := postgres.NewChargeRecordRepo(pool)
	scheduleRepo := postgres.NewScheduleRepo(pool)
	collectionRepo := postgres.NewCollectionRepo(pool)
	capitalRepo := postgres.NewCapitalRepo(pool)
	auditRepo := postgres.NewAuditRepo(pool)
	analyticsRepo := postgres.NewAnalyticsRepo(pool)

	appCache := cache.New(redisClient, cfg.CacheTTL)
	loginLimiter := cache.NewLimiter(redisClient, "login", loginAttemptLimit, loginAttemptWindow)
	jobQueue := queue.New(redisClient, "jobs", log.Logger)

	hub := websocket.NewHub()

	// Initialize services
	auditService := service.NewAuditService(auditRepo)
	accessService := service.NewAccessService(customerRepo, assignmentRepo)
	authService := service.NewAuthService(userRepo, cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := service.NewUserService(userRepo, auditService)
	customerService := service.NewCustomerService(store, userRepo, customerRepo, accessService, auditService)
	assignmentService := service.NewAssignmentService(userRepo, customerRepo, assignmentRepo, auditService)
	loanService := service.NewLoanService(store, loanRepo, loanChargeRepo, chargeRecordRepo, scheduleRepo, collectionRepo, customerRepo, accessService, auditService, jobQueue, appCache, hub)
	collectionService := service.NewCollectionService(store, loanRepo, collectionRepo, chargeRecordRepo, scheduleRepo, accessService, auditService, appCache, hub)
	accrualService := service.NewAccrualService(store, loanRepo, chargeRecordRepo, scheduleRepo, auditService, appCache)
	capitalService := service.NewCapitalService(capitalRepo, appCache)
	analyticsService := service.NewAnalyticsService(analyticsRepo, appCache)

	// Queue workers for deferred schedule generation and late-fee accrual
	scheduleWorker := service.NewScheduleWorker(store, loanRepo, scheduleRepo, hub)
	scheduleWorker.Register(jobQueue)
	accrualWorker := service.NewAccrualWorker(accrualService)
	accrualWorker.Register(jobQueue)
	go jobQueue.Run(ctx)

	// Recurring accrual trigger; the pass itself is idempotent.
	go func() {
		ticker := time.NewTicker(accrualInterval)
		defer ticker.Stop()
		for {
			if _, err := jobQueue.Enqueue(ctx, service.JobAccrueCharges, service.AccrualPayload{}); err != nil {
				log.Warn().Err(err).Msg("accrual job enqueue failed")
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo)
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Handlers
	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authService, loginLimiter, cfg.Production()),
		Loans:      handler.NewLoanHandler(loanService, accrualService),
		Collection: handler.NewCollectionHandler(collectionService),
		Customers:  handler.NewCustomerHandler(customerService, assignmentService),
		Users:      handler.NewUserHandler(userService),
		Capital:    handler.NewCapitalHandler(capitalService),
		Analytics:  handler.NewAnalyticsHandler(analyticsService, auditService),
		WS:         handler.NewWebSocketHandler(hub, assignmentRepo, customerRepo, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())

	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
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
