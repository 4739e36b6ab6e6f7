package cmd

import (
	"context"
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go/v7"

	"tickethub/config"
	"tickethub/internal/cache"
	"tickethub/internal/handlers"
	"tickethub/internal/reports"
	"tickethub/internal/services"
	"tickethub/internal/services/payment"
	"tickethub/monitoring"
	"tickethub/security"
	"tickethub/utils"

	_ "tickethub/migrations"
)

func Start() error {
	app := pocketbase.New()

	cfg := config.LoadConfig()
	logger := config.NewLogger(cfg.Environment)

	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" {
		pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
		pnCfg.PublishKey = cfg.PubNubPublishKey
		pnCfg.SubscribeKey = cfg.PubNubSubscribeKey
		pnCfg.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnCfg)
	}

	gateway := payment.NewClient(&payment.ClientConfig{
		BaseURL:  cfg.GatewayBaseURL,
		APIToken: cfg.GatewayToken,
		Timeout:  cfg.GatewayTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reportCache := cache.New()
	reportCache.StartSweeper(ctx, cfg.CacheSweepPeriod)

	// Services
	reportService := reports.NewService(app, reportCache, cfg.ReportCacheTTL, logger)
	checkoutService := services.NewCheckoutService(app, redisClient, gateway, cfg.CheckoutHoldTTL, logger)
	attendanceService := services.NewAttendanceService(app, pn, cfg.QRSecret, cfg.PubNubScanChannel, logger)

	// Handlers
	eventHandler := handlers.NewEventHandler(app, logger)
	checkoutHandler := handlers.NewCheckoutHandler(app, checkoutService, cfg.QRSecret, logger)
	webhookHandler := handlers.NewWebhookHandler(app, gateway, cfg.WebhookSecret, logger)
	reportHandler := handlers.NewReportHandler(reportService, logger)
	adminHandler := handlers.NewAdminHandler(app, logger)
	attendanceHandler := handlers.NewAttendanceHandler(app, attendanceService, logger)

	rateLimiter := security.NewRateLimiter(redisClient)

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	if cfg.EnableMetrics {
		monitoring.StartMetricsServer(cfg.MetricsPort, logger)
	}

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Public browsing
		e.Router.GET("/api/events", eventHandler.ListEvents)
		e.Router.GET("/api/events/{eventId}", eventHandler.GetEvent)

		// Checkout and orders
		e.Router.POST("/api/checkout", checkoutHandler.Checkout).
			BindFunc(rateLimiter.Limit("checkout", cfg.CheckoutRateLimit, cfg.RateLimitWindow))
		e.Router.GET("/api/orders", checkoutHandler.ListMyOrders)
		e.Router.GET("/api/orders/{orderId}", checkoutHandler.GetOrder)

		// Payment gateway callback
		e.Router.POST("/api/payment/webhook", webhookHandler.HandlePaymentWebhook)

		// Attendance validation (admin session or scanner device key)
		e.Router.POST("/api/admin/attendance/validate", attendanceHandler.ValidateTicket).
			BindFunc(rateLimiter.Limit("scan", cfg.ScanRateLimit, cfg.RateLimitWindow))

		// Admin dashboard
		admin := e.Router.Group("/api/admin")
		admin.Bind(apis.RequireSuperuserAuth())
		admin.GET("/reports", reportHandler.GetSummary)
		admin.GET("/reports/tables", reportHandler.GetTable)
		admin.GET("/members", adminHandler.ListMembers)
		admin.GET("/reservations", adminHandler.ListReservations)
		admin.POST("/scanners", adminHandler.RegisterScanner)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		logger.Info("server routes registered")

		return e.Next()
	})

	return app.Start()
}
