package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go/v7"

	"paygate/config"
	"paygate/internal/chain"
	"paygate/internal/events"
	"paygate/internal/handlers"
	"paygate/internal/services"
	"paygate/internal/services/paypro"
	"paygate/internal/store"
	"paygate/monitoring"
	"paygate/security"
	"paygate/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize the outbound event bus. Without PubNub keys payment
	// events only reach the logs, which is fine for development.
	var bus events.Bus = events.LogBus{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUUID))
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		bus = events.NewPubNubBus(pubnub.NewPubNub(pnConfig), cfg.EventChannel)
	} else {
		slog.Warn("pubnub keys not configured, payment events will only be logged")
	}

	// Initialize chain node RPC clients
	provider, err := chain.NewRPCProvider(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer provider.Close(ctx)

	// Initialize services
	invoiceStore := store.NewPocketBaseStore(app)
	subscriptions := services.NewSubscriptionRegistry()
	invoiceService := services.NewInvoiceService(invoiceStore, subscriptions, bus, redisClient, cfg.PaymentLockTTL)
	broadcaster := services.NewBroadcaster(provider)

	signer, err := paypro.NewSigner(cfg.IdentityKeyHex, cfg.BaseURL)
	if err != nil {
		return err
	}
	payproService := paypro.NewService(invoiceService, broadcaster, signer, cfg)

	// Initialize handlers
	payproHandler := handlers.NewPayproHandler(payproService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)

	// Middleware
	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Prometheus metrics on a separate listener
	if cfg.EnableMetrics {
		go monitoring.StartServer(cfg.MetricsPort, redisClient)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Payment protocol endpoint. One route serves BIP70, JSON v1
		// and JSON v2; the handler dispatches on verb and headers.
		e.Router.GET("/api/invoices/{invoiceId}/paypro", payproHandler.Handle)
		e.Router.POST("/api/invoices/{invoiceId}/paypro", payproHandler.Handle).
			BindFunc(rateLimiter.PaymentRateLimit(60))

		// Invoice endpoints
		e.Router.POST("/api/invoices", invoiceHandler.Create).
			BindFunc(security.RequireAPIKey(cfg.APIKeyHash))
		e.Router.GET("/api/invoices/{invoiceId}", invoiceHandler.Get)
		e.Router.GET("/api/invoices/{invoiceId}/events", invoiceHandler.Events)

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

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
