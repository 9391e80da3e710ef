package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/juriscalc/payment-bridge/internal/api"
	"github.com/juriscalc/payment-bridge/internal/config"
	"github.com/juriscalc/payment-bridge/internal/gateway"
	"github.com/juriscalc/payment-bridge/internal/repository"
	"github.com/juriscalc/payment-bridge/internal/service"
	"github.com/juriscalc/payment-bridge/internal/signature"
	"github.com/juriscalc/payment-bridge/internal/telemetry"
)

const stateEventTopic = "payment.order.state.changed"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.Init("payment-bridge"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Payment Bridge",
		zap.String("environment", cfg.Environment),
	)

	if err := cfg.Validate(); err != nil {
		telemetry.Logger.Fatal("Invalid configuration", zap.Error(err))
	}
	if !cfg.VerificationEnabled() {
		telemetry.Logger.Warn("Webhook signature verification is DISABLED: set HMAC_VERIFICATION_KEY before taking real payments")
	}

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize the pending-order ledger
	ledger := repository.NewPendingOrderRepository(db)
	if err := ledger.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Connect to Redis for per-order reconciliation locks
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	// Connect to NATS for orphan-notification events
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	// Connect to Kafka for order-state events
	kafkaWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers),
		Topic:    stateEventTopic,
		Balancer: &kafka.LeastBytes{},
	}
	defer kafkaWriter.Close()

	// Wire the payment flow and webhook processor
	gatewayClient := gateway.NewClient(cfg, telemetry.Logger)
	paymentService := service.NewPaymentService(
		signature.New(cfg.SecretKey),
		gatewayClient,
		ledger,
		kafkaWriter,
		telemetry.Logger,
	)
	webhookProcessor := service.NewWebhookProcessor(
		cfg,
		signature.New(cfg.HMACVerificationKey),
		ledger,
		service.NewRedisLocker(redisClient),
		kafkaWriter,
		nc,
		telemetry.Logger,
	)

	r := api.NewRouter(paymentService, webhookProcessor, ledger)

	// Setup HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Payment Bridge starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
