package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vuminhq/courtpay/config"
	"github.com/vuminhq/courtpay/internal/bootstrap"
	"github.com/vuminhq/courtpay/internal/gateway/vnpay"
	"github.com/vuminhq/courtpay/internal/holdstore"
	"github.com/vuminhq/courtpay/internal/kafka"
	"github.com/vuminhq/courtpay/internal/repository"
	"github.com/vuminhq/courtpay/internal/service/fees"
	"github.com/vuminhq/courtpay/internal/service/payment"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	holds := holdstore.NewRedisHoldStore(cfg.Redis)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	gateway := vnpay.NewClient(cfg.VNPay)

	bookingRepo := repository.NewBookingRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)

	paymentService := payment.NewPaymentService(
		bookingRepo,
		orderRepo,
		catalogRepo,
		fees.NewCalculator(catalogRepo),
		holds,
		gateway,
		producer,
		cfg.Kafka.PaymentsTopic,
		time.Duration(cfg.Payment.HoldTTLMinutes)*time.Minute,
		time.Duration(cfg.Payment.CallbackTimeoutSeconds)*time.Second,
		time.Duration(cfg.Payment.ReplayWindowHours)*time.Hour,
		payment.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, paymentService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
