package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/vuminhq/courtpay/config"
	"github.com/vuminhq/courtpay/internal/email"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.PaymentEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode event error: %v", err)
				return nil
			}
			return emailSender.Send(ctx, event)
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer expireTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-expireTicker.C:
			expired, err := paymentService.ExpireStaleBookings(ctx)
			if err != nil {
				log.Printf("expire bookings error: %v", err)
				continue
			}
			if len(expired) > 0 {
				log.Printf("expired %d bookings", len(expired))
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
