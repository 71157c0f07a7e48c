package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vuminhq/courtpay/api"
	"github.com/vuminhq/courtpay/config"
	"github.com/vuminhq/courtpay/internal/service/payment"
)

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, paymentSvc payment.PaymentUseCase) error {
	srv := newServer(cfg, paymentSvc)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServer(cfg *config.Config, paymentSvc payment.PaymentUseCase) *http.Server {
	router := NewRouter(paymentSvc)

	return &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}
}

// NewRouter wires the API handlers onto a gin engine.
func NewRouter(paymentSvc payment.PaymentUseCase) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	handler := api.NewPaymentHandler(paymentSvc)
	handler.Register(router.Group("/api/payments"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
