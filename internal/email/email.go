package email

import (
	"context"
	"fmt"

	"github.com/vuminhq/courtpay/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.PaymentEvent) error {
	fmt.Printf("send email to %s about %s for booking %d (order ref %s)\n", event.Email, event.Type, event.BookingID, event.OrderRef)
	return nil
}
