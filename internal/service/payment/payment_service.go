package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vuminhq/courtpay/internal/domain"
	"github.com/vuminhq/courtpay/internal/gateway/vnpay"
	"github.com/vuminhq/courtpay/internal/kafka"
	"github.com/vuminhq/courtpay/internal/repository"
	"github.com/vuminhq/courtpay/internal/service/fees"
)

type PaymentUseCase interface {
	RequestPayment(ctx context.Context, input RequestPaymentInput) (*PaymentIntent, error)
	HandleCallback(ctx context.Context, query url.Values) CallbackResult
	ExpireStaleBookings(ctx context.Context) ([]domain.Booking, error)
}

type FeeCalculator interface {
	Calculate(ctx context.Context, slotIDs, serviceIDs []int64, discountID int64) (int64, error)
}

// HoldStore is the keyed store for in-flight payment holds. Take must be
// atomic: of two racing callers exactly one receives the hold.
type HoldStore interface {
	Create(ctx context.Context, hold domain.PendingHold, ttl time.Duration) error
	Update(ctx context.Context, hold domain.PendingHold) error
	Take(ctx context.Context, orderRef string) (*domain.PendingHold, error)
	Remove(ctx context.Context, orderRef string) error
	MarkResolved(ctx context.Context, orderRef string, window time.Duration) error
	WasResolved(ctx context.Context, orderRef string) (bool, error)
}

type Gateway interface {
	BuildPaymentURL(req vnpay.PaymentRequest) (string, error)
	VerifySignature(data vnpay.CallbackData) bool
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// ResultCode is the acknowledgement code returned to the gateway.
type ResultCode string

const (
	RspAcknowledged     ResultCode = "00"
	RspOrderNotFound    ResultCode = "01"
	RspAlreadyHandled   ResultCode = "02"
	RspInvalidSignature ResultCode = "97"
	RspUnknownError     ResultCode = "99"
)

// CallbackResult is the terminal outcome of a gateway callback. Code and
// Message go back to the gateway; Confirmed reports the saga outcome.
type CallbackResult struct {
	Code      ResultCode
	Message   string
	Confirmed bool
	BookingID int64
	OrderRef  string
}

type PaymentService struct {
	bookings           repository.BookingRepository
	orders             repository.OrderRepository
	catalog            repository.CatalogRepository
	fees               FeeCalculator
	holds              HoldStore
	gateway            Gateway
	producer           Producer
	paymentsTopic      string
	notificationsTopic string
	holdTTL            time.Duration
	callbackTimeout    time.Duration
	replayWindow       time.Duration
	now                func() time.Time
}

type RequestPaymentInput struct {
	Email      string  `json:"email"`
	SlotIDs    []int64 `json:"slot_ids"`
	ServiceIDs []int64 `json:"service_ids"`
	DiscountID int64   `json:"discount_id"`
	ClientIP   string  `json:"-"`
}

type PaymentIntent struct {
	OrderRef      string
	PaymentURL    string
	BookingID     int64
	TotalAmount   int64
	DepositAmount int64
	ExpiresAt     time.Time
}

type PaymentServiceOption func(*PaymentService)

func WithNotificationsTopic(topic string) PaymentServiceOption {
	return func(s *PaymentService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) PaymentServiceOption {
	return func(s *PaymentService) {
		s.now = now
	}
}

func NewPaymentService(
	bookings repository.BookingRepository,
	orders repository.OrderRepository,
	catalog repository.CatalogRepository,
	calculator FeeCalculator,
	holds HoldStore,
	gateway Gateway,
	producer Producer,
	paymentsTopic string,
	holdTTL, callbackTimeout, replayWindow time.Duration,
	opts ...PaymentServiceOption,
) *PaymentService {
	service := &PaymentService{
		bookings:        bookings,
		orders:          orders,
		catalog:         catalog,
		fees:            calculator,
		holds:           holds,
		gateway:         gateway,
		producer:        producer,
		paymentsTopic:   paymentsTopic,
		holdTTL:         holdTTL,
		callbackTimeout: callbackTimeout,
		replayWindow:    replayWindow,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// RequestPayment computes the fee, creates a tentative booking with a
// fresh hold and returns the signed payment URL. Any failure after the
// booking insert rolls the booking back before returning.
func (s *PaymentService) RequestPayment(ctx context.Context, input RequestPaymentInput) (*PaymentIntent, error) {
	if input.Email == "" {
		return nil, errors.New("email is required")
	}

	total, err := s.fees.Calculate(ctx, input.SlotIDs, input.ServiceIDs, input.DiscountID)
	if err != nil {
		return nil, err
	}
	deposit := fees.Deposit(total)

	now := s.now()
	orderRef := newOrderRef(now)
	expiresAt := now.Add(s.holdTTL)

	booking := &domain.Booking{
		OrderRef:      orderRef,
		Email:         input.Email,
		TotalAmount:   total,
		DepositAmount: deposit,
		DiscountID:    input.DiscountID,
		ExpiresAt:     expiresAt,
	}
	if err := s.bookings.CreatePending(ctx, booking, input.SlotIDs); err != nil {
		return nil, err
	}

	hold := domain.PendingHold{
		OrderRef:      orderRef,
		BookingID:     booking.ID,
		AmountTotal:   total,
		DepositAmount: deposit,
		SlotIDs:       input.SlotIDs,
		ServiceIDs:    input.ServiceIDs,
		DiscountID:    input.DiscountID,
		Status:        domain.HoldStatusInitiated,
		CreatedAt:     now,
		ExpiresAt:     expiresAt,
	}
	if err := s.holds.Create(ctx, hold, s.holdTTL); err != nil {
		s.rollbackPending(ctx, booking.ID, "")
		return nil, err
	}

	paymentURL, err := s.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		OrderRef:  orderRef,
		Amount:    deposit,
		OrderInfo: fmt.Sprintf("Deposit for booking %s", orderRef),
		IPAddr:    input.ClientIP,
	})
	if err != nil {
		s.rollbackPending(ctx, booking.ID, orderRef)
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayBuild, err)
	}

	hold.Status = domain.HoldStatusAwaitingCallback
	if err := s.holds.Update(ctx, hold); err != nil {
		s.rollbackPending(ctx, booking.ID, orderRef)
		return nil, err
	}

	return &PaymentIntent{
		OrderRef:      orderRef,
		PaymentURL:    paymentURL,
		BookingID:     booking.ID,
		TotalAmount:   total,
		DepositAmount: deposit,
		ExpiresAt:     expiresAt,
	}, nil
}

// HandleCallback resolves the hold for a verified gateway callback.
// Nothing is mutated before the signature verifies. The hold is consumed
// atomically, so a replayed or racing callback finds no hold and is a
// no-op.
func (s *PaymentService) HandleCallback(ctx context.Context, query url.Values) CallbackResult {
	data := vnpay.ParseCallback(query)

	if !s.gateway.VerifySignature(data) {
		log.Printf("AUDIT: callback signature mismatch: ref=%s code=%s status=%s amount=%s bank=%s txn=%s",
			data.TxnRef, data.ResponseCode, data.TransactionStatus, data.Amount, data.BankCode, data.TransactionNo)
		return CallbackResult{Code: RspInvalidSignature, Message: "invalid signature", OrderRef: data.TxnRef}
	}

	ctx, cancel := context.WithTimeout(ctx, s.callbackTimeout)
	defer cancel()

	hold, err := s.holds.Take(ctx, data.TxnRef)
	if err != nil {
		if errors.Is(err, domain.ErrHoldNotFound) {
			resolved, checkErr := s.holds.WasResolved(ctx, data.TxnRef)
			if checkErr != nil {
				log.Printf("WARNING: replay window check failed for %s: %v", data.TxnRef, checkErr)
			}
			if resolved {
				log.Printf("callback retry for already resolved order ref %s", data.TxnRef)
				return CallbackResult{Code: RspAlreadyHandled, Message: "order already handled", OrderRef: data.TxnRef}
			}
			log.Printf("AUDIT: callback for unknown order ref %s", data.TxnRef)
			return CallbackResult{Code: RspOrderNotFound, Message: "order not found", OrderRef: data.TxnRef}
		}
		log.Printf("hold store error for %s: %v", data.TxnRef, err)
		return CallbackResult{Code: RspUnknownError, Message: "internal error", OrderRef: data.TxnRef}
	}

	if data.Succeeded() {
		return s.confirm(ctx, hold)
	}
	return s.cancel(ctx, hold, data)
}

func (s *PaymentService) confirm(ctx context.Context, hold *domain.PendingHold) CallbackResult {
	booking, err := s.bookings.Confirm(ctx, hold.BookingID)
	if err == nil {
		err = s.materializeOrder(ctx, booking.ID)
	}
	if err != nil {
		// The gateway recorded a successful payment but the booking could
		// not be committed; requires out-of-band reconciliation.
		log.Printf("CRITICAL: payment %s succeeded at gateway but booking %d was not committed: %v",
			hold.OrderRef, hold.BookingID, err)
		s.compensateCancel(ctx, hold.BookingID)
		s.markResolved(ctx, hold.OrderRef)
		return CallbackResult{Code: RspAlreadyHandled, Message: "confirmation failed", BookingID: hold.BookingID, OrderRef: hold.OrderRef}
	}

	s.notify(ctx, "booking_success", booking)
	s.markResolved(ctx, hold.OrderRef)
	return CallbackResult{Code: RspAcknowledged, Message: "confirm success", Confirmed: true, BookingID: booking.ID, OrderRef: hold.OrderRef}
}

func (s *PaymentService) cancel(ctx context.Context, hold *domain.PendingHold, data vnpay.CallbackData) CallbackResult {
	s.compensateCancel(ctx, hold.BookingID)
	s.markResolved(ctx, hold.OrderRef)

	message := "payment failed"
	if data.Cancelled() {
		message = "payment cancelled by customer"
	}
	return CallbackResult{Code: RspAcknowledged, Message: message, BookingID: hold.BookingID, OrderRef: hold.OrderRef}
}

func (s *PaymentService) materializeOrder(ctx context.Context, bookingID int64) error {
	detail, err := s.bookings.GetDetail(ctx, bookingID)
	if err != nil {
		return err
	}
	if len(detail.FieldIDs) == 0 {
		return errors.New("booking has no fields")
	}

	field, err := s.catalog.GetFieldByID(ctx, detail.FieldIDs[0])
	if err != nil {
		return err
	}

	order, err := s.orders.CreateFromBooking(ctx, &detail.Booking, field.FacilityID)
	if err != nil {
		return err
	}
	for _, fieldID := range detail.FieldIDs {
		if err := s.orders.CreateOrderField(ctx, order.ID, fieldID); err != nil {
			return err
		}
	}
	return nil
}

// ExpireStaleBookings cancels pending bookings whose hold window has
// passed without a callback. Run periodically by the worker.
func (s *PaymentService) ExpireStaleBookings(ctx context.Context) ([]domain.Booking, error) {
	expired, err := s.bookings.ExpirePendingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for i := range expired {
		b := &expired[i]
		if err := s.holds.Remove(ctx, b.OrderRef); err != nil {
			log.Printf("WARNING: failed to remove hold %s for expired booking %d: %v", b.OrderRef, b.ID, err)
		}
		if err := s.bookings.ReleaseSlots(ctx, b.ID); err != nil {
			log.Printf("WARNING: failed to release slots for expired booking %d: %v", b.ID, err)
		}
		s.notify(ctx, "booking_expired", b)
	}
	return expired, nil
}

func (s *PaymentService) rollbackPending(ctx context.Context, bookingID int64, orderRef string) {
	if orderRef != "" {
		if err := s.holds.Remove(ctx, orderRef); err != nil {
			log.Printf("WARNING: failed to remove hold %s during rollback: %v", orderRef, err)
		}
	}
	s.compensateCancel(ctx, bookingID)
}

// compensateCancel must run even when the caller's deadline already
// expired, so it detaches from the callback timeout.
func (s *PaymentService) compensateCancel(ctx context.Context, bookingID int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callbackTimeout)
	defer cancel()

	booking, err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingStatusCancelled)
	if err != nil {
		log.Printf("WARNING: failed to cancel booking %d: %v", bookingID, err)
		return
	}
	if err := s.bookings.ReleaseSlots(ctx, bookingID); err != nil {
		log.Printf("WARNING: failed to release slots for booking %d: %v", bookingID, err)
	}
	s.notify(ctx, "booking_cancelled", booking)
}

func (s *PaymentService) markResolved(ctx context.Context, orderRef string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callbackTimeout)
	defer cancel()

	if err := s.holds.MarkResolved(ctx, orderRef, s.replayWindow); err != nil {
		log.Printf("WARNING: failed to mark order ref %s resolved: %v", orderRef, err)
	}
}

func (s *PaymentService) notify(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.paymentsTopic == "" {
		return
	}
	event := kafka.PaymentEvent{
		Type:          eventType,
		OrderRef:      booking.OrderRef,
		BookingID:     booking.ID,
		Email:         booking.Email,
		Status:        string(booking.Status),
		TotalAmount:   booking.TotalAmount,
		DepositAmount: booking.DepositAmount,
		ExpiresAt:     booking.ExpiresAt,
	}
	if err := s.producer.Publish(ctx, s.paymentsTopic, booking.OrderRef, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %d: %v", eventType, booking.ID, err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.OrderRef, event); err != nil {
			log.Printf("WARNING: failed to publish %s notification for booking %d: %v", eventType, booking.ID, err)
		}
	}
}

// newOrderRef builds a globally unique payment reference: creation
// timestamp plus a random suffix.
func newOrderRef(now time.Time) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return now.Format("20060102150405") + "-" + suffix
}

var _ PaymentUseCase = (*PaymentService)(nil)
