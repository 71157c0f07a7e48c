package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vuminhq/courtpay/internal/domain"
	"github.com/vuminhq/courtpay/internal/service/payment"
)

type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) RequestPayment(ctx context.Context, input payment.RequestPaymentInput) (*payment.PaymentIntent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentIntent), args.Error(1)
}

func (m *MockPaymentUseCase) HandleCallback(ctx context.Context, query url.Values) payment.CallbackResult {
	args := m.Called(ctx, query)
	return args.Get(0).(payment.CallbackResult)
}

func (m *MockPaymentUseCase) ExpireStaleBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func TestNewRouter_PaymentRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := &MockPaymentUseCase{}
	mockService.On("HandleCallback", mock.Anything, mock.Anything).Return(payment.CallbackResult{
		Code:    payment.RspAcknowledged,
		Message: "confirm success",
	})

	router := NewRouter(mockService)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/payments/vnpay-callback?vnp_TxnRef=ref-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	mockService.AssertExpectations(t)
}

func TestNewRouter_Healthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := NewRouter(&MockPaymentUseCase{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
