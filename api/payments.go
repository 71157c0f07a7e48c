package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vuminhq/courtpay/internal/service/payment"
)

type PaymentHandler struct {
	service payment.PaymentUseCase
}

type createPaymentRequest struct {
	Email      string  `json:"email"`
	SlotIDs    []int64 `json:"slot_ids"`
	ServiceIDs []int64 `json:"service_ids"`
	DiscountID int64   `json:"discount_id"`
}

type paymentIntentResponse struct {
	OrderRef      string `json:"order_ref"`
	PaymentURL    string `json:"payment_url"`
	BookingID     int64  `json:"booking_id"`
	TotalAmount   int64  `json:"total_amount"`
	DepositAmount int64  `json:"deposit_amount"`
	ExpiresAt     string `json:"expires_at"`
}

// callbackResponse follows the gateway IPN acknowledgement format.
type callbackResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

func NewPaymentHandler(service payment.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/vnpay-callback", h.callback)
}

func (h *PaymentHandler) create(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.service.RequestPayment(c.Request.Context(), payment.RequestPaymentInput{
		Email:      req.Email,
		SlotIDs:    req.SlotIDs,
		ServiceIDs: req.ServiceIDs,
		DiscountID: req.DiscountID,
		ClientIP:   c.ClientIP(),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, paymentIntentResponse{
		OrderRef:      intent.OrderRef,
		PaymentURL:    intent.PaymentURL,
		BookingID:     intent.BookingID,
		TotalAmount:   intent.TotalAmount,
		DepositAmount: intent.DepositAmount,
		ExpiresAt:     intent.ExpiresAt.Format(time.RFC3339),
	})
}

// callback always answers 200: the RspCode in the body tells the gateway
// whether the notification was recorded, and a non-200 would only make it
// retry.
func (h *PaymentHandler) callback(c *gin.Context) {
	result := h.service.HandleCallback(c.Request.Context(), c.Request.URL.Query())

	c.JSON(http.StatusOK, callbackResponse{
		RspCode: string(result.Code),
		Message: result.Message,
	})
}
