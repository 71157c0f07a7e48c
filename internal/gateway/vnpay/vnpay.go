// Package vnpay builds signed VNPay payment URLs and verifies the signed
// callbacks the gateway sends back.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vuminhq/courtpay/config"
)

const (
	paramPrefix       = "vnp_"
	version           = "2.1.0"
	commandPay        = "pay"
	currencyVND       = "VND"
	localeVN          = "vn"
	orderTypeBooking  = "250000"
	secureHashParam   = "vnp_SecureHash"
	secureHashTypeOld = "vnp_SecureHashType"
)

// ResponseCode values VNPay sends in vnp_ResponseCode / vnp_TransactionStatus.
const (
	CodeSuccess           = "00"
	CodeCustomerCancelled = "24"
)

type Client struct {
	cfg config.VNPayConfig
	now func() time.Time
}

func NewClient(cfg config.VNPayConfig) *Client {
	return &Client{cfg: cfg, now: time.Now}
}

type PaymentRequest struct {
	OrderRef  string
	Amount    int64
	OrderInfo string
	IPAddr    string
	ReturnURL string
}

// BuildPaymentURL canonicalizes the outbound fields, signs them with
// HMAC-SHA512 and returns the redirect URL for the customer.
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	if req.OrderRef == "" {
		return "", fmt.Errorf("order ref is required")
	}
	if req.Amount <= 0 {
		return "", fmt.Errorf("amount must be positive")
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = c.cfg.ReturnURL
	}

	params := url.Values{}
	params.Set("vnp_Version", version)
	params.Set("vnp_Command", commandPay)
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	// VNPay expects the amount multiplied by 100.
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_CurrCode", currencyVND)
	params.Set("vnp_TxnRef", req.OrderRef)
	params.Set("vnp_OrderInfo", req.OrderInfo)
	params.Set("vnp_OrderType", orderTypeBooking)
	params.Set("vnp_Locale", localeVN)
	params.Set("vnp_ReturnUrl", returnURL)
	params.Set("vnp_IpAddr", req.IPAddr)
	params.Set("vnp_CreateDate", c.now().Format("20060102150405"))

	hashData := canonicalize(params)
	signature := c.sign(hashData)
	params.Set(secureHashParam, signature)

	return c.cfg.PayURL + "?" + params.Encode(), nil
}

// CallbackData is the parsed gateway callback. Only vnp_-prefixed query
// parameters are extracted; anything else is dropped.
type CallbackData struct {
	TxnRef            string
	ResponseCode      string
	TransactionStatus string
	Amount            string
	BankCode          string
	TransactionNo     string
	OrderInfo         string
	PayDate           string
	SecureHash        string

	params url.Values
}

func ParseCallback(query url.Values) CallbackData {
	params := url.Values{}
	for key, values := range query {
		if !strings.HasPrefix(key, paramPrefix) || len(values) == 0 {
			continue
		}
		params.Set(key, values[0])
	}

	return CallbackData{
		TxnRef:            params.Get("vnp_TxnRef"),
		ResponseCode:      params.Get("vnp_ResponseCode"),
		TransactionStatus: params.Get("vnp_TransactionStatus"),
		Amount:            params.Get("vnp_Amount"),
		BankCode:          params.Get("vnp_BankCode"),
		TransactionNo:     params.Get("vnp_TransactionNo"),
		OrderInfo:         params.Get("vnp_OrderInfo"),
		PayDate:           params.Get("vnp_PayDate"),
		SecureHash:        params.Get(secureHashParam),
		params:            params,
	}
}

// VerifySignature recomputes the HMAC over every namespaced field except
// the signature itself and compares it to the supplied one.
func (c *Client) VerifySignature(data CallbackData) bool {
	if data.SecureHash == "" {
		return false
	}

	params := url.Values{}
	for key, values := range data.params {
		if key == secureHashParam || key == secureHashTypeOld || len(values) == 0 {
			continue
		}
		params.Set(key, values[0])
	}

	expected := c.sign(canonicalize(params))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(data.SecureHash)))
}

// Succeeded requires both the response code and the transaction status to
// report success.
func (d CallbackData) Succeeded() bool {
	return d.ResponseCode == CodeSuccess && d.TransactionStatus == CodeSuccess
}

func (d CallbackData) Cancelled() bool {
	return d.ResponseCode == CodeCustomerCancelled
}

func (c *Client) sign(hashData string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(hashData))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalize sorts the keys lexicographically and joins url-encoded
// key=value pairs with '&', the form VNPay signs.
func canonicalize(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(key)))
	}
	return b.String()
}
