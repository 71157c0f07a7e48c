package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vuminhq/courtpay/config"
)

func testClient() *Client {
	client := NewClient(config.VNPayConfig{
		TmnCode:    "TESTCODE",
		HashSecret: "testsecret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/api/payments/vnpay-return",
	})
	client.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return client
}

func TestBuildPaymentURL(t *testing.T) {
	client := testClient()

	rawURL, err := client.BuildPaymentURL(PaymentRequest{
		OrderRef:  "20250601120000-ab12cd34",
		Amount:    202500,
		OrderInfo: "Deposit for booking 20250601120000-ab12cd34",
		IPAddr:    "127.0.0.1",
	})
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(rawURL, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?"))

	parsed, err := url.Parse(rawURL)
	assert.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "20250601120000-ab12cd34", query.Get("vnp_TxnRef"))
	assert.Equal(t, "20250000", query.Get("vnp_Amount"))
	assert.Equal(t, "TESTCODE", query.Get("vnp_TmnCode"))
	assert.NotEmpty(t, query.Get("vnp_SecureHash"))

	// The issued URL must verify against our own recomputation.
	data := ParseCallback(query)
	assert.True(t, client.VerifySignature(data))
}

func TestBuildPaymentURL_Validation(t *testing.T) {
	client := testClient()

	_, err := client.BuildPaymentURL(PaymentRequest{Amount: 1000})
	assert.Error(t, err)

	_, err = client.BuildPaymentURL(PaymentRequest{OrderRef: "ref", Amount: 0})
	assert.Error(t, err)
}

func TestBuildPaymentURL_DistinctRefsDistinctSignatures(t *testing.T) {
	client := testClient()

	first, err := client.BuildPaymentURL(PaymentRequest{OrderRef: "ref-1", Amount: 1000, IPAddr: "10.0.0.1"})
	assert.NoError(t, err)
	second, err := client.BuildPaymentURL(PaymentRequest{OrderRef: "ref-2", Amount: 1000, IPAddr: "10.0.0.1"})
	assert.NoError(t, err)

	firstQuery, _ := url.Parse(first)
	secondQuery, _ := url.Parse(second)
	assert.NotEqual(t, firstQuery.Query().Get("vnp_SecureHash"), secondQuery.Query().Get("vnp_SecureHash"))
}

func signedCallback(client *Client) url.Values {
	params := url.Values{}
	params.Set("vnp_TxnRef", "20250601120000-ab12cd34")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_TransactionStatus", "00")
	params.Set("vnp_Amount", "20250000")
	params.Set("vnp_BankCode", "NCB")
	params.Set("vnp_TransactionNo", "14422574")
	params.Set("vnp_PayDate", "20250601120500")
	params.Set("vnp_SecureHash", client.sign(canonicalize(params)))
	return params
}

func TestVerifySignature(t *testing.T) {
	client := testClient()

	query := signedCallback(client)
	data := ParseCallback(query)
	assert.True(t, client.VerifySignature(data))
	assert.True(t, data.Succeeded())
}

func TestVerifySignature_TamperedAmount(t *testing.T) {
	client := testClient()

	query := signedCallback(client)
	// Tamper after signing: the stale signature must not verify.
	query.Set("vnp_Amount", "1")
	data := ParseCallback(query)
	assert.False(t, client.VerifySignature(data))
}

func TestVerifySignature_MissingHash(t *testing.T) {
	client := testClient()

	query := signedCallback(client)
	query.Del("vnp_SecureHash")
	data := ParseCallback(query)
	assert.False(t, client.VerifySignature(data))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	client := testClient()
	other := NewClient(config.VNPayConfig{TmnCode: "TESTCODE", HashSecret: "othersecret"})

	query := signedCallback(other)
	data := ParseCallback(query)
	assert.False(t, client.VerifySignature(data))
}

func TestParseCallback_IgnoresForeignParams(t *testing.T) {
	client := testClient()

	query := signedCallback(client)
	// Parameter pollution: non-namespaced params must not affect parsing
	// or verification.
	query.Set("admin", "true")
	query.Set("redirect", "https://evil.example")

	data := ParseCallback(query)
	assert.True(t, client.VerifySignature(data))
	assert.Equal(t, "20250601120000-ab12cd34", data.TxnRef)
	assert.Equal(t, "NCB", data.BankCode)
	assert.Equal(t, "14422574", data.TransactionNo)
}

func TestCallbackOutcomes(t *testing.T) {
	success := CallbackData{ResponseCode: "00", TransactionStatus: "00"}
	assert.True(t, success.Succeeded())

	pendingStatus := CallbackData{ResponseCode: "00", TransactionStatus: "01"}
	assert.False(t, pendingStatus.Succeeded())

	cancelled := CallbackData{ResponseCode: "24", TransactionStatus: "02"}
	assert.False(t, cancelled.Succeeded())
	assert.True(t, cancelled.Cancelled())
}
