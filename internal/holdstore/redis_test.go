package holdstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vuminhq/courtpay/config"
	"github.com/vuminhq/courtpay/internal/domain"
)

func TestNewRedisHoldStore(t *testing.T) {
	store := NewRedisHoldStore(config.RedisConfig{Addr: "localhost:6379"})
	assert.NotNil(t, store)
}

func TestHoldKeys(t *testing.T) {
	assert.Equal(t, "hold:20250101120000-abc", holdKey("20250101120000-abc"))
	assert.Equal(t, "payment:resolved:20250101120000-abc", resolvedKey("20250101120000-abc"))
}

func TestDecodeHold(t *testing.T) {
	hold := domain.PendingHold{
		OrderRef:      "ref-1",
		BookingID:     7,
		AmountTotal:   405000,
		DepositAmount: 202500,
		SlotIDs:       []int64{1, 2},
		Status:        domain.HoldStatusAwaitingCallback,
		ExpiresAt:     time.Now().Add(15 * time.Minute).UTC(),
	}

	data := []byte(`{"order_ref":"ref-1","booking_id":7,"amount_total":405000,"deposit_amount":202500,"slot_ids":[1,2],"status":"AWAITING_CALLBACK"}`)
	decoded, err := decodeHold(data)
	assert.NoError(t, err)
	assert.Equal(t, hold.OrderRef, decoded.OrderRef)
	assert.Equal(t, hold.BookingID, decoded.BookingID)
	assert.Equal(t, hold.AmountTotal, decoded.AmountTotal)
	assert.Equal(t, hold.Status, decoded.Status)

	_, err = decodeHold([]byte("not json"))
	assert.Error(t, err)
}
