package holdstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vuminhq/courtpay/config"
	"github.com/vuminhq/courtpay/internal/domain"
)

// RedisHoldStore keeps in-flight payment holds in Redis. Every operation
// on a given order ref is a single Redis command, so concurrent
// intent-issuance and callback handling cannot tear a hold.
type RedisHoldStore struct {
	client *redis.Client
}

func NewRedisHoldStore(cfg config.RedisConfig) *RedisHoldStore {
	return &RedisHoldStore{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

func (s *RedisHoldStore) Create(ctx context.Context, hold domain.PendingHold, ttl time.Duration) error {
	payload, err := json.Marshal(hold)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, holdKey(hold.OrderRef), payload, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrDuplicateOrderRef
	}
	return nil
}

// Update rewrites an existing hold keeping its remaining TTL. A hold
// whose TTL already elapsed is gone and must not be resurrected without
// an expiry, so the write is XX-only.
func (s *RedisHoldStore) Update(ctx context.Context, hold domain.PendingHold) error {
	payload, err := json.Marshal(hold)
	if err != nil {
		return err
	}
	err = s.client.SetArgs(ctx, holdKey(hold.OrderRef), payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return domain.ErrHoldNotFound
	}
	return err
}

func (s *RedisHoldStore) Get(ctx context.Context, orderRef string) (*domain.PendingHold, error) {
	data, err := s.client.Get(ctx, holdKey(orderRef)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrHoldNotFound
		}
		return nil, err
	}
	return decodeHold(data)
}

// Take consumes the hold atomically. When two callbacks race for the same
// order ref, exactly one gets the hold; the other gets ErrHoldNotFound.
func (s *RedisHoldStore) Take(ctx context.Context, orderRef string) (*domain.PendingHold, error) {
	data, err := s.client.GetDel(ctx, holdKey(orderRef)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrHoldNotFound
		}
		return nil, err
	}
	return decodeHold(data)
}

// Remove deletes the hold. A missing key is not an error.
func (s *RedisHoldStore) Remove(ctx context.Context, orderRef string) error {
	return s.client.Del(ctx, holdKey(orderRef)).Err()
}

// MarkResolved records the order ref for the replay-detection window so a
// late gateway retry can be told apart from an unknown reference.
func (s *RedisHoldStore) MarkResolved(ctx context.Context, orderRef string, window time.Duration) error {
	return s.client.Set(ctx, resolvedKey(orderRef), "1", window).Err()
}

func (s *RedisHoldStore) WasResolved(ctx context.Context, orderRef string) (bool, error) {
	n, err := s.client.Exists(ctx, resolvedKey(orderRef)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func decodeHold(data []byte) (*domain.PendingHold, error) {
	var hold domain.PendingHold
	if err := json.Unmarshal(data, &hold); err != nil {
		return nil, err
	}
	return &hold, nil
}

func holdKey(orderRef string) string {
	return "hold:" + orderRef
}

func resolvedKey(orderRef string) string {
	return "payment:resolved:" + orderRef
}
