package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

const claimTTL = 24 * time.Hour

// CheckoutStore keeps pending checkouts and the one-shot payment reference guard.
// Key format:
//
//	checkout:<reference>  JSON pending checkout, expires with the checkout
//	claim:<reference>     set once the reference is being confirmed
type CheckoutStore struct {
	client *redis.Client
}

// NewCheckoutStore creates a CheckoutStore wrapping the given Redis client.
func NewCheckoutStore(client *redis.Client) *CheckoutStore {
	return &CheckoutStore{client: client}
}

func (s *CheckoutStore) Save(ctx context.Context, c *ports.PendingCheckout, ttl time.Duration) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode checkout: %w", err)
	}
	return s.client.Set(ctx, checkoutKey(c.Payment.Reference), payload, ttl).Err()
}

func (s *CheckoutStore) Find(ctx context.Context, reference string) (*ports.PendingCheckout, error) {
	raw, err := s.client.Get(ctx, checkoutKey(reference)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCheckoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout: %w", err)
	}
	var c ports.PendingCheckout
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode checkout: %w", err)
	}
	return &c, nil
}

// Claim reports whether this call is the first to claim reference.
func (s *CheckoutStore) Claim(ctx context.Context, reference string) (bool, error) {
	ok, err := s.client.SetNX(ctx, claimKey(reference), "1", claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim reference: %w", err)
	}
	return ok, nil
}

// Release drops the claim so the reference can be confirmed again.
func (s *CheckoutStore) Release(ctx context.Context, reference string) error {
	return s.client.Del(ctx, claimKey(reference)).Err()
}

func (s *CheckoutStore) Delete(ctx context.Context, reference string) error {
	return s.client.Del(ctx, checkoutKey(reference)).Err()
}

func checkoutKey(reference string) string {
	return "checkout:" + reference
}

func claimKey(reference string) string {
	return "claim:" + reference
}
