package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

const (
	bookingKeyPrefix = "booking:"
	allBookingsKey   = "bookings:all"
)

// BookingCache is the deployment-local booking copy.
// Key format:
//
//	booking:<id>                 JSON booking
//	account:<account_id>:bookings  set of booking ids
//	bookings:all                 set of booking ids
type BookingCache struct {
	client *redis.Client
}

// NewBookingCache creates a BookingCache wrapping the given Redis client.
func NewBookingCache(client *redis.Client) *BookingCache {
	return &BookingCache{client: client}
}

// Put stores b and indexes it under its account.
func (c *BookingCache) Put(ctx context.Context, b *domain.Booking) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, bookingKey(b.ID), payload, 0)
		pipe.SAdd(ctx, accountBookingsKey(b.AccountID), b.ID)
		pipe.SAdd(ctx, allBookingsKey, b.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache booking: %w", err)
	}
	return nil
}

func (c *BookingCache) ListByAccount(ctx context.Context, accountID string) ([]*domain.Booking, error) {
	return c.listSet(ctx, accountBookingsKey(accountID))
}

func (c *BookingCache) ListAll(ctx context.Context) ([]*domain.Booking, error) {
	return c.listSet(ctx, allBookingsKey)
}

// UpdateStatus rewrites the cached booking under an optimistic lock.
func (c *BookingCache) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	key := bookingKey(id)
	var updated *domain.Booking

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		var b domain.Booking
		if err := json.Unmarshal(raw, &b); err != nil {
			return fmt.Errorf("decode booking %s: %w", id, err)
		}
		b.Status = status
		b.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(&b)
		if err != nil {
			return fmt.Errorf("encode booking: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, redis.KeepTTL)
			return nil
		})
		updated = &b
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ClearAccount removes every cached booking of accountID.
func (c *BookingCache) ClearAccount(ctx context.Context, accountID string) error {
	setKey := accountBookingsKey(accountID)
	ids, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("list account bookings: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, bookingKey(id))
			pipe.SRem(ctx, allBookingsKey, id)
		}
		pipe.Del(ctx, setKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear account bookings: %w", err)
	}
	return nil
}

func (c *BookingCache) listSet(ctx context.Context, setKey string) ([]*domain.Booking, error) {
	ids, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list booking ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = bookingKey(id)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	bookings := make([]*domain.Booking, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry outlived its booking
			continue
		}
		var b domain.Booking
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("decode booking %s: %w", ids[i], err)
		}
		bookings = append(bookings, &b)
	}
	return bookings, nil
}

func bookingKey(id string) string {
	return bookingKeyPrefix + id
}

func accountBookingsKey(accountID string) string {
	return fmt.Sprintf("account:%s:bookings", accountID)
}
