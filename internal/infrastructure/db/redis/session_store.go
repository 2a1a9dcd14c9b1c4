package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

const (
	sessionKeyPrefix     = "session:"
	sessionExpiryKey     = "session:expiry"
	sessionEventsChannel = "session:events"
)

// SessionStore keeps identity store sessions and broadcasts their changes.
// Key format:
//
//	session:<id>     JSON session, expires with the session
//	session:expiry   sorted set of session ids scored by expiry (unix seconds)
//
// Events are published on the session:events channel.
type SessionStore struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client, log zerolog.Logger) *SessionStore {
	return &SessionStore{client: client, log: log}
}

// Save stores s until its expiry.
func (s *SessionStore) Save(ctx context.Context, sess *domain.AuthSession) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKeyPrefix+sess.ID, payload, ttl)
		pipe.ZAdd(ctx, sessionExpiryKey, redis.Z{Score: float64(sess.ExpiresAt.Unix()), Member: sess.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Find returns the session with id, or nil when it expired or never existed.
func (s *SessionStore) Find(ctx context.Context, id string) (*domain.AuthSession, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess domain.AuthSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Delete removes the session and reports whether it was still live.
func (s *SessionStore) Delete(ctx context.Context, id string) (bool, error) {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, sessionKeyPrefix+id)
		pipe.ZRem(ctx, sessionExpiryKey, id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return del.Val() > 0, nil
}

// ClaimExpired removes and returns the ids of sessions whose expiry is at or
// before now. Each id is returned to exactly one caller across instances.
func (s *SessionStore) ClaimExpired(ctx context.Context, now time.Time) ([]string, error) {
	ids, err := s.client.ZRangeByScore(ctx, sessionExpiryKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("scan expired sessions: %w", err)
	}

	claimed := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := s.client.ZRem(ctx, sessionExpiryKey, id).Result()
		if err != nil {
			return claimed, fmt.Errorf("claim expired session: %w", err)
		}
		if n == 0 {
			continue
		}
		s.client.Del(ctx, sessionKeyPrefix+id)
		claimed = append(claimed, id)
	}
	return claimed, nil
}

// Publish broadcasts ev to every instance.
func (s *SessionStore) Publish(ctx context.Context, ev domain.SessionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode session event: %w", err)
	}
	return s.client.Publish(ctx, sessionEventsChannel, payload).Err()
}

// Listen delivers published events to fn until ctx is cancelled. The
// subscription is active when Listen returns.
func (s *SessionStore) Listen(ctx context.Context, fn func(domain.SessionEvent)) error {
	sub := s.client.Subscribe(ctx, sessionEventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe session events: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev domain.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.log.Warn().Err(err).Msg("dropping malformed session event")
					continue
				}
				fn(ev)
			}
		}
	}()
	return nil
}
