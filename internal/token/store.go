package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/registration-service/internal/domain"
)

const keyPrefix = "lnk"

var (
	// ErrConflict means a generated value already exists in the store.
	ErrConflict = errors.New("token value already exists")
	// ErrNotFound means no record exists for the value.
	ErrNotFound = errors.New("token not found")
	// ErrExpired means the record exists but is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrAlreadyConsumed means the record was consumed by an earlier call.
	ErrAlreadyConsumed = errors.New("token already consumed")
	// ErrMalformed means the presented value fails structural validation.
	ErrMalformed = errors.New("malformed token value")
	// ErrUnavailable wraps transport or encoding failures from the store.
	ErrUnavailable = errors.New("token store unavailable")
)

// Store is the durable, expiring home of link tokens. TryConsume is the
// single mutation point: of N concurrent calls for the same value exactly
// one wins, the rest observe ErrAlreadyConsumed.
type Store interface {
	Put(ctx context.Context, tok *domain.Token, ttl time.Duration) error
	TryConsume(ctx context.Context, value string) (*domain.Token, error)
	RecordResult(ctx context.Context, value, result string) error
	Peek(ctx context.Context, value string) (*domain.Token, error)
}

type redisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// StoreOption customizes store construction.
type StoreOption func(*redisStore)

// WithStoreClock injects a custom clock (useful for tests).
func WithStoreClock(clock func() time.Time) StoreOption {
	return func(s *redisStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewStore builds a Redis-backed Store.
func NewStore(client *redis.Client, opts ...StoreOption) Store {
	s := &redisStore{
		client: client,
		prefix: keyPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *redisStore) key(value string) string {
	return s.prefix + ":" + value
}

// Put stores a fresh token with an absolute expiry. A colliding value is a
// hard ErrConflict; the codec's entropy makes that a generator bug, not a
// condition to paper over.
func (s *redisStore) Put(ctx context.Context, tok *domain.Token, ttl time.Duration) error {
	encoded, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ok, err := s.client.SetNX(ctx, s.key(tok.Value), encoded, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// TryConsume atomically marks the record consumed via an optimistic
// WATCH/MULTI check-and-set. Expiry is re-checked against the wall clock
// here even when Redis has not evicted the key yet. The consumed record is
// rewritten with its remaining TTL intact so replays can be reported until
// natural expiry. On ErrAlreadyConsumed the prior record is returned
// alongside the error.
func (s *redisStore) TryConsume(ctx context.Context, value string) (*domain.Token, error) {
	const maxRetries = 4
	key := s.key(value)

	for i := 0; i < maxRetries; i++ {
		var consumed *domain.Token
		var replayed *domain.Token

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			tok := &domain.Token{}
			if err := json.Unmarshal(data, tok); err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}

			if tok.Consumed() {
				replayed = tok
				return ErrAlreadyConsumed
			}

			now := s.now()
			if tok.Expired(now) {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrExpired
			}

			consumedAt := now
			tok.ConsumedAt = &consumedAt
			updated, err := json.Marshal(tok)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, redis.KeepTTL)
				return nil
			})
			if err != nil {
				return err
			}

			consumed = tok
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return nil, ErrNotFound
			case errors.Is(err, ErrAlreadyConsumed):
				return replayed, ErrAlreadyConsumed
			case errors.Is(err, ErrExpired):
				return nil, ErrExpired
			case errors.Is(err, ErrUnavailable):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}

		return consumed, nil
	}

	// Contention exhausted every retry; with per-value traffic of a couple
	// of clicks this means another caller won.
	return nil, ErrAlreadyConsumed
}

// RecordResult attaches the applied outcome to an already consumed record,
// preserving its remaining TTL. Best effort; called only by the consume
// winner after the downstream mutation succeeds.
func (s *redisStore) RecordResult(ctx context.Context, value, result string) error {
	key := s.key(value)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	tok := &domain.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	tok.ConsumedResult = result
	updated, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := s.client.Set(ctx, key, updated, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Peek returns the record without consuming it. Never use it for
// authorization decisions.
func (s *redisStore) Peek(ctx context.Context, value string) (*domain.Token, error) {
	data, err := s.client.Get(ctx, s.key(value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	tok := &domain.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tok, nil
}
