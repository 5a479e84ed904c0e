package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartStore holds the unsaved order for each session.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (Order, error)
	Store(ctx context.Context, sessionID string, order Order) error
	Clear(ctx context.Context, sessionID string) error
}

// RedisCartStore keeps carts as JSON under cart:<session>.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartStore constructs a Redis-backed cart store. Idle carts expire
// after ttl.
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisCartStore{client: client, ttl: ttl}
}

// Load returns the session's cart or an empty order when none exists.
func (s *RedisCartStore) Load(ctx context.Context, sessionID string) (Order, error) {
	if sessionID == "" {
		return Order{}, errors.New("orders: session id required")
	}
	data, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Order{}, nil
	}
	if err != nil {
		return Order{}, fmt.Errorf("orders: load cart: %w", err)
	}
	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return Order{}, fmt.Errorf("orders: decode cart: %w", err)
	}
	return order, nil
}

// Store replaces the session's cart and refreshes its expiry.
func (s *RedisCartStore) Store(ctx context.Context, sessionID string, order Order) error {
	if sessionID == "" {
		return errors.New("orders: session id required")
	}
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("orders: encode cart: %w", err)
	}
	return s.client.Set(ctx, cartKey(sessionID), data, s.ttl).Err()
}

// Clear removes the session's cart.
func (s *RedisCartStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("orders: clear cart: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}
