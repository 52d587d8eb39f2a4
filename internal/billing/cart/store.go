package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists carts in Redis keyed by shop and session, so an in-progress
// sale survives page reloads and till restarts.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store. A non-positive TTL falls back to 24h.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// Load returns the cart for the session, or a fresh one when none exists.
func (s *Store) Load(ctx context.Context, shopID int64, sessionID string) (*Cart, error) {
	data, err := s.client.Get(ctx, s.key(shopID, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}
		return nil, fmt.Errorf("cart: load: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cart: decode: %w", err)
	}
	return &c, nil
}

// Save persists the cart, refreshing its TTL.
func (s *Store) Save(ctx context.Context, shopID int64, sessionID string, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key(shopID, sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cart: save: %w", err)
	}
	return nil
}

// Delete removes the session's cart.
func (s *Store) Delete(ctx context.Context, shopID int64, sessionID string) error {
	if err := s.client.Del(ctx, s.key(shopID, sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cart: delete: %w", err)
	}
	return nil
}

func (s *Store) key(shopID int64, sessionID string) string {
	return fmt.Sprintf("cart:%d:%s", shopID, sessionID)
}
