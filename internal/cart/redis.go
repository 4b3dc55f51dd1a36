package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aminasaas/storefront-backend/internal/entity"
)

// RedisStorage keeps the cart snapshot in a single redis key as JSON.
type RedisStorage struct {
	rdb *redis.Client
	key string
}

// NewRedisStorage creates a Storage under the given key prefix, typically the
// tenant's shop source tag.
func NewRedisStorage(rdb *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{rdb: rdb, key: prefix + ":cart"}
}

func (r *RedisStorage) Load(ctx context.Context) ([]entity.CartLine, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart key %s: %w", r.key, err)
	}
	var lines []entity.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode persisted cart: %w", err)
	}
	return lines, nil
}

func (r *RedisStorage) Save(ctx context.Context, lines []entity.CartLine) error {
	if len(lines) == 0 {
		if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
			return fmt.Errorf("failed to delete cart key %s: %w", r.key, err)
		}
		return nil
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cart key %s: %w", r.key, err)
	}
	return nil
}
