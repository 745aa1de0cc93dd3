package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qrmenu-sync/internal/domain"
)

// RedisArchive stores the active-orders snapshot as a JSON blob keyed
// by table id, so a customer viewer restart keeps showing the orders
// already placed from that table.
type RedisArchive struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewRedisArchive(client *redis.Client, tableID int64) *RedisArchive {
	return &RedisArchive{
		client:  client,
		key:     fmt.Sprintf("orders:%d", tableID),
		timeout: 2 * time.Second,
	}
}

func (a *RedisArchive) Save(orders []domain.Order) error {
	body, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.client.Set(ctx, a.key, body, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", a.key, err)
	}
	return nil
}

func (a *RedisArchive) Load() ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	body, err := a.client.Get(ctx, a.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // nothing archived yet
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", a.key, err)
	}
	var orders []domain.Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.key, err)
	}
	return orders, nil
}
