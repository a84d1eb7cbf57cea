// Package cache implementa el espejo Redis del bookkeeping de throttle.
// La DB sigue siendo la fuente de verdad; el espejo es best-effort para
// lecturas rápidas desde otros procesos.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	app "github.com/tu-usuario/etims-bridge/internal/application/etims"
	pkgetims "github.com/tu-usuario/etims-bridge/pkg/etims"
)

const lastRequestKeyPrefix = "etims:route:last_request:"

var _ app.ThrottleMirror = (*RedisThrottleMirror)(nil)

// RedisThrottleMirror guarda el last-request por ruta en Redis,
// last-write-wins, con TTL para que las claves no queden huérfanas.
type RedisThrottleMirror struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisThrottleMirror construye el espejo sobre un cliente existente.
func NewRedisThrottleMirror(client *redis.Client) *RedisThrottleMirror {
	return &RedisThrottleMirror{client: client, ttl: 7 * 24 * time.Hour}
}

// NewRedisClient crea el cliente Redis y verifica conectividad.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RecordRequest espeja el timestamp del último request a urlPath.
func (m *RedisThrottleMirror) RecordRequest(ctx context.Context, urlPath string, at time.Time) error {
	key := lastRequestKeyPrefix + urlPath
	if err := m.client.Set(ctx, key, pkgetims.FormatTimestamp(at), m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// LastRequest lee el espejo; devuelve zero time si no hay registro.
func (m *RedisThrottleMirror) LastRequest(ctx context.Context, urlPath string) (time.Time, error) {
	val, err := m.client.Get(ctx, lastRequestKeyPrefix+urlPath).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("redis get: %w", err)
	}
	return pkgetims.ParseTimestamp(val)
}
