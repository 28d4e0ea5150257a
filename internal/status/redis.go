package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

const redisStatusKey = "siaga:volcano_status"

// RedisPersistence keeps the status as a JSON value under a single key so
// several service replicas share it.
type RedisPersistence struct {
	rc *redis.Client
}

func OpenRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

func NewRedisPersistence(rc *redis.Client) *RedisPersistence {
	return &RedisPersistence{rc: rc}
}

func (p *RedisPersistence) LoadStatus(ctx context.Context) (*models.VolcanoStatus, error) {
	raw, err := p.rc.Get(ctx, redisStatusKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading status from redis: %w", err)
	}
	return decodeStatus(raw)
}

func (p *RedisPersistence) SaveStatus(ctx context.Context, st models.VolcanoStatus) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("error encoding status: %w", err)
	}
	if err := p.rc.Set(ctx, redisStatusKey, b, 0).Err(); err != nil {
		return fmt.Errorf("error writing status to redis: %w", err)
	}
	return nil
}

func decodeStatus(raw []byte) (*models.VolcanoStatus, error) {
	var st models.VolcanoStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("error decoding stored status: %w", err)
	}
	return &st, nil
}
