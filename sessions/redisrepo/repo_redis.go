package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/sessions"
	"github.com/redis/go-redis/v9"
)

var _ sessions.Repo = (*RedisRepo)(nil)

// RedisRepo mirrors the AuthState under a single key, letting several console
// processes on different hosts share one login.
type RedisRepo struct {
	rdb redis.UniversalClient
	key string
	ttl time.Duration
}

// New returns a repo storing under key. A zero ttl keeps the state until Clear.
func New(rdb redis.UniversalClient, key string, ttl time.Duration) *RedisRepo {
	return &RedisRepo{rdb: rdb, key: key, ttl: ttl}
}

func (r *RedisRepo) Load(ctx context.Context) (*sessions.AuthState, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[RedisRepo.Load] get %s: %w", r.key, err)
	}

	var state sessions.AuthState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrSessionCorrupt, "[RedisRepo.Load] %s: %v", r.key, err)
	}
	return &state, nil
}

func (r *RedisRepo) Save(ctx context.Context, state *sessions.AuthState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("[RedisRepo.Save] marshal: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("[RedisRepo.Save] set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisRepo) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("[RedisRepo.Clear] del %s: %w", r.key, err)
	}
	return nil
}
