package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jolly-agents/server/internal/agent/model"
	errx "github.com/jolly-agents/server/internal/core/error"
	logx "github.com/jolly-agents/server/pkg/logger"
)

// maxUpdateRetries bounds optimistic-lock retries when a session is written concurrently.
const maxUpdateRetries = 5

// RedisSessionRepository stores each session as one JSON value. Every write
// refreshes the TTL, so sessions live ttl past their last activity.
type RedisSessionRepository struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisSessionRepository(rdb redis.UniversalClient, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("nutrition:session:%s", sessionID)
}

func (r *RedisSessionRepository) Save(ctx context.Context, session model.ChatSession) error {
	b, err := json.Marshal(session)
	if err != nil {
		logx.Error().Err(err).Str("session_id", session.ID).Msg("failed to marshal session")
		return fmt.Errorf("marshal session: %w", err)
	}
	key := r.sessionKey(session.ID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) Load(ctx context.Context, sessionID string) (model.ChatSession, error) {
	return r.load(ctx, r.rdb, sessionID)
}

// getter is the subset of commands shared by the client and a WATCH transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisSessionRepository) load(ctx context.Context, c getter, sessionID string) (model.ChatSession, error) {
	key := r.sessionKey(sessionID)
	b, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ChatSession{}, errx.NotFound(fmt.Errorf("%w: %s", errx.ErrSessionNotFound, sessionID))
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session from redis")
		return model.ChatSession{}, errx.WrapRedis(err)
	}

	var s model.ChatSession
	if err := json.Unmarshal(b, &s); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to unmarshal session")
		return model.ChatSession{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return s, nil
}

// Update reads, applies fn and writes back inside WATCH/MULTI, retrying when
// another writer touched the key in between.
func (r *RedisSessionRepository) Update(ctx context.Context, sessionID string, fn func(model.ChatSession) (model.ChatSession, error)) (model.ChatSession, error) {
	key := r.sessionKey(sessionID)
	var next model.ChatSession
	var fnErr error

	txf := func(tx *redis.Tx) error {
		cur, err := r.load(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		next, fnErr = fn(cur)
		if fnErr != nil {
			return fnErr
		}
		next.ID = sessionID
		b, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return next, nil
		}
		if fnErr != nil {
			return model.ChatSession{}, fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			logx.Debug().Str("key", key).Int("attempt", i+1).Msg("session changed during update, retrying")
			continue
		}
		var appErr *errx.AppError
		if errors.As(err, &appErr) {
			return model.ChatSession{}, err
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to update session in redis")
		return model.ChatSession{}, errx.WrapRedis(err)
	}
	return model.ChatSession{}, errx.WrapRedis(fmt.Errorf("update %s: %w", key, redis.TxFailedErr))
}

func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
