package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions as JSON documents that expire after ttl of
// inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, actorID int64) (*model.Session, error) {
	val, err := s.client.Get(ctx, sessionKey(actorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NewSession(actorID), nil
		}
		return nil, fmt.Errorf("get session %d: %w", actorID, err)
	}

	var sess model.Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", actorID, err)
	}
	sess.ActorID = actorID
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *model.Session) error {
	c := sess.Clone()
	c.UpdatedAt = time.Now()
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(sess.ActorID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", sess.ActorID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, actorID int64) error {
	return s.client.Del(ctx, sessionKey(actorID)).Err()
}

func sessionKey(actorID int64) string {
	return fmt.Sprintf("intake:session:%d", actorID)
}
