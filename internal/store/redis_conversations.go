package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"loan-advisor/internal/models"
)

const (
	conversationKeyPrefix = "advisor:conversation:"
	activeKeyPrefix       = "advisor:conversation:active:"
)

// RedisConversations stores each conversation as one JSON document plus a
// per-user pointer to the active one. A zero ttl keeps keys forever.
type RedisConversations struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

func NewRedisConversations(rdb redis.Cmdable, ttl time.Duration) *RedisConversations {
	return &RedisConversations{
		rdb: rdb,
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func conversationKey(id string) string { return conversationKeyPrefix + id }
func activeKey(userID string) string   { return activeKeyPrefix + userID }

func (s *RedisConversations) FindActive(ctx context.Context, userID string) (*models.Conversation, error) {
	id, err := s.rdb.Get(ctx, activeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get active pointer: %w", err)
	}
	return s.load(ctx, id)
}

func (s *RedisConversations) Create(ctx context.Context, conv *models.Conversation) error {
	if err := s.Deactivate(ctx, conv.UserID); err != nil {
		return err
	}

	stored := *conv
	stored.IsActive = true
	if stored.Messages == nil {
		stored.Messages = []models.Message{}
	}
	stored.Context = conv.Context.Clone()

	raw, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("redis: encode conversation: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, conversationKey(conv.ID), raw, s.ttl)
		pipe.Set(ctx, activeKey(conv.UserID), conv.ID, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: create conversation: %w", err)
	}
	return nil
}

func (s *RedisConversations) AppendMessage(ctx context.Context, conversationID string, msg models.Message) error {
	return s.update(ctx, conversationID, func(conv *models.Conversation) {
		conv.Messages = append(conv.Messages, msg)
	})
}

func (s *RedisConversations) SaveContext(ctx context.Context, conversationID string, c models.Context) error {
	return s.update(ctx, conversationID, func(conv *models.Conversation) {
		conv.Context = c.Clone()
	})
}

func (s *RedisConversations) Deactivate(ctx context.Context, userID string) error {
	id, err := s.rdb.Get(ctx, activeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis: get active pointer: %w", err)
	}

	err = s.update(ctx, id, func(conv *models.Conversation) {
		conv.IsActive = false
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := s.rdb.Del(ctx, activeKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis: clear active pointer: %w", err)
	}
	return nil
}

func (s *RedisConversations) load(ctx context.Context, id string) (*models.Conversation, error) {
	raw, err := s.rdb.Get(ctx, conversationKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get conversation: %w", err)
	}

	var conv models.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("redis: decode conversation %s: %w", id, err)
	}
	return &conv, nil
}

func (s *RedisConversations) update(ctx context.Context, id string, mutate func(conv *models.Conversation)) error {
	conv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	mutate(conv)
	conv.UpdatedAt = s.now()

	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("redis: encode conversation: %w", err)
	}
	// The active pointer shares the document's expiry so an ongoing
	// conversation is not dropped while its document is still live.
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, conversationKey(id), raw, s.ttl)
		if conv.IsActive && s.ttl > 0 {
			pipe.Expire(ctx, activeKey(conv.UserID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: save conversation: %w", err)
	}
	return nil
}
