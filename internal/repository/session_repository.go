package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docforge-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// 对话会话在 Redis 中的保存时长。过期的会话视为从头开始。
const sessionTTL = 24 * time.Hour

// SessionRepository 定义了对话会话的存取接口。
type SessionRepository interface {
	// Get 读取用户的会话。会话不存在时返回 (nil, nil)。
	Get(ctx context.Context, userID uint64) (*model.DialogSession, error)
	Save(ctx context.Context, userID uint64, session *model.DialogSession) error
	Delete(ctx context.Context, userID uint64) error
}

type sessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository 创建一个新的 sessionRepository 实例。
func NewSessionRepository(rdb *redis.Client) SessionRepository {
	return &sessionRepository{rdb: rdb}
}

func sessionKey(userID uint64) string {
	return fmt.Sprintf("dialog:%d:session", userID)
}

func (r *sessionRepository) Get(ctx context.Context, userID uint64) (*model.DialogSession, error) {
	data, err := r.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session model.DialogSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("反序列化会话失败: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, userID uint64, session *model.DialogSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("序列化会话失败: %w", err)
	}
	return r.rdb.Set(ctx, sessionKey(userID), data, sessionTTL).Err()
}

func (r *sessionRepository) Delete(ctx context.Context, userID uint64) error {
	return r.rdb.Del(ctx, sessionKey(userID)).Err()
}
