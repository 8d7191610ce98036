package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"cartservice/internal/domain/model"
	"cartservice/internal/domain/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrCacheMiss = errors.New("cache miss")

// UserCache はユーザー（国の税率）をRedisにキャッシュする UserClient のデコレーター。
// キャッシュの失敗はログだけ出して上流に取りに行く。
type UserCache struct {
	client   *redis.Client
	upstream service.UserClient
	baseTTL  time.Duration
	log      *zap.Logger
	sfg      singleflight.Group
}

func NewUserCache(client *redis.Client, upstream service.UserClient, ttl time.Duration, log *zap.Logger) *UserCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserCache{
		client:   client,
		upstream: upstream,
		baseTTL:  ttl,
		log:      log,
	}
}

// GetUser は同じユーザーの同時ミスを1回の上流呼び出しにまとめる。
// 共有の取得は WithoutCancel で走らせ、各呼び出し元は自分の ctx が切れたら抜ける。
func (c *UserCache) GetUser(ctx context.Context, userID int64) (model.User, error) {
	key := cacheKey(userID)
	shared := context.WithoutCancel(ctx)

	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		u, err := c.get(shared, key)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn("user cache get failed", zap.Error(err), zap.Int64("user_id", userID))
		}

		u, err = c.upstream.GetUser(shared, userID)
		if err != nil {
			return model.User{}, err
		}

		if err := c.set(shared, key, u); err != nil {
			c.log.Warn("user cache set failed", zap.Error(err), zap.Int64("user_id", userID))
		}
		return u, nil
	})

	select {
	case <-ctx.Done():
		return model.User{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.User{}, res.Err
		}
		return res.Val.(model.User), nil
	}
}

// Invalidate はユーザーのキャッシュを消す。
func (c *UserCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *UserCache) get(ctx context.Context, key string) (model.User, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.User{}, ErrCacheMiss
	}
	if err != nil {
		return model.User{}, fmt.Errorf("redis get failed: %w", err)
	}

	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		return model.User{}, fmt.Errorf("unmarshal user failed: %w", err)
	}
	return u, nil
}

func (c *UserCache) set(ctx context.Context, key string, u model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user failed: %w", err)
	}

	// 同時に切れないように少しずらす
	jitter := time.Duration(rand.Int63n(int64(c.baseTTL/10) + 1))
	if err := c.client.Set(ctx, key, data, c.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(userID int64) string {
	return "cart:user:" + strconv.FormatInt(userID, 10)
}
