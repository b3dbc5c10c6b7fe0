package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld 锁已被其他请求持有
var ErrLockHeld = errors.New("lock is held by another owner")

// releaseScript 仅当值等于自己的令牌时删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 基于 SET NX PX 的分布式锁
type Locker struct {
	client *redis.Client
}

// NewLocker 创建分布式锁
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// Lock 已获取的锁
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// Acquire 尝试获取锁，锁被占用时返回 ErrLockHeld
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &Lock{client: l.client, key: key, token: token}, nil
}

// Release 释放锁，锁已过期并被他人获取时不会误删
func (lk *Lock) Release(ctx context.Context) error {
	_, err := releaseScript.Run(ctx, lk.client, []string{lk.key}, lk.token).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Key 返回锁的键
func (lk *Lock) Key() string {
	return lk.key
}
