// Package cache 提供 Redis 连接、键构造与分布式锁
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/grocy-backend/internal/common/config"
)

const pingTimeout = 5 * time.Second

var client *redis.Client

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Options 将配置转换为 go-redis 连接参数
func Options(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  seconds(cfg.DialTimeout),
		ReadTimeout:  seconds(cfg.ReadTimeout),
		WriteTimeout: seconds(cfg.WriteTimeout),
	}
}

// Init 建立连接并 PING 校验，成功后登记为进程级客户端
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	c := redis.NewClient(Options(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr(), err)
	}

	client = c
	return c, nil
}

// Close 关闭进程级客户端
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}
