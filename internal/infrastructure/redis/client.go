package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rajanshah23/Theatre-Booking-System/internal/config"
)

const (
	clientName   = "theatre-booking"
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
)

// clientOptions は接続オプションを組み立てる
// 座席ロックは短命なので、応答待ちは短めに打ち切る
func clientOptions(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

func NewClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(clientOptions(cfg))
}

// Ping は疎通確認。失敗時は接続先をエラーに含める
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis(%s)への接続に失敗: %w", client.Options().Addr, err)
	}
	return nil
}
