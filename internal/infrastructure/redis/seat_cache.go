package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("キャッシュが見つかりません")

const availableCountKeyPrefix = "seats:available:"

// SeatCache は公演ごとの空席数を Redis に置く
// 値は座席の状態が変わるたびに Invalidate で捨てる。書き戻しはしない
type SeatCache struct {
	client redis.Cmdable
}

func NewSeatCache(client redis.Cmdable) *SeatCache {
	return &SeatCache{client: client}
}

// GetAvailableCount はキャッシュ済みの空席数を返す。未設定なら ErrCacheMiss
func (c *SeatCache) GetAvailableCount(ctx context.Context, showID string) (int, error) {
	count, err := c.client.Get(ctx, availableCountKey(showID)).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, ErrCacheMiss
	case err != nil:
		return 0, fmt.Errorf("空席数キャッシュの取得に失敗(show=%s): %w", showID, err)
	}
	return count, nil
}

func (c *SeatCache) SetAvailableCount(ctx context.Context, showID string, count int, ttl time.Duration) error {
	err := c.client.Set(ctx, availableCountKey(showID), count, ttl).Err()
	if err != nil {
		return fmt.Errorf("空席数キャッシュの保存に失敗(show=%s): %w", showID, err)
	}
	return nil
}

func (c *SeatCache) Invalidate(ctx context.Context, showID string) error {
	err := c.client.Del(ctx, availableCountKey(showID)).Err()
	if err != nil {
		return fmt.Errorf("空席数キャッシュの無効化に失敗(show=%s): %w", showID, err)
	}
	return nil
}

func availableCountKey(showID string) string {
	return availableCountKeyPrefix + showID
}
