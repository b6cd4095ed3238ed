package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/metrics"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// 複数キーをまとめて取得する。1つでも他者が保持していれば何も設定しない
const acquireScript = `
for _, key in ipairs(KEYS) do
	if redis.call("EXISTS", key) == 1 then
		return 0
	end
end
for _, key in ipairs(KEYS) do
	redis.call("SET", key, ARGV[1], "PX", ARGV[2])
end
return 1
`

// 所有者確認と削除をアトミックに実行する
const releaseScript = `
local n = 0
for _, key in ipairs(KEYS) do
	if redis.call("GET", key) == ARGV[1] then
		n = n + redis.call("DEL", key)
	end
end
return n
`

const extendScript = `
local n = 0
for _, key in ipairs(KEYS) do
	if redis.call("GET", key) == ARGV[1] then
		n = n + redis.call("PEXPIRE", key, ARGV[2])
	end
end
return n
`

// DistributedLock は Redis を使用した分散ロック
type DistributedLock struct {
	client  *redis.Client
	keys    []string
	value   string
	ttl     time.Duration
	metrics *metrics.Metrics
}

// LockManager は分散ロックを管理する
type LockManager struct {
	client     *redis.Client
	newToken   func() string
	metrics    *metrics.Metrics
	ttl        time.Duration
	maxRetries int
	retryDelay time.Duration
}

// LockOption は LockManager の設定を変更する
type LockOption func(*LockManager)

// WithTokenGenerator はロック所有者トークンの生成方法を差し替える
func WithTokenGenerator(fn func() string) LockOption {
	return func(m *LockManager) { m.newToken = fn }
}

// WithMetrics はロック操作の所要時間を記録する
func WithMetrics(mt *metrics.Metrics) LockOption {
	return func(m *LockManager) { m.metrics = mt }
}

// WithSeatLockPolicy は座席ロックのTTLとリトライ回数を設定する
func WithSeatLockPolicy(ttl time.Duration, maxRetries int, retryDelay time.Duration) LockOption {
	return func(m *LockManager) {
		m.ttl = ttl
		m.maxRetries = maxRetries
		m.retryDelay = retryDelay
	}
}

func NewLockManager(client *redis.Client, opts ...LockOption) *LockManager {
	m := &LockManager{
		client:     client,
		newToken:   uuid.NewString,
		ttl:        10 * time.Second,
		maxRetries: 3,
		retryDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AcquireLock は単一キーのロックを取得する
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*DistributedLock, error) {
	return m.AcquireMulti(ctx, []string{lockKey(key)}, ttl)
}

// Lease は取得済みのロック。処理が ttl を超えそうなら Extend で延ばす
type Lease interface {
	Extend(ctx context.Context, ttl time.Duration) error
	Release(ctx context.Context) error
}

// TryLock は単一キーのロックを1回だけ試みる
// 他者が保持している場合は ErrLockNotAcquired
func (m *LockManager) TryLock(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	lock, err := m.AcquireLock(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// AcquireMulti は複数キーのロックをまとめて取得する
func (m *LockManager) AcquireMulti(ctx context.Context, keys []string, ttl time.Duration) (*DistributedLock, error) {
	started := time.Now()
	value := m.newToken()

	ok, err := m.client.Eval(ctx, acquireScript, keys, value, ttl.Milliseconds()).Int()
	if err != nil {
		m.metrics.ObserveLock("acquire", "error", started)
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if ok == 0 {
		m.metrics.ObserveLock("acquire", "failed", started)
		return nil, ErrLockNotAcquired
	}
	m.metrics.ObserveLock("acquire", "success", started)

	return &DistributedLock{
		client:  m.client,
		keys:    keys,
		value:   value,
		ttl:     ttl,
		metrics: m.metrics,
	}, nil
}

// AcquireLockWithRetry はリトライ付きでロックを取得する
func (m *LockManager) AcquireLockWithRetry(ctx context.Context, keys []string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (*DistributedLock, error) {
	lastErr := ErrLockNotAcquired
	for i := 0; i < maxRetries; i++ {
		lock, err := m.AcquireMulti(ctx, keys, ttl)
		if err == nil {
			return lock, nil
		}
		lastErr = err
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		if i == maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

// LockSeats は公演の座席ごとのロックをまとめて取得する
// 重なる座席を含む別の予約リクエストとは競合し、ErrSeatConflict として返す
func (m *LockManager) LockSeats(ctx context.Context, showID string, seatIDs []string) (func(context.Context) error, error) {
	lock, err := m.AcquireLockWithRetry(ctx, SeatLockKeys(showID, seatIDs), m.ttl, m.maxRetries, m.retryDelay)
	if err != nil {
		if errors.Is(err, ErrLockNotAcquired) {
			return nil, fmt.Errorf("%w: %w", booking.ErrSeatConflict, err)
		}
		return nil, err
	}
	return lock.Release, nil
}

// SeatLockKeys は座席ロックのキーをソート・重複排除して返す
func SeatLockKeys(showID string, seatIDs []string) []string {
	sorted := append([]string(nil), seatIDs...)
	sort.Strings(sorted)
	keys := make([]string, 0, len(sorted))
	for i, id := range sorted {
		if i > 0 && id == sorted[i-1] {
			continue
		}
		keys = append(keys, lockKey(fmt.Sprintf("seat:%s:%s", showID, id)))
	}
	return keys
}

func lockKey(key string) string {
	return "lock:" + key
}

// Release はロックを解放する（Lua スクリプトで安全に解放）
func (l *DistributedLock) Release(ctx context.Context) error {
	started := time.Now()
	result, err := l.client.Eval(ctx, releaseScript, l.keys, l.value).Int()
	if err != nil {
		l.metrics.ObserveLock("release", "error", started)
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		l.metrics.ObserveLock("release", "failed", started)
		return ErrLockNotOwned
	}
	l.metrics.ObserveLock("release", "success", started)
	return nil
}

// Extend は保持中の全キーの期限を ttl に延ばす。1つでも失っていれば ErrLockNotOwned
func (l *DistributedLock) Extend(ctx context.Context, ttl time.Duration) error {
	started := time.Now()
	result, err := l.client.Eval(ctx, extendScript, l.keys, l.value, ttl.Milliseconds()).Int()
	if err != nil {
		l.metrics.ObserveLock("extend", "error", started)
		return fmt.Errorf("ロック延長に失敗: %w", err)
	}
	if result < len(l.keys) {
		l.metrics.ObserveLock("extend", "failed", started)
		return ErrLockNotOwned
	}
	l.metrics.ObserveLock("extend", "success", started)
	l.ttl = ttl
	return nil
}
