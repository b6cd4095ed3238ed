package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	redisinfra "github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/redis"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
)

// DefaultLeaderKey は複数インスタンス間で掃除役を1つに絞るためのロックキー
const DefaultLeaderKey = "sweeper:expired-bookings"

// BookingExpirer は保留期限を過ぎた予約を失効させるインターフェース
type BookingExpirer interface {
	ExpirePendingBookings(ctx context.Context, ttl time.Duration) (int, error)
}

// LeaderLocker は1回分の掃除の実行権を取得する
type LeaderLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (redisinfra.Lease, error)
}

// SweeperOption は ExpiredBookingSweeper の設定
type SweeperOption func(*ExpiredBookingSweeper)

// WithLeaderLock は各回の掃除の前にロックを取得するようにする
func WithLeaderLock(locker LeaderLocker, key string) SweeperOption {
	return func(s *ExpiredBookingSweeper) {
		s.locker = locker
		if key != "" {
			s.leaderKey = key
		}
	}
}

// ExpiredBookingSweeper は保留中のまま放置された予約を定期的に失効させ、座席を解放するワーカー
type ExpiredBookingSweeper struct {
	bookingService BookingExpirer
	interval       time.Duration
	holdTTL        time.Duration
	locker         LeaderLocker
	leaderKey      string
	renewEvery     time.Duration // 掃除中にリーダーロックを延長する間隔
	stopCh         chan struct{}
	doneCh         chan struct{}
	stopOnce       sync.Once
}

// NewExpiredBookingSweeper は新しいスイーパーを作成
func NewExpiredBookingSweeper(
	bs BookingExpirer,
	interval time.Duration,
	holdTTL time.Duration,
	opts ...SweeperOption,
) *ExpiredBookingSweeper {
	s := &ExpiredBookingSweeper{
		bookingService: bs,
		interval:       interval,
		holdTTL:        holdTTL,
		leaderKey:      DefaultLeaderKey,
		renewEvery:     interval / 2,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start はスイーパーを開始。Stop かコンテキストのキャンセルまでブロックする
func (s *ExpiredBookingSweeper) Start(ctx context.Context) {
	logger.Named("sweeper").Info("期限切れ予約スイーパー開始",
		zap.Duration("interval", s.interval),
		zap.Duration("hold_ttl", s.holdTTL),
		zap.Bool("leader_lock", s.locker != nil),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れ予約スイーパー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("期限切れ予約スイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止し、実行中の掃除の終了を待つ
func (s *ExpiredBookingSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

// sweep は1回分の失効処理
func (s *ExpiredBookingSweeper) sweep(ctx context.Context) {
	log := logger.Named("sweeper")

	if s.locker != nil {
		lease, err := s.locker.TryLock(ctx, s.leaderKey, s.interval)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				log.Debug("他のインスタンスが掃除中のためスキップ")
			} else {
				log.Warn("スイーパーのロック取得失敗", zap.Error(err))
			}
			return
		}
		stopRenew := s.keepLease(ctx, lease)
		defer func() {
			stopRenew()
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("スイーパーのロック解放失敗", zap.Error(err))
			}
		}()
	}

	log.Debug("期限切れ予約の掃除開始")

	count, err := s.bookingService.ExpirePendingBookings(ctx, s.holdTTL)
	if err != nil {
		log.Error("期限切れ予約の掃除失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("期限切れ予約を失効", zap.Int("count", count))
	} else {
		log.Debug("期限切れ予約なし")
	}
}

// keepLease は掃除が interval を超えても他インスタンスに実行権が移らないよう、ロックを延長し続ける
// 返した関数で延長を止め、ゴルーチンの終了を待つ
func (s *ExpiredBookingSweeper) keepLease(ctx context.Context, lease redisinfra.Lease) func() {
	if s.renewEvery <= 0 {
		return func() {}
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.renewEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := lease.Extend(ctx, s.interval); err != nil {
					logger.Named("sweeper").Warn("スイーパーのロック延長失敗", zap.Error(err))
					return
				}
			}
		}
	}()
	return func() {
		close(stop)
		<-done
	}
}
