package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rajanshah23/Theatre-Booking-System/internal/api/handler"
	"github.com/rajanshah23/Theatre-Booking-System/internal/application"
	"github.com/rajanshah23/Theatre-Booking-System/internal/config"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/ticket"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
	"github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/kafka"
	"github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/khalti"
	"github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/memory"
	"github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/postgres"
	"github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/rabbitmq"
	redisinfra "github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/redis"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/metrics"
)

const seatLockRetryDelay = 50 * time.Millisecond

// storage は選択されたストレージのリポジトリ群
type storage struct {
	txManager    transaction.Manager
	shows        show.Repository
	seats        seat.Repository
	bookings     booking.Repository
	payments     payment.Repository
	healthChecks []handler.HealthCheck
	close        func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.App.Storage {
	case config.StorageMemory:
		logger.Warn("インメモリストレージで起動します（再起動でデータは消えます）")
		store := memory.NewStore()
		return &storage{
			txManager: store,
			shows:     store.Shows(),
			seats:     store.Seats(),
			bookings:  store.Bookings(),
			payments:  store.Payments(),
			close:     func() {},
		}, nil

	case config.StoragePostgres:
		db, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("DB接続に失敗: %w", err)
		}
		if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("DB接続完了", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.DBName))
		return &storage{
			txManager: postgres.NewTxManager(db),
			shows:     postgres.NewShowRepository(db),
			seats:     postgres.NewSeatRepository(db),
			bookings:  postgres.NewBookingRepository(db),
			payments:  postgres.NewPaymentRepository(db),
			healthChecks: []handler.HealthCheck{{
				Name:  "postgres",
				Check: func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			}},
			close: func() {
				if err := db.Close(); err != nil {
					logger.Warn("DBクローズに失敗", zap.Error(err))
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("不明なストレージ: %q", cfg.App.Storage)
}

// redisDeps は Redis を使う補助機能。無効時はすべて nil
type redisDeps struct {
	client       *redis.Client
	locker       *redisinfra.LockManager
	cache        *redisinfra.SeatCache
	healthChecks []handler.HealthCheck
}

// openRedis は Redis に接続する。接続できなければ Redis なしで続行する
// 座席の一貫性は DB の行ロックで保証されるため、Redis は必須ではない
func openRedis(ctx context.Context, cfg *config.Config, m *metrics.Metrics) *redisDeps {
	if !cfg.Redis.Enabled {
		logger.Info("Redis は無効です")
		return &redisDeps{}
	}
	client := redisinfra.NewClient(&cfg.Redis)
	if err := redisinfra.Ping(ctx, client); err != nil {
		logger.Warn("Redis接続に失敗したため Redis なしで起動します", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		_ = client.Close()
		return &redisDeps{}
	}
	logger.Info("Redis接続完了", zap.String("addr", cfg.Redis.Addr()))
	return &redisDeps{
		client: client,
		locker: redisinfra.NewLockManager(client,
			redisinfra.WithMetrics(m),
			redisinfra.WithSeatLockPolicy(cfg.Booking.LockTTL, cfg.Booking.LockRetries, seatLockRetryDelay),
		),
		cache: redisinfra.NewSeatCache(client),
		healthChecks: []handler.HealthCheck{{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisinfra.Ping(ctx, client) },
		}},
	}
}

// seatCountCache は無効時に型付き nil を返さないようにする
func (r *redisDeps) seatCountCache() application.SeatCountCache {
	if r.cache == nil {
		return nil
	}
	return r.cache
}

func (r *redisDeps) close() {
	if r.client == nil {
		return
	}
	if err := r.client.Close(); err != nil {
		logger.Warn("Redisクローズに失敗", zap.Error(err))
	}
}

// newGateway はシークレットキーが設定されていれば Khalti クライアントを返す
func newGateway(cfg *config.Config) payment.Gateway {
	if cfg.Gateway.SecretKey == "" {
		logger.Warn("KHALTI_SECRET_KEY が未設定のため外部決済は利用できません")
		return nil
	}
	return khalti.NewClient(&cfg.Gateway)
}

// publisherDeps は予約確定イベントの送信先
type publisherDeps struct {
	publisher ticket.Publisher
	closer    func() error
}

func openPublisher(cfg *config.Config) (*publisherDeps, error) {
	switch cfg.Broker.Kind {
	case config.BrokerNone, "":
		return &publisherDeps{}, nil
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.Dial(cfg.Broker.AMQPURL, cfg.Broker.Queue)
		if err != nil {
			return nil, err
		}
		logger.Info("RabbitMQ接続完了", zap.String("queue", cfg.Broker.Queue))
		return &publisherDeps{publisher: p, closer: p.Close}, nil
	case config.BrokerKafka:
		p, err := kafka.Dial(cfg.Broker.KafkaBrokers, cfg.Broker.Topic)
		if err != nil {
			return nil, err
		}
		logger.Info("Kafka接続完了", zap.Strings("brokers", cfg.Broker.KafkaBrokers), zap.String("topic", cfg.Broker.Topic))
		return &publisherDeps{publisher: p, closer: p.Close}, nil
	}
	return nil, fmt.Errorf("不明なブローカー: %q", cfg.Broker.Kind)
}

func (p *publisherDeps) close() {
	if p.closer == nil {
		return
	}
	if err := p.closer(); err != nil {
		logger.Warn("ブローカーのクローズに失敗", zap.Error(err))
	}
}
