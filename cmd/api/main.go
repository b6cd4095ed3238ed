package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rajanshah23/Theatre-Booking-System/internal/api/router"
	"github.com/rajanshah23/Theatre-Booking-System/internal/application"
	"github.com/rajanshah23/Theatre-Booking-System/internal/config"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/metrics"
	"github.com/rajanshah23/Theatre-Booking-System/internal/worker"
)

func main() {
	cfg := config.Load()

	logger.Set(logger.NewLogger(cfg.App.Env))
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.Init()

	// ストレージ（PostgreSQL またはインメモリ）
	store, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("ストレージ初期化エラー", zap.Error(err))
	}
	defer store.close()

	// Redis（任意）
	rc := openRedis(ctx, cfg, m)
	defer rc.close()

	// 決済ゲートウェイ・メッセージブローカー
	gateway := newGateway(cfg)
	publisher, err := openPublisher(cfg)
	if err != nil {
		logger.Fatal("ブローカー接続エラー", zap.Error(err))
	}
	defer publisher.close()

	// サービス初期化
	opts := []application.BookingServiceOption{
		application.WithBookingMetrics(m),
		application.WithSweepBatch(cfg.Booking.SweepBatch),
	}
	if rc.locker != nil {
		opts = append(opts, application.WithSeatLocker(rc.locker))
	}
	if rc.cache != nil {
		opts = append(opts, application.WithSeatCacheInvalidator(rc.cache))
	}
	if publisher.publisher != nil {
		opts = append(opts, application.WithTicketPublisher(publisher.publisher))
	}
	bookingService := application.NewBookingService(
		store.txManager, store.bookings, store.seats, store.shows, store.payments, gateway, opts...,
	)
	seatService := application.NewSeatService(store.seats, store.shows, rc.seatCountCache(), cfg.Booking.CacheTTL, cfg.Booking.SeatsPerRow)

	if cfg.App.Storage == config.StorageMemory {
		seedDemoShow(ctx, store, seatService)
	}

	// 期限切れ予約スイーパー
	var sweeperOpts []worker.SweeperOption
	if rc.locker != nil {
		sweeperOpts = append(sweeperOpts, worker.WithLeaderLock(rc.locker, worker.DefaultLeaderKey))
	}
	sweeper := worker.NewExpiredBookingSweeper(bookingService, cfg.Booking.SweepInterval, cfg.Booking.HoldTTL, sweeperOpts...)
	go sweeper.Start(ctx)

	// HTTP サーバー
	e := router.New(router.Deps{
		BookingService: bookingService,
		PaymentService: bookingService,
		SeatService:    seatService,
		HealthChecks:   append(store.healthChecks, rc.healthChecks...),
		Auth:           cfg.Auth,
		MetricsAuth:    cfg.Metrics,
		Metrics:        m,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	go func() {
		logger.Info("サーバー起動",
			zap.String("addr", addr),
			zap.String("env", cfg.App.Env),
			zap.String("storage", cfg.App.Storage),
			zap.String("broker", cfg.Broker.Kind),
			zap.Bool("redis", rc.client != nil),
			zap.Bool("gateway", gateway != nil),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// 実行中の掃除を終わらせてから HTTP を止める
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
}

// seedDemoShow はインメモリ起動時に動作確認用の公演を1件用意する
func seedDemoShow(ctx context.Context, store *storage, seatService *application.SeatService) {
	sh := show.NewShow("デモ公演", time.Now().Add(7*24*time.Hour), 100, 500)
	if err := store.shows.Create(ctx, sh); err != nil {
		logger.Warn("デモ公演の作成に失敗", zap.Error(err))
		return
	}
	if _, err := seatService.SeedSeats(ctx, sh.ID); err != nil {
		logger.Warn("デモ公演の座席作成に失敗", logger.ShowID(sh.ID), zap.Error(err))
		return
	}
	logger.Info("デモ公演を作成しました", logger.ShowID(sh.ID), zap.String("title", sh.Title))
}
