package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rajanshah23/Theatre-Booking-System/internal/application"
	"github.com/rajanshah23/Theatre-Booking-System/internal/config"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	"github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/postgres"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
)

const pageSize = 100

// 座席が未生成の公演すべてに座席を生成する
func main() {
	cfg := config.Load()

	logger.Set(logger.NewLogger(cfg.App.Env))
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("DB接続エラー", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("マイグレーションエラー", zap.Error(err))
	}

	showRepo := postgres.NewShowRepository(db)
	seatService := application.NewSeatService(postgres.NewSeatRepository(db), showRepo, nil, 0, cfg.Booking.SeatsPerRow)

	seeded, skipped, err := seedAll(ctx, showRepo, seatService)
	if err != nil {
		logger.Fatal("座席生成エラー", zap.Error(err))
	}
	logger.Info("座席生成完了", zap.Int("seeded", seeded), zap.Int("skipped", skipped))
}

type seatSeeder interface {
	SeedSeats(ctx context.Context, showID string) ([]*seat.Seat, error)
}

// seedAll は公演をページ単位で走査し、生成済みの公演は飛ばす
func seedAll(ctx context.Context, shows show.Repository, seeder seatSeeder) (seeded, skipped int, err error) {
	for offset := 0; ; offset += pageSize {
		page, err := shows.List(ctx, pageSize, offset)
		if err != nil {
			return seeded, skipped, err
		}
		for _, sh := range page {
			seats, err := seeder.SeedSeats(ctx, sh.ID)
			switch {
			case errors.Is(err, seat.ErrAlreadySeeded):
				skipped++
			case err != nil:
				return seeded, skipped, err
			default:
				seeded++
				logger.Info("座席を生成しました", logger.ShowID(sh.ID), zap.Int("seats", len(seats)))
			}
		}
		if len(page) < pageSize {
			return seeded, skipped, nil
		}
	}
}
