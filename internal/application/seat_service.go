package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	redisinfra "github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/redis"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
)

const (
	defaultSeatCacheTTL = 5 * time.Second
)

// SeatCountCache は公演の空席数キャッシュ
type SeatCountCache interface {
	GetAvailableCount(ctx context.Context, showID string) (int, error)
	SetAvailableCount(ctx context.Context, showID string, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, showID string) error
}

type SeatService struct {
	seatRepo    seat.Repository
	showRepo    show.Repository
	cache       SeatCountCache
	cacheTTL    time.Duration
	seatsPerRow int
}

// NewSeatService は SeatService を作成する。cache は nil でもよい
func NewSeatService(sr seat.Repository, shr show.Repository, cache SeatCountCache, cacheTTL time.Duration, seatsPerRow int) *SeatService {
	if cacheTTL <= 0 {
		cacheTTL = defaultSeatCacheTTL
	}
	if seatsPerRow <= 0 {
		seatsPerRow = seat.DefaultSeatsPerRow
	}
	return &SeatService{seatRepo: sr, showRepo: shr, cache: cache, cacheTTL: cacheTTL, seatsPerRow: seatsPerRow}
}

func (s *SeatService) ListAvailableSeats(ctx context.Context, showID string) ([]*seat.Seat, error) {
	if _, err := s.showRepo.GetByID(ctx, showID); err != nil {
		return nil, fmt.Errorf("公演取得に失敗: %w", err)
	}
	return s.seatRepo.ListAvailable(ctx, showID)
}

// ListSeats は公演の座席表（予約済みを含む全座席）を行→番号順で返す
func (s *SeatService) ListSeats(ctx context.Context, showID string) ([]*seat.Seat, error) {
	if _, err := s.showRepo.GetByID(ctx, showID); err != nil {
		return nil, fmt.Errorf("公演取得に失敗: %w", err)
	}
	seats, err := s.seatRepo.ListByShow(ctx, showID)
	if err != nil {
		return nil, err
	}
	seat.SortByPosition(seats)
	return seats, nil
}

func (s *SeatService) CountAvailableSeats(ctx context.Context, showID string) (int, error) {
	// キャッシュから取得を試みる
	if s.cache != nil {
		count, err := s.cache.GetAvailableCount(ctx, showID)
		if err == nil {
			logger.Debug("キャッシュヒット", logger.ShowID(showID), zap.Int("count", count))
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	if _, err := s.showRepo.GetByID(ctx, showID); err != nil {
		return 0, fmt.Errorf("公演取得に失敗: %w", err)
	}
	count, err := s.seatRepo.CountAvailable(ctx, showID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.SetAvailableCount(ctx, showID, count, s.cacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}
	return count, nil
}

// SeedSeats は公演の総座席数ぶんの座席を A1, A2, ... の順で生成する
// 既に座席がある場合は seat.ErrAlreadySeeded
func (s *SeatService) SeedSeats(ctx context.Context, showID string) ([]*seat.Seat, error) {
	sh, err := s.showRepo.GetByID(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("公演取得に失敗: %w", err)
	}
	seats, err := s.seatRepo.Seed(ctx, sh.ID, sh.TotalSeats, s.seatsPerRow)
	if err != nil {
		return nil, err
	}
	logger.Info("座席を生成しました", logger.ShowID(sh.ID), zap.Int("count", len(seats)))
	s.InvalidateCache(ctx, sh.ID)
	return seats, nil
}

// InvalidateCache は公演の空席数キャッシュを無効化する
func (s *SeatService) InvalidateCache(ctx context.Context, showID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, showID); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
}

