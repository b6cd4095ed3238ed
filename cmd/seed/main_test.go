package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajanshah23/Theatre-Booking-System/internal/application"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	"github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/memory"
)

type failingSeeder struct{}

func (failingSeeder) SeedSeats(context.Context, string) ([]*seat.Seat, error) {
	return nil, errors.New("db down")
}

func TestSeedAll(t *testing.T) {
	t.Run("未生成の公演だけ座席を生成する", func(t *testing.T) {
		ctx := context.Background()
		store := memory.NewStore()
		seatService := application.NewSeatService(store.Seats(), store.Shows(), nil, 0, 10)

		first := show.NewShow("ハムレット", time.Now().Add(24*time.Hour), 20, 500)
		second := show.NewShow("マクベス", time.Now().Add(48*time.Hour), 15, 500)
		require.NoError(t, store.Shows().Create(ctx, first))
		require.NoError(t, store.Shows().Create(ctx, second))
		_, err := seatService.SeedSeats(ctx, first.ID)
		require.NoError(t, err)

		seeded, skipped, err := seedAll(ctx, store.Shows(), seatService)

		require.NoError(t, err)
		assert.Equal(t, 1, seeded)
		assert.Equal(t, 1, skipped)
		count, err := store.Seats().CountAvailable(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, 15, count)
	})

	t.Run("公演がなければ何もしない", func(t *testing.T) {
		store := memory.NewStore()

		seeded, skipped, err := seedAll(context.Background(), store.Shows(), failingSeeder{})

		require.NoError(t, err)
		assert.Zero(t, seeded)
		assert.Zero(t, skipped)
	})

	t.Run("生成エラーで中断する", func(t *testing.T) {
		ctx := context.Background()
		store := memory.NewStore()
		require.NoError(t, store.Shows().Create(ctx, show.NewShow("リア王", time.Now().Add(time.Hour), 5, 500)))

		_, _, err := seedAll(ctx, store.Shows(), failingSeeder{})

		assert.EqualError(t, err, "db down")
	})
}
