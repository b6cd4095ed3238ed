package ticket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
)

func TestNew(t *testing.T) {
	startsAt := time.Date(2026, 12, 1, 19, 0, 0, 0, time.UTC)
	sh := &show.Show{ID: "show-1", Title: "ハムレット", StartsAt: startsAt, Price: 500}
	seats := []*seat.Seat{seat.NewSeat("show-1", "A", 1), seat.NewSeat("show-1", "A", 2)}

	t.Run("確定済みの予約からチケットを作成できる", func(t *testing.T) {
		b := &booking.Booking{ID: "b-1", UserID: "u-1", ShowID: "show-1", Status: booking.StatusConfirmed,
			TotalAmount: 1000, PaymentMethod: payment.MethodCash}

		tk, err := New(b, sh, seats)

		require.NoError(t, err)
		assert.Equal(t, "b-1", tk.BookingID)
		assert.Equal(t, "ハムレット", tk.ShowTitle)
		assert.Equal(t, startsAt, tk.ShowStartsAt)
		assert.Equal(t, []string{"A1", "A2"}, tk.Seats)
		assert.Equal(t, "cash", tk.PaymentMethod)
	})

	t.Run("公演がない場合は予約の開始時刻を使う", func(t *testing.T) {
		b := &booking.Booking{ID: "b-1", Status: booking.StatusConfirmed, ShowStartsAt: &startsAt}

		tk, err := New(b, nil, nil)

		require.NoError(t, err)
		assert.Equal(t, startsAt, tk.ShowStartsAt)
		assert.Empty(t, tk.Seats)
	})

	t.Run("未確定の予約はエラー", func(t *testing.T) {
		b := &booking.Booking{ID: "b-1", Status: booking.StatusPending}

		_, err := New(b, sh, seats)

		assert.ErrorIs(t, err, booking.ErrNotConfirmed)
	})
}
