// Package ticket は確定済み予約の読み取りモデルを提供する
// PDF生成やメール送信などの外部処理はこのモデルを受け取るだけで、予約コアの状態には触れない
package ticket

import (
	"context"
	"time"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
)

// EventBookingConfirmed は予約確定イベントの名前
const EventBookingConfirmed = "booking.confirmed"

// Ticket は確定済み予約のスナップショット
type Ticket struct {
	BookingID     string    `json:"booking_id"`
	UserID        string    `json:"user_id"`
	ShowID        string    `json:"show_id"`
	ShowTitle     string    `json:"show_title"`
	ShowStartsAt  time.Time `json:"show_starts_at"`
	Seats         []string  `json:"seats"`
	TotalAmount   int       `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	IssuedAt      time.Time `json:"issued_at"`
}

// New は予約・公演・座席からチケットを組み立てる
func New(b *booking.Booking, s *show.Show, seats []*seat.Seat) (*Ticket, error) {
	if b.Status != booking.StatusConfirmed {
		return nil, booking.ErrNotConfirmed
	}
	t := &Ticket{
		BookingID:     b.ID,
		UserID:        b.UserID,
		ShowID:        b.ShowID,
		Seats:         seat.Labels(seats),
		TotalAmount:   b.TotalAmount,
		PaymentMethod: string(b.PaymentMethod),
		IssuedAt:      time.Now(),
	}
	if s != nil {
		t.ShowTitle = s.Title
		t.ShowStartsAt = s.StartsAt
	} else if b.ShowStartsAt != nil {
		t.ShowStartsAt = *b.ShowStartsAt
	}
	return t, nil
}

// Publisher は確定済みチケットを外部の処理系へ届ける
type Publisher interface {
	Publish(ctx context.Context, t *Ticket) error
}
