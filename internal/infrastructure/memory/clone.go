package memory

import (
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
)

// 呼び出し側がストア内部の値を書き換えられないよう常にコピーを返す

func cloneShow(s *show.Show) *show.Show {
	c := *s
	return &c
}

func cloneSeat(s *seat.Seat) *seat.Seat {
	c := *s
	if s.BookingID != nil {
		id := *s.BookingID
		c.BookingID = &id
	}
	return &c
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	c := *b
	if b.PaymentReference != nil {
		ref := *b.PaymentReference
		c.PaymentReference = &ref
	}
	if b.ShowStartsAt != nil {
		at := *b.ShowStartsAt
		c.ShowStartsAt = &at
	}
	c.Seats = nil
	return &c
}

func clonePayment(p *payment.Payment) *payment.Payment {
	c := *p
	if p.TransactionID != nil {
		id := *p.TransactionID
		c.TransactionID = &id
	}
	return &c
}
