package handler

import (
	"context"

	"github.com/rajanshah23/Theatre-Booking-System/internal/application"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/ticket"
)

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*application.CreateBookingOutput, error)
	GetBooking(ctx context.Context, id string, actor application.Actor) (*booking.Booking, error)
	GetTicket(ctx context.Context, id string, actor application.Actor) (*ticket.Ticket, error)
	ListUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error)
	ListPayments(ctx context.Context, bookingID string, actor application.Actor) ([]*payment.Payment, error)
	ConfirmBooking(ctx context.Context, id string, actor application.Actor) (*booking.Booking, error)
	CancelBooking(ctx context.Context, id string, actor application.Actor) (*booking.Booking, error)
}

// PaymentServiceInterface は決済確認のインターフェース
type PaymentServiceInterface interface {
	VerifyPayment(ctx context.Context, reference string) (*booking.Booking, error)
}

// SeatServiceInterface は座席サービスのインターフェース
type SeatServiceInterface interface {
	ListSeats(ctx context.Context, showID string) ([]*seat.Seat, error)
	ListAvailableSeats(ctx context.Context, showID string) ([]*seat.Seat, error)
	CountAvailableSeats(ctx context.Context, showID string) (int, error)
	SeedSeats(ctx context.Context, showID string) ([]*seat.Seat, error)
}
