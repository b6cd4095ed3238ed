package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rajanshah23/Theatre-Booking-System/internal/api/middleware"
	"github.com/rajanshah23/Theatre-Booking-System/internal/application"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
)

// 座席表での座席の状態
const (
	seatStatusAvailable = "available"
	seatStatusBooked    = "booked"
)

type SeatResponse struct {
	ID       string `json:"id"`
	ShowID   string `json:"show_id"`
	Label    string `json:"label" example:"A1"`
	Row      string `json:"row" example:"A"`
	Number   int    `json:"number" example:"1"`
	Occupied bool   `json:"occupied"`
	Status   string `json:"status" example:"available"`
}

func toSeatResponse(s *seat.Seat) SeatResponse {
	status := seatStatusAvailable
	if s.Occupied {
		status = seatStatusBooked
	}
	return SeatResponse{
		ID: s.ID, ShowID: s.ShowID, Label: s.Label,
		Row: s.Row, Number: s.Number, Occupied: s.Occupied, Status: status,
	}
}

func toSeatResponses(seats []*seat.Seat) []SeatResponse {
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = toSeatResponse(s)
	}
	return resp
}

type BookingResponse struct {
	ID               string         `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID           string         `json:"user_id" example:"user-123"`
	ShowID           string         `json:"show_id"`
	SeatCount        int            `json:"seat_count" example:"2"`
	Status           string         `json:"status" example:"pending"`
	PaymentMethod    string         `json:"payment_method" example:"khalti"`
	TotalAmount      int            `json:"total_amount" example:"1000"`
	PaymentReference *string        `json:"payment_reference,omitempty"`
	ShowStartsAt     *time.Time     `json:"show_starts_at,omitempty"`
	Seats            []SeatResponse `json:"seats,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID: b.ID, UserID: b.UserID, ShowID: b.ShowID,
		SeatCount: b.SeatCount, Status: string(b.Status),
		PaymentMethod: string(b.PaymentMethod), TotalAmount: b.TotalAmount,
		PaymentReference: b.PaymentReference, ShowStartsAt: b.ShowStartsAt,
		CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	}
	if len(b.Seats) > 0 {
		resp.Seats = toSeatResponses(b.Seats)
	}
	return resp
}

type PaymentResponse struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	Amount        int       `json:"amount" example:"1000"`
	Method        string    `json:"method" example:"khalti"`
	Status        string    `json:"status" example:"successful"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID: p.ID, BookingID: p.BookingID, Amount: p.Amount,
		Method: string(p.Method), Status: string(p.Status),
		TransactionID: p.TransactionID, CreatedAt: p.CreatedAt,
	}
}

// actorOf は Identity ミドルウェアが格納した操作者を返す
func actorOf(c echo.Context) (application.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return application.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	return actor, nil
}

// pagination は limit/offset クエリを読む。不正値は 0 として扱いサービス側の既定値に任せる
func pagination(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}
