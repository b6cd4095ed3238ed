package booking

import (
	"strings"
	"time"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
)

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// legacyBooked は旧バージョンで使われていた確定状態
const legacyBooked = "booked"

// ParseStatus は文字列から状態を解析する
// 旧状態 booked は confirmed として扱う
func ParseStatus(s string) (Status, error) {
	switch v := strings.ToLower(s); v {
	case legacyBooked:
		return StatusConfirmed, nil
	case string(StatusPending), string(StatusConfirmed), string(StatusCancelled), string(StatusFailed):
		return Status(v), nil
	}
	return "", ErrUnknownStatus
}

// HoldsSeats は座席を保持する状態かを返す
func (s Status) HoldsSeats() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking は予約エンティティを表す
type Booking struct {
	ID               string
	UserID           string
	ShowID           string
	SeatCount        int
	Status           Status
	PaymentMethod    payment.Method
	TotalAmount      int
	PaymentReference *string
	ShowStartsAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// FindWithSeats でのみ読み込まれる
	Seats []*seat.Seat
}

// NewBooking は保留中の予約を作成する
func NewBooking(userID, showID string, seatCount int, method payment.Method, totalAmount int, showStartsAt time.Time) *Booking {
	now := time.Now()
	b := &Booking{
		UserID:        userID,
		ShowID:        showID,
		SeatCount:     seatCount,
		Status:        StatusPending,
		PaymentMethod: method,
		TotalAmount:   totalAmount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !showStartsAt.IsZero() {
		b.ShowStartsAt = &showStartsAt
	}
	return b
}

// IsPending は予約が保留中かを返す
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

// IsOwnedBy は予約の所有者かを返す
func (b *Booking) IsOwnedBy(userID string) bool {
	return userID != "" && b.UserID == userID
}

// HasPaymentReference は外部決済の参照を持つかを返す
func (b *Booking) HasPaymentReference() bool {
	return b.PaymentReference != nil && *b.PaymentReference != ""
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.ShowID == "" {
		return ErrShowIDRequired
	}
	if b.SeatCount <= 0 {
		return ErrSeatIDsRequired
	}
	return nil
}
