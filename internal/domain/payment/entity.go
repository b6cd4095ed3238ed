package payment

import (
	"strings"
	"time"
)

// Method は支払い方法を表す
type Method string

const (
	MethodCash   Method = "cash"
	MethodCard   Method = "card"
	MethodKhalti Method = "khalti"
	MethodOnline Method = "online"
)

// ParseMethod は文字列から支払い方法を解析する（大文字小文字は区別しない）
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodCash, MethodCard, MethodKhalti, MethodOnline:
		return m, nil
	}
	return "", ErrUnknownMethod
}

// RequiresGateway は外部決済ゲートウェイを経由するかを返す
// 現金・カードは窓口で精算済みとして扱う
func (m Method) RequiresGateway() bool {
	return m == MethodKhalti || m == MethodOnline
}

// Status は支払いの状態を表す
type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
)

// Payment は支払い記録（追記のみ）
type Payment struct {
	ID            string
	BookingID     string
	Amount        int
	Method        Method
	Status        Status
	TransactionID *string // 外部決済の取引ID
	CreatedAt     time.Time
}

// NewPayment は支払い記録を作成する
func NewPayment(bookingID string, amount int, method Method, status Status, transactionID string) *Payment {
	p := &Payment{
		BookingID: bookingID,
		Amount:    amount,
		Method:    method,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if transactionID != "" {
		p.TransactionID = &transactionID
	}
	return p
}

// Validate は支払い記録の検証を行う
func (p *Payment) Validate() error {
	if p.BookingID == "" {
		return ErrBookingIDRequired
	}
	if p.Amount < 0 {
		return ErrInvalidAmount
	}
	switch p.Status {
	case StatusPending, StatusSuccessful, StatusFailed:
	default:
		return ErrInvalidStatus
	}
	return nil
}
