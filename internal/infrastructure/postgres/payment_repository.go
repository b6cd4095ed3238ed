package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

type paymentRow struct {
	ID            string    `db:"id"`
	BookingID     string    `db:"booking_id"`
	Amount        int       `db:"amount"`
	Method        string    `db:"method"`
	Status        string    `db:"status"`
	TransactionID *string   `db:"transaction_id"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *paymentRow) toEntity() *payment.Payment {
	return &payment.Payment{
		ID: r.ID, BookingID: r.BookingID, Amount: r.Amount,
		Method: payment.Method(r.Method), Status: payment.Status(r.Status),
		TransactionID: r.TransactionID, CreatedAt: r.CreatedAt,
	}
}

// PaymentRepository は支払い記録のPostgreSQL実装
type PaymentRepository struct{ db *sqlx.DB }

// NewPaymentRepository は新しい PaymentRepository を作成する
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx transaction.Tx, p *payment.Payment) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO payments (booking_id, amount, method, status, transaction_id, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlTx.QueryRowContext(ctx, query, p.BookingID, p.Amount, string(p.Method), string(p.Status), p.TransactionID, p.CreatedAt).Scan(&p.ID); err != nil {
		return fmt.Errorf("支払い記録に失敗: %w", err)
	}
	return nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID string) ([]*payment.Payment, error) {
	if !isValidID(bookingID) {
		return []*payment.Payment{}, nil
	}
	var rows []paymentRow
	query := `SELECT id, booking_id, amount, method, status, transaction_id, created_at FROM payments WHERE booking_id = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &rows, query, bookingID); err != nil {
		return nil, fmt.Errorf("支払い記録取得に失敗: %w", err)
	}
	payments := make([]*payment.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].toEntity()
	}
	return payments, nil
}

var _ payment.Repository = (*PaymentRepository)(nil)
