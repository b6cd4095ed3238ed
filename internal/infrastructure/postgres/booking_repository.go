package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

type bookingRow struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	ShowID           string     `db:"show_id"`
	SeatCount        int        `db:"seat_count"`
	Status           string     `db:"status"`
	PaymentMethod    string     `db:"payment_method"`
	TotalAmount      int        `db:"total_amount"`
	PaymentReference *string    `db:"payment_reference"`
	ShowStartsAt     *time.Time `db:"show_starts_at"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (r *bookingRow) toEntity() (*booking.Booking, error) {
	status, err := booking.ParseStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("予約 %s: %w", r.ID, err)
	}
	return &booking.Booking{
		ID: r.ID, UserID: r.UserID, ShowID: r.ShowID,
		SeatCount: r.SeatCount, Status: status,
		PaymentMethod: payment.Method(r.PaymentMethod), TotalAmount: r.TotalAmount,
		PaymentReference: r.PaymentReference, ShowStartsAt: r.ShowStartsAt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}, nil
}

func toBookings(rows []bookingRow) ([]*booking.Booking, error) {
	bookings := make([]*booking.Booking, len(rows))
	for i := range rows {
		b, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		bookings[i] = b
	}
	return bookings, nil
}

const bookingColumns = `id, user_id, show_id, seat_count, status, payment_method, total_amount, payment_reference, show_starts_at, created_at, updated_at`

// BookingRepository は予約台帳のPostgreSQL実装
type BookingRepository struct{ db *sqlx.DB }

// NewBookingRepository は新しい BookingRepository を作成する
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO bookings (user_id, show_id, seat_count, status, payment_method, total_amount, show_starts_at, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := sqlTx.QueryRowContext(ctx, query, b.UserID, b.ShowID, b.SeatCount, string(b.Status), string(b.PaymentMethod), b.TotalAmount, b.ShowStartsAt, b.CreatedAt, b.UpdatedAt).Scan(&b.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

// Transition は条件付きUPDATEで状態を遷移させる
// 遷移元は Lifecycle Policy で絞り込んでから WHERE に渡す
// UPDATE が予約行をロックするため、並行する遷移は後続側が条件不一致で失敗する
func (r *BookingRepository) Transition(ctx context.Context, tx transaction.Tx, id string, from []booking.Status, to booking.Status) (*booking.Booking, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	if from, err = booking.PermittedSources(from, to); err != nil {
		return nil, err
	}
	if !isValidID(id) {
		return nil, booking.ErrBookingNotFound
	}
	sources := make([]string, 0, len(from)+1)
	for _, s := range from {
		sources = append(sources, string(s))
		if s == booking.StatusConfirmed {
			// 旧データの booked も確定として扱う
			sources = append(sources, "booked")
		}
	}

	var row bookingRow
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = ANY($3) RETURNING ` + bookingColumns
	err = sqlTx.GetContext(ctx, &row, query, string(to), id, pq.Array(sources))
	if err == nil {
		return row.toEntity()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("予約状態の更新に失敗: %w", err)
	}

	var exists bool
	if err := sqlTx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id); err != nil {
		return nil, fmt.Errorf("予約存在確認に失敗: %w", err)
	}
	if !exists {
		return nil, booking.ErrBookingNotFound
	}
	return nil, booking.ErrInvalidTransition
}

func (r *BookingRepository) AttachPaymentReference(ctx context.Context, id, reference string) error {
	if !isValidID(id) {
		return booking.ErrBookingNotFound
	}
	query := `UPDATE bookings SET payment_reference = $1, updated_at = NOW() WHERE id = $2 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, reference, id)
	if err != nil {
		return fmt.Errorf("決済参照の記録に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrInvalidTransition
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	if !isValidID(id) {
		return nil, booking.ErrBookingNotFound
	}
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *BookingRepository) FindWithSeats(ctx context.Context, id string) (*booking.Booking, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+seatColumns+` FROM seats WHERE booking_id = $1 `+seatOrder, id); err != nil {
		return nil, fmt.Errorf("予約座席取得に失敗: %w", err)
	}
	b.Seats = toSeats(rows)
	return b, nil
}

func (r *BookingRepository) FindByPaymentReference(ctx context.Context, reference string) (*booking.Booking, error) {
	if reference == "" {
		return nil, booking.ErrBookingNotFound
	}
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_reference = $1`, reference)
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	return toBookings(rows)
}

func (r *BookingRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = 'pending' AND created_at < $1 ORDER BY created_at LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("期限切れ予約取得に失敗: %w", err)
	}
	return toBookings(rows)
}

func (r *BookingRepository) getOne(ctx context.Context, query string, args ...interface{}) (*booking.Booking, error) {
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity()
}

var _ booking.Repository = (*BookingRepository)(nil)
