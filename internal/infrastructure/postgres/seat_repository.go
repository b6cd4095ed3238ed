package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

type seatRow struct {
	ID         string    `db:"id"`
	ShowID     string    `db:"show_id"`
	Label      string    `db:"label"`
	RowLabel   string    `db:"row_label"`
	SeatNumber int       `db:"seat_number"`
	IsOccupied bool      `db:"is_occupied"`
	BookingID  *string   `db:"booking_id"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, ShowID: r.ShowID, Label: r.Label,
		Row: r.RowLabel, Number: r.SeatNumber,
		Occupied: r.IsOccupied, BookingID: r.BookingID,
		UpdatedAt: r.UpdatedAt,
	}
}

func toSeats(rows []seatRow) []*seat.Seat {
	seats := make([]*seat.Seat, len(rows))
	for i := range rows {
		seats[i] = rows[i].toEntity()
	}
	return seats
}

const (
	seatColumns = `id, show_id, label, row_label, seat_number, is_occupied, booking_id, updated_at`
	seatOrder   = `ORDER BY row_label, seat_number`
)

// SeatRepository は座席ストアのPostgreSQL実装
type SeatRepository struct{ db *sqlx.DB }

// NewSeatRepository は新しい SeatRepository を作成する
func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

func (r *SeatRepository) ListAvailable(ctx context.Context, showID string) ([]*seat.Seat, error) {
	if !isValidID(showID) {
		return []*seat.Seat{}, nil
	}
	var rows []seatRow
	query := `SELECT ` + seatColumns + ` FROM seats WHERE show_id = $1 AND NOT is_occupied ` + seatOrder
	if err := r.db.SelectContext(ctx, &rows, query, showID); err != nil {
		return nil, fmt.Errorf("空席取得に失敗: %w", err)
	}
	return toSeats(rows), nil
}

func (r *SeatRepository) ListByShow(ctx context.Context, showID string) ([]*seat.Seat, error) {
	if !isValidID(showID) {
		return []*seat.Seat{}, nil
	}
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+seatColumns+` FROM seats WHERE show_id = $1 `+seatOrder, showID); err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	return toSeats(rows), nil
}

func (r *SeatRepository) ListByBooking(ctx context.Context, bookingID string) ([]*seat.Seat, error) {
	if !isValidID(bookingID) {
		return []*seat.Seat{}, nil
	}
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+seatColumns+` FROM seats WHERE booking_id = $1 `+seatOrder, bookingID); err != nil {
		return nil, fmt.Errorf("予約座席取得に失敗: %w", err)
	}
	return toSeats(rows), nil
}

func (r *SeatRepository) CountAvailable(ctx context.Context, showID string) (int, error) {
	if !isValidID(showID) {
		return 0, nil
	}
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats WHERE show_id = $1 AND NOT is_occupied`, showID)
	return count, err
}

// LockAndFetch は空席の行を FOR UPDATE でロックして取得する
// 同じ座席を狙う並行トランザクションはここでブロックし、先行側のコミット後に
// booking_id IS NULL の条件から外れるため件数不足として検出される
func (r *SeatRepository) LockAndFetch(ctx context.Context, tx transaction.Tx, showID string, seatIDs []string) ([]*seat.Seat, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	ids := validIDs(seatIDs)
	if len(ids) == 0 || !isValidID(showID) {
		return []*seat.Seat{}, nil
	}
	// ORDER BY id でロック取得順を固定しデッドロックを避ける
	query := `SELECT ` + seatColumns + ` FROM seats WHERE show_id = $1 AND id = ANY($2) AND booking_id IS NULL ORDER BY id FOR UPDATE`
	var rows []seatRow
	if err := sqlTx.SelectContext(ctx, &rows, query, showID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("座席ロックに失敗: %w", err)
	}
	return toSeats(rows), nil
}

func (r *SeatRepository) MarkOccupied(ctx context.Context, tx transaction.Tx, seatIDs []string, bookingID string) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	if len(seatIDs) == 0 {
		return nil
	}
	// 同じ予約への再実行は冪等
	query := `UPDATE seats SET is_occupied = TRUE, booking_id = $1, updated_at = NOW() WHERE id = ANY($2) AND (booking_id IS NULL OR booking_id = $1)`
	result, err := sqlTx.ExecContext(ctx, query, bookingID, pq.Array(seatIDs))
	if err != nil {
		return fmt.Errorf("座席確保に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(seatIDs) {
		return seat.ErrSeatNotFound
	}
	return nil
}

func (r *SeatRepository) MarkFree(ctx context.Context, tx transaction.Tx, seatIDs []string, bookingID string) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET is_occupied = FALSE, booking_id = NULL, updated_at = NOW() WHERE id = ANY($1) AND booking_id = $2`
	if _, err := sqlTx.ExecContext(ctx, query, pq.Array(seatIDs), bookingID); err != nil {
		return fmt.Errorf("座席解放に失敗: %w", err)
	}
	return nil
}

// Seed は公演の座席をまとめて作成する
// 並行実行時は UNIQUE(show_id, label) 違反で ErrAlreadySeeded になる
func (r *SeatRepository) Seed(ctx context.Context, showID string, totalSeats, perRow int) ([]*seat.Seat, error) {
	seats, err := seat.NewLayout(showID, totalSeats, perRow)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM seats WHERE show_id = $1)`, showID); err != nil {
		return nil, fmt.Errorf("座席存在確認に失敗: %w", err)
	}
	if exists {
		return nil, seat.ErrAlreadySeeded
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := insertSeatBatch(ctx, tx, seats[i:end]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return seats, nil
}

func insertSeatBatch(ctx context.Context, tx *sqlx.Tx, seats []*seat.Seat) error {
	const cols = 5
	query := `INSERT INTO seats (show_id, label, row_label, seat_number, updated_at) VALUES `
	args := make([]interface{}, 0, len(seats)*cols)
	placeholders := make([]string, 0, len(seats))
	for i, s := range seats {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, s.ShowID, s.Label, s.Row, s.Number, s.UpdatedAt)
	}
	query += strings.Join(placeholders, ", ") + ` RETURNING id`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return seedError(err)
	}
	defer rows.Close()

	// RETURNING は VALUES の順序で返る
	for i := 0; rows.Next() && i < len(seats); i++ {
		if err := rows.Scan(&seats[i].ID); err != nil {
			return fmt.Errorf("座席ID取得に失敗: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return seedError(err)
	}
	return nil
}

func seedError(err error) error {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return seat.ErrAlreadySeeded
	}
	return fmt.Errorf("座席一括作成に失敗: %w", err)
}

var _ seat.Repository = (*SeatRepository)(nil)
