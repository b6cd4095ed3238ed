package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
)

type showRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	StartsAt   time.Time `db:"starts_at"`
	TotalSeats int       `db:"total_seats"`
	Price      int       `db:"price"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *showRow) toEntity() *show.Show {
	return &show.Show{
		ID: r.ID, Title: r.Title, StartsAt: r.StartsAt,
		TotalSeats: r.TotalSeats, Price: r.Price,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const showColumns = `id, title, starts_at, total_seats, price, created_at, updated_at`

// ShowRepository は公演のPostgreSQL実装
type ShowRepository struct{ db *sqlx.DB }

// NewShowRepository は新しい ShowRepository を作成する
func NewShowRepository(db *sqlx.DB) *ShowRepository { return &ShowRepository{db: db} }

func (r *ShowRepository) Create(ctx context.Context, s *show.Show) error {
	if err := s.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO shows (title, starts_at, total_seats, price, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, s.Title, s.StartsAt, s.TotalSeats, s.Price, s.CreatedAt, s.UpdatedAt).Scan(&s.ID); err != nil {
		return fmt.Errorf("公演作成に失敗: %w", err)
	}
	return nil
}

func (r *ShowRepository) GetByID(ctx context.Context, id string) (*show.Show, error) {
	if !isValidID(id) {
		return nil, show.ErrShowNotFound
	}
	var row showRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+showColumns+` FROM shows WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, show.ErrShowNotFound
		}
		return nil, fmt.Errorf("公演取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ShowRepository) List(ctx context.Context, limit, offset int) ([]*show.Show, error) {
	var rows []showRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+showColumns+` FROM shows ORDER BY starts_at, id LIMIT $1 OFFSET $2`, limit, offset); err != nil {
		return nil, fmt.Errorf("公演一覧取得に失敗: %w", err)
	}
	shows := make([]*show.Show, len(rows))
	for i := range rows {
		shows[i] = rows[i].toEntity()
	}
	return shows, nil
}

var _ show.Repository = (*ShowRepository)(nil)
