package seat

import (
	"context"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

// Repository は座席ストアのインターフェース
type Repository interface {
	// ListAvailable は公演の空席を行→番号順で取得する（更新しない）
	ListAvailable(ctx context.Context, showID string) ([]*Seat, error)
	// ListByShow は公演の全座席を取得する
	ListByShow(ctx context.Context, showID string) ([]*Seat, error)
	// ListByBooking は予約に紐付く座席を取得する
	ListByBooking(ctx context.Context, bookingID string) ([]*Seat, error)
	// CountAvailable は公演の空席数を取得する
	CountAvailable(ctx context.Context, showID string) (int, error)
	// LockAndFetch は指定IDのうち空席のものを行ロック付きで取得する（トランザクション必須）
	// 要求数より少ない件数が返ることがあるため、呼び出し側で件数を確認すること
	LockAndFetch(ctx context.Context, tx transaction.Tx, showID string, seatIDs []string) ([]*Seat, error)
	// MarkOccupied は座席を予約に紐付ける（冪等、トランザクション必須）
	MarkOccupied(ctx context.Context, tx transaction.Tx, seatIDs []string, bookingID string) error
	// MarkFree は指定予約に紐付く座席を解放する（冪等、トランザクション必須）
	// 他の予約が保持している座席には触れない
	MarkFree(ctx context.Context, tx transaction.Tx, seatIDs []string, bookingID string) error
	// Seed は公演の座席を生成する。既に座席がある場合は ErrAlreadySeeded
	Seed(ctx context.Context, showID string, totalSeats, perRow int) ([]*Seat, error)
}
