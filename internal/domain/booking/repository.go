package booking

import (
	"context"
	"time"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

// Repository は予約台帳のインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// Transition は現在の状態が from に含まれる場合のみ to へ遷移させる（トランザクション必須）
	// 状態を変更する唯一の手段。条件に合わない場合は ErrInvalidTransition
	Transition(ctx context.Context, tx transaction.Tx, id string, from []Status, to Status) (*Booking, error)

	// AttachPaymentReference は保留中の予約に外部決済の参照を記録する
	AttachPaymentReference(ctx context.Context, id, reference string) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// FindWithSeats は予約と紐付く座席を取得する
	FindWithSeats(ctx context.Context, id string) (*Booking, error)

	// FindByPaymentReference は外部決済の参照から予約を取得する
	FindByPaymentReference(ctx context.Context, reference string) (*Booking, error)

	// ListByUser はユーザーの予約を新しい順に取得する
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Booking, error)

	// ListExpiredPending は cutoff より前に作成された保留中の予約を古い順に取得する
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*Booking, error)
}
