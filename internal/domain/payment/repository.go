package payment

import (
	"context"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

// Repository は支払い記録のリポジトリ
// 記録は追記のみで、失敗した支払いを書き換えることはない
type Repository interface {
	// Create は支払い記録を追加する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, p *Payment) error
	// ListByBooking は予約の支払い記録を作成順に取得する
	ListByBooking(ctx context.Context, bookingID string) ([]*Payment, error)
}
