package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

// ErrForeignTx はメモリストアなど別実装のトランザクションを受け取ったときのエラー
var ErrForeignTx = errors.New("PostgreSQL以外のトランザクションが渡されました")

// pgTx は sqlx.Tx に transaction.Tx を実装させる
// Commit は埋め込みの sqlx.Tx がそのまま満たす
type pgTx struct {
	*sqlx.Tx
}

// Rollback はコミット済みなら何もしない。transaction.Run の defer から呼ばれる
func (t pgTx) Rollback() error {
	err := t.Tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

type TxManager struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

// NewTxManager は READ COMMITTED でトランザクションを張る
// 座席の二重予約は SELECT ... FOR UPDATE の行ロックで防ぐ
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db, opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted}}
}

func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, m.opts)
	if err != nil {
		return nil, fmt.Errorf("BEGIN に失敗: %w", err)
	}
	return pgTx{Tx: tx}, nil
}

// UnwrapTx はリポジトリが SQL を流すための sqlx.Tx を取り出す
func UnwrapTx(tx transaction.Tx) (*sqlx.Tx, error) {
	if t, ok := tx.(pgTx); ok && t.Tx != nil {
		return t.Tx, nil
	}
	return nil, ErrForeignTx
}

var _ transaction.Manager = (*TxManager)(nil)
