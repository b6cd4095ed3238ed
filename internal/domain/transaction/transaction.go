// Package transaction はアトミックスコープの抽象を提供する
// 座席の確保・予約の遷移・支払いの記録はすべてこの単位でまとめてコミットされる
package transaction

import (
	"context"
	"fmt"
)

// Tx はアトミックスコープ内の書き込みをまとめる
type Tx interface {
	Commit() error
	// Rollback はコミット後に呼ばれた場合は何もしない
	Rollback() error
}

// Manager はアトミックスコープを開始する
type Manager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Run は fn を1つのアトミックスコープ内で実行する
// fn がエラーを返すとロールバックされ、そのエラーがそのまま返る
func Run(ctx context.Context, m Manager, fn func(tx Tx) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}
