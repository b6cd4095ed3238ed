package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/rajanshah23/Theatre-Booking-System/internal/config"
)

const (
	codeUniqueViolation = "23505"

	connectTimeout = 5 * time.Second
)

// NewConnection は接続プールを設定したうえで疎通を確認する
func NewConnection(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("データベース設定が不正です: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLife)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := Ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベース(%s:%s/%s)への接続に失敗: %w", cfg.Host, cfg.Port, cfg.DBName, err)
	}
	return db, nil
}

func Ping(ctx context.Context, db *sqlx.DB) error {
	return db.PingContext(ctx)
}

// validIDs は uuid として解釈できるIDだけを残す
// uuid[] に不正な値が混ざるとクエリ全体が失敗する
func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isValidID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
