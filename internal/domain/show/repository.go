package show

import "context"

// Repository は公演リポジトリのインターフェース
type Repository interface {
	// Create は新しい公演を作成する（シード・テスト用）
	Create(ctx context.Context, show *Show) error
	// GetByID はIDから公演を取得する
	GetByID(ctx context.Context, id string) (*Show, error)
	// List は公演一覧を開始時刻順に取得する
	List(ctx context.Context, limit, offset int) ([]*Show, error)
}
