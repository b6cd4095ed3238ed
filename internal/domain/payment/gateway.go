package payment

import "context"

// ExternalStatus は決済ゲートウェイが返す支払い結果
type ExternalStatus string

const (
	ExternalSuccess ExternalStatus = "success"
	ExternalPending ExternalStatus = "pending"
	ExternalFailed  ExternalStatus = "failed"
)

// IsTerminal は結果が確定済み（成功または失敗）かを返す
func (s ExternalStatus) IsTerminal() bool {
	return s == ExternalSuccess || s == ExternalFailed
}

// InitiateRequest は決済開始のリクエスト
type InitiateRequest struct {
	Amount    int // 通貨単位
	OrderID   string
	OrderName string
}

// InitiateResult は決済開始の結果
type InitiateResult struct {
	Reference   string
	RedirectURL string
}

// LookupResult は決済照会の結果
type LookupResult struct {
	Reference     string
	Status        ExternalStatus
	Amount        int // 通貨単位
	TransactionID string
}

// Gateway は外部決済ゲートウェイのポート
// 応答は信頼できず、再送・遅延がありうる前提で扱う
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Lookup(ctx context.Context, reference string) (*LookupResult, error)
}
