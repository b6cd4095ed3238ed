package payment

import "errors"

// Payment ドメインのエラー定義
var (
	ErrUnknownMethod     = errors.New("不明な支払い方法です")
	ErrGateway           = errors.New("決済ゲートウェイでエラーが発生しました")
	ErrPaymentNotFound   = errors.New("支払いが見つかりません")
	ErrBookingIDRequired = errors.New("予約IDは必須です")
	ErrInvalidAmount     = errors.New("金額が不正です")
	ErrInvalidStatus     = errors.New("支払い状態が不正です")
)
