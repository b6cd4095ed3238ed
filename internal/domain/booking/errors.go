package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrInvalidRequest     = errors.New("リクエストが不正です")
	ErrBookingNotFound    = errors.New("予約が見つかりません")
	ErrSeatConflict       = errors.New("指定された座席は既に予約されています")
	ErrInvalidTransition  = errors.New("予約の状態を変更できません")
	ErrForbidden          = errors.New("この予約を操作する権限がありません")
	ErrAlreadyCancelled   = errors.New("予約は既にキャンセルされています")
	ErrShowAlreadyStarted = errors.New("公演開始後はキャンセルできません")
	ErrNotConfirmed       = errors.New("予約は確定されていません")
	ErrNoPaymentReference = errors.New("予約に決済参照がありません")
	ErrUnknownStatus      = errors.New("不明な予約状態です")
	ErrUserIDRequired     = errors.New("ユーザーIDは必須です")
	ErrShowIDRequired     = errors.New("公演IDは必須です")
	ErrSeatIDsRequired    = errors.New("座席IDは必須です")
)
