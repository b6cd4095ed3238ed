package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound          = errors.New("座席が見つかりません")
	ErrAlreadySeeded         = errors.New("この公演の座席は既に作成されています")
	ErrInvalidSeatCount      = errors.New("座席数は1以上である必要があります")
	ErrInvalidRowWidth       = errors.New("1行あたりの座席数は1以上である必要があります")
	ErrTooManySeats          = errors.New("座席数が行ラベルの上限を超えています")
	ErrShowIDRequired        = errors.New("公演IDは必須です")
	ErrLabelRequired         = errors.New("座席ラベルは必須です")
	ErrInconsistentOccupancy = errors.New("座席の予約状態と予約IDが一致しません")
)
