package show

import "errors"

// Show ドメインのエラー定義
var (
	ErrShowNotFound      = errors.New("公演が見つかりません")
	ErrTitleRequired     = errors.New("公演タイトルは必須です")
	ErrInvalidTotalSeats = errors.New("座席数は1以上である必要があります")
	ErrInvalidPrice      = errors.New("価格は1以上である必要があります")
)
