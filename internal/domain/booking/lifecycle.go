package booking

// 許可される状態遷移
// confirmed -> cancelled は公演開始前のみ（時刻の確認は呼び出し側の責務）
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusFailed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

// CanTransition は from から to への遷移が許可されているかを返す
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedSources は to へ遷移できる状態の一覧を返す
func AllowedSources(to Status) []Status {
	var sources []Status
	for _, from := range []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusFailed} {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

// PermittedSources は from のうち to へ遷移できる状態だけを残す
// 1つも残らなければ ErrInvalidTransition
func PermittedSources(from []Status, to Status) ([]Status, error) {
	permitted := make([]Status, 0, len(from))
	for _, s := range from {
		if CanTransition(s, to) {
			permitted = append(permitted, s)
		}
	}
	if len(permitted) == 0 {
		return nil, ErrInvalidTransition
	}
	return permitted, nil
}
