package application

import "github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"

// RoleAdmin は管理者ロール
const RoleAdmin = "admin"

// Actor は認証済みの操作者（ユーザーIDとロール）
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// canAccess は予約の所有者または管理者かを返す
func (a Actor) canAccess(b *booking.Booking) bool {
	return a.IsAdmin() || b.IsOwnedBy(a.UserID)
}
