package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rajanshah23/Theatre-Booking-System/internal/config"
)

// MetricsBasicAuth は /metrics エンドポイント用の Basic 認証ミドルウェア
// ユーザーとパスワードの両方が設定されている場合のみ認証を要求する
// 設定されていない場合は認証をスキップ（ローカル開発用）
func MetricsBasicAuth(cfg config.MetricsConfig) echo.MiddlewareFunc {
	if !cfg.IsEnabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	expectedUser := []byte(cfg.User)
	expectedPass := []byte(cfg.Password)
	return middleware.BasicAuth(func(username, password string, c echo.Context) (bool, error) {
		// タイミング攻撃を防ぐため ConstantTimeCompare を使用
		userMatch := subtle.ConstantTimeCompare([]byte(username), expectedUser) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(password), expectedPass) == 1

		return userMatch && passMatch, nil
	})
}
