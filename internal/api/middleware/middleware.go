package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/metrics"
)

// SetupMiddleware は全ルート共通のミドルウェアを積む
// RequestLogger がエラーを確定させるので、Prometheus はその外側に置く
// m が nil ならHTTPメトリクスは取らない
func SetupMiddleware(e *echo.Echo, m *metrics.Metrics) {
	chain := []echo.MiddlewareFunc{RequestIDMiddleware()}
	if m != nil {
		chain = append(chain, PrometheusMiddleware(m))
	}
	chain = append(chain,
		RequestLogger(),
		middleware.Recover(),
		middleware.CORSWithConfig(corsConfig()),
	)
	e.Use(chain...)
}

// corsConfig は利用者・役割ヘッダーを許可する
func corsConfig() middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestID,
			HeaderUserID,
			HeaderUserRole,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}
}
