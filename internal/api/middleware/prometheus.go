package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/metrics"
)

const (
	metricsPath = "/metrics"
	// ルートに一致しなかったリクエストのラベル（予約IDなどでラベルが増え続けないようにする）
	unmatchedRoute = "unmatched"
)

// PrometheusMiddleware はルート単位でHTTPメトリクスを収集する
// /metrics 自身へのスクレイプは記録しない
func PrometheusMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == metricsPath {
				return next(c)
			}

			started := time.Now()
			err := next(c)

			if route == "" {
				route = unmatchedRoute
			}
			m.ObserveHTTP(c.Request().Method, route, responseStatus(c, err), started)
			return err
		}
	}
}

// responseStatus は内側のミドルウェアが返したエラーも含めて最終ステータスを求める
func responseStatus(c echo.Context, err error) int {
	var he *echo.HTTPError
	if err != nil && errors.As(err, &he) {
		return he.Code
	}
	if err != nil && !c.Response().Committed {
		return http.StatusInternalServerError
	}
	return c.Response().Status
}
