// Package router はHTTPサーバーのルーティングとミドルウェアを組み立てる
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rajanshah23/Theatre-Booking-System/internal/api"
	"github.com/rajanshah23/Theatre-Booking-System/internal/api/handler"
	"github.com/rajanshah23/Theatre-Booking-System/internal/api/middleware"
	"github.com/rajanshah23/Theatre-Booking-System/internal/config"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/metrics"
)

// Deps はルーティングに必要な依存
type Deps struct {
	BookingService handler.BookingServiceInterface
	PaymentService handler.PaymentServiceInterface
	SeatService    handler.SeatServiceInterface
	HealthChecks   []handler.HealthCheck

	Auth        config.AuthConfig
	MetricsAuth config.MetricsConfig

	// Metrics が nil の場合はHTTPメトリクスを収集しない
	Metrics *metrics.Metrics
	// Gatherer が nil の場合はデフォルトレジストリを公開する
	Gatherer prometheus.Gatherer
}

// New はルーティング済みの Echo を作成する
func New(d Deps) *echo.Echo {
	e := api.NewEcho()
	middleware.SetupMiddleware(e, d.Metrics)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
		middleware.MetricsBasicAuth(d.MetricsAuth))

	healthHandler := handler.NewHealthHandler(d.HealthChecks...)
	bookingHandler := handler.NewBookingHandler(d.BookingService)
	paymentHandler := handler.NewPaymentHandler(d.PaymentService)
	seatHandler := handler.NewSeatHandler(d.SeatService)

	e.GET("/health", healthHandler.Check)

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)

	// 空席照会と決済コールバックは認証不要
	v1.GET("/shows/:id/seats", seatHandler.ListAll)
	v1.GET("/shows/:id/seats/available", seatHandler.ListAvailable)
	v1.GET("/shows/:id/seats/available/count", seatHandler.CountAvailable)
	v1.POST("/payments/khalti/callback", paymentHandler.KhaltiCallback)
	v1.GET("/payments/khalti/callback", paymentHandler.KhaltiCallback)

	identity := middleware.Identity(d.Auth.JWTSecret)
	v1.POST("/shows/:id/bookings", bookingHandler.Create, identity)
	v1.POST("/shows/:id/seats/seed", seatHandler.Seed, identity, middleware.RequireAdmin())
	v1.GET("/users/me/bookings", bookingHandler.ListMine, identity)
	v1.GET("/bookings/:id", bookingHandler.GetByID, identity)
	v1.GET("/bookings/:id/ticket", bookingHandler.GetTicket, identity)
	v1.GET("/bookings/:id/payments", bookingHandler.ListPayments, identity)
	v1.PATCH("/bookings/:id/confirm", bookingHandler.Confirm, identity)
	v1.DELETE("/bookings/:id", bookingHandler.Cancel, identity)

	return e
}
