package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約作成の結果（result: confirmed, pending, conflict, lock_failed, gateway_error, error）
	BookingsTotal *prometheus.CounterVec

	// 予約の状態遷移（from, to）
	BookingTransitionsTotal *prometheus.CounterVec

	// 決済コールバックの結果（result: confirmed, failed, pending, noop, error）
	PaymentCallbacksTotal *prometheus.CounterVec

	// スイーパーが回収した期限切れ予約数
	ExpiredBookingsReclaimed prometheus.Counter

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking attempts by result",
			},
			[]string{"result"},
		),
		BookingTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_transitions_total",
				Help: "Total number of booking status transitions",
			},
			[]string{"from", "to"},
		),
		PaymentCallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_callbacks_total",
				Help: "Total number of payment confirmation callbacks by result",
			},
			[]string{"result"},
		),
		ExpiredBookingsReclaimed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "expired_bookings_reclaimed_total",
				Help: "Total number of stale pending bookings reclaimed by the sweeper",
			},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.BookingTransitionsTotal,
		m.PaymentCallbacksTotal,
		m.ExpiredBookingsReclaimed,
		m.DistributedLockDuration,
	)

	return m
}

// 以下の記録用メソッドは nil レシーバでも安全に呼べる

// RecordBooking は予約作成の結果を記録する
func (m *Metrics) RecordBooking(result string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(result).Inc()
}

// RecordTransition は状態遷移を記録する
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.BookingTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordCallback は決済コールバックの結果を記録する
func (m *Metrics) RecordCallback(result string) {
	if m == nil {
		return
	}
	m.PaymentCallbacksTotal.WithLabelValues(result).Inc()
}

// RecordReclaimed はスイーパーが回収した件数を記録する
func (m *Metrics) RecordReclaimed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ExpiredBookingsReclaimed.Add(float64(n))
}

// ObserveHTTP はHTTPリクエストの件数とレイテンシを記録する
func (m *Metrics) ObserveHTTP(method, route string, status int, started time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
}

// ObserveLock は分散ロック操作の所要時間を記録する
func (m *Metrics) ObserveLock(operation, status string, started time.Time) {
	if m == nil {
		return
	}
	m.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
