package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/rajanshah23/Theatre-Booking-System/internal/api"
	"github.com/rajanshah23/Theatre-Booking-System/internal/api/middleware"
	"github.com/rajanshah23/Theatre-Booking-System/internal/application"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/ticket"
)

// MockBookingService はBookingServiceInterfaceのモック
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, input application.CreateBookingInput) (*application.CreateBookingOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.CreateBookingOutput), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, id string, actor application.Actor) (*booking.Booking, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) GetTicket(ctx context.Context, id string, actor application.Actor) (*ticket.Ticket, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockBookingService) ListUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingService) ListPayments(ctx context.Context, bookingID string, actor application.Actor) ([]*payment.Payment, error) {
	args := m.Called(ctx, bookingID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *MockBookingService) ConfirmBooking(ctx context.Context, id string, actor application.Actor) (*booking.Booking, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, id string, actor application.Actor) (*booking.Booking, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

// MockPaymentService はPaymentServiceInterfaceのモック
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

// MockSeatService はSeatServiceInterfaceのモック
type MockSeatService struct {
	mock.Mock
}

func (m *MockSeatService) ListAvailableSeats(ctx context.Context, showID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatService) ListSeats(ctx context.Context, showID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatService) CountAvailableSeats(ctx context.Context, showID string) (int, error) {
	args := m.Called(ctx, showID)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatService) SeedSeats(ctx context.Context, showID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

// requestSpec はテスト用リクエストの組み立て情報
type requestSpec struct {
	method string
	route  string // 例: /bookings/:id
	target string // 例: /bookings/b-1
	body   string
	userID string
	role   string
}

// serve はルートを1つだけ登録したEchoでリクエストを処理する
// userID を指定した場合は Identity ミドルウェアを通す
func serve(spec requestSpec, h echo.HandlerFunc) *httptest.ResponseRecorder {
	e := api.NewEcho()
	if spec.userID != "" {
		e.Add(spec.method, spec.route, h, middleware.Identity(""))
	} else {
		e.Add(spec.method, spec.route, h)
	}

	req := httptest.NewRequest(spec.method, spec.target, strings.NewReader(spec.body))
	if spec.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if spec.userID != "" {
		req.Header.Set(middleware.HeaderUserID, spec.userID)
	}
	if spec.role != "" {
		req.Header.Set(middleware.HeaderUserRole, spec.role)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
