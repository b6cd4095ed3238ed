package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/ticket"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockBookingRepository implements booking.Repository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) Transition(ctx context.Context, tx transaction.Tx, id string, from []booking.Status, to booking.Status) (*booking.Booking, error) {
	args := m.Called(ctx, tx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) AttachPaymentReference(ctx context.Context, id, reference string) error {
	args := m.Called(ctx, id, reference)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindWithSeats(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByPaymentReference(ctx context.Context, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

// MockSeatRepository implements seat.Repository
type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) ListAvailable(ctx context.Context, showID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) ListByShow(ctx context.Context, showID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) ListByBooking(ctx context.Context, bookingID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) CountAvailable(ctx context.Context, showID string) (int, error) {
	args := m.Called(ctx, showID)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatRepository) LockAndFetch(ctx context.Context, tx transaction.Tx, showID string, seatIDs []string) ([]*seat.Seat, error) {
	args := m.Called(ctx, tx, showID, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) MarkOccupied(ctx context.Context, tx transaction.Tx, seatIDs []string, bookingID string) error {
	args := m.Called(ctx, tx, seatIDs, bookingID)
	return args.Error(0)
}

func (m *MockSeatRepository) MarkFree(ctx context.Context, tx transaction.Tx, seatIDs []string, bookingID string) error {
	args := m.Called(ctx, tx, seatIDs, bookingID)
	return args.Error(0)
}

func (m *MockSeatRepository) Seed(ctx context.Context, showID string, totalSeats, perRow int) ([]*seat.Seat, error) {
	args := m.Called(ctx, showID, totalSeats, perRow)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

// MockShowRepository implements show.Repository
type MockShowRepository struct {
	mock.Mock
}

func (m *MockShowRepository) Create(ctx context.Context, s *show.Show) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockShowRepository) GetByID(ctx context.Context, id string) (*show.Show, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*show.Show), args.Error(1)
}

func (m *MockShowRepository) List(ctx context.Context, limit, offset int) ([]*show.Show, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*show.Show), args.Error(1)
}

// MockPaymentRepository implements payment.Repository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx transaction.Tx, p *payment.Payment) error {
	args := m.Called(ctx, tx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByBooking(ctx context.Context, bookingID string) ([]*payment.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

// MockGateway implements payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Initiate(ctx context.Context, req payment.InitiateRequest) (*payment.InitiateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.InitiateResult), args.Error(1)
}

func (m *MockGateway) Lookup(ctx context.Context, reference string) (*payment.LookupResult, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.LookupResult), args.Error(1)
}

// MockSeatLocker implements SeatLocker
type MockSeatLocker struct {
	mock.Mock
}

func (m *MockSeatLocker) LockSeats(ctx context.Context, showID string, seatIDs []string) (func(context.Context) error, error) {
	args := m.Called(ctx, showID, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

// MockSeatCache implements SeatCountCache
type MockSeatCache struct {
	mock.Mock
}

func (m *MockSeatCache) GetAvailableCount(ctx context.Context, showID string) (int, error) {
	args := m.Called(ctx, showID)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatCache) SetAvailableCount(ctx context.Context, showID string, count int, ttl time.Duration) error {
	args := m.Called(ctx, showID, count, ttl)
	return args.Error(0)
}

func (m *MockSeatCache) Invalidate(ctx context.Context, showID string) error {
	args := m.Called(ctx, showID)
	return args.Error(0)
}

// MockPublisher implements ticket.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, t *ticket.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
