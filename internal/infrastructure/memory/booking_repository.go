package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

// ErrDuplicatePaymentReference は決済参照が他の予約で使用済みの場合のエラー
var ErrDuplicatePaymentReference = errors.New("決済参照は既に使用されています")

// BookingRepository は予約台帳のインメモリ実装
type BookingRepository struct{ store *Store }

func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	mtx, err := r.store.unwrap(tx)
	if err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	b.ID = uuid.NewString()
	if err := mtx.lock(ctx, bookingKey(b.ID)); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.bookings[b.ID] = cloneBooking(b)
	id := b.ID
	mtx.hideBooking(id, nil)
	mtx.record(func() { delete(r.store.bookings, id) })
	return nil
}

// Transition は Lifecycle Policy が許す遷移元に限って状態を変える
func (r *BookingRepository) Transition(ctx context.Context, tx transaction.Tx, id string, from []booking.Status, to booking.Status) (*booking.Booking, error) {
	mtx, err := r.store.unwrap(tx)
	if err != nil {
		return nil, err
	}
	if from, err = booking.PermittedSources(from, to); err != nil {
		return nil, err
	}
	if err := mtx.lock(ctx, bookingKey(id)); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	if !containsStatus(from, b.Status) {
		return nil, booking.ErrInvalidTransition
	}
	mtx.hideBooking(id, b)
	prev := cloneBooking(b)
	b.Status = to
	b.UpdatedAt = time.Now()
	mtx.record(func() { r.store.bookings[id] = prev })
	return cloneBooking(b), nil
}

func (r *BookingRepository) AttachPaymentReference(ctx context.Context, id, reference string) error {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	mtx := tx.(*Tx)
	if err := mtx.lock(ctx, bookingKey(id)); err != nil {
		return err
	}

	r.store.mu.Lock()
	b, ok := r.store.bookings[id]
	switch {
	case !ok:
		r.store.mu.Unlock()
		return booking.ErrBookingNotFound
	case !b.IsPending():
		r.store.mu.Unlock()
		return booking.ErrInvalidTransition
	}
	for otherID, other := range r.store.bookings {
		if otherID != id && other.PaymentReference != nil && *other.PaymentReference == reference {
			r.store.mu.Unlock()
			return ErrDuplicatePaymentReference
		}
	}
	ref := reference
	b.PaymentReference = &ref
	b.UpdatedAt = time.Now()
	r.store.mu.Unlock()

	return tx.Commit()
}

func (r *BookingRepository) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b := r.store.committedBooking(id)
	if b == nil {
		return nil, booking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) FindWithSeats(ctx context.Context, id string) (*booking.Booking, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Seats = r.store.Seats().list(func(s *seat.Seat) bool { return s.HeldBy(id) })
	return b, nil
}

func (r *BookingRepository) FindByPaymentReference(_ context.Context, reference string) (*booking.Booking, error) {
	if reference == "" {
		return nil, booking.ErrBookingNotFound
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id := range r.store.bookings {
		b := r.store.committedBooking(id)
		if b != nil && b.PaymentReference != nil && *b.PaymentReference == reference {
			return cloneBooking(b), nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

func (r *BookingRepository) ListByUser(_ context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	bookings := r.filter(func(b *booking.Booking) bool { return b.UserID == userID })
	// 新しい順
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return paginate(bookings, limit, offset), nil
}

func (r *BookingRepository) ListExpiredPending(_ context.Context, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	bookings := r.filter(func(b *booking.Booking) bool {
		return b.IsPending() && b.CreatedAt.Before(cutoff)
	})
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})
	return paginate(bookings, limit, 0), nil
}

func (r *BookingRepository) filter(match func(*booking.Booking) bool) []*booking.Booking {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	bookings := make([]*booking.Booking, 0)
	for id := range r.store.bookings {
		if b := r.store.committedBooking(id); b != nil && match(b) {
			bookings = append(bookings, cloneBooking(b))
		}
	}
	// map の走査順に依存しないよう ID で並べておく
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID < bookings[j].ID })
	return bookings
}

func containsStatus(statuses []booking.Status, s booking.Status) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

var _ booking.Repository = (*BookingRepository)(nil)
