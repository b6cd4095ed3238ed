package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

// SeatRepository は座席ストアのインメモリ実装
type SeatRepository struct{ store *Store }

func (r *SeatRepository) ListAvailable(_ context.Context, showID string) ([]*seat.Seat, error) {
	return r.list(func(s *seat.Seat) bool { return s.ShowID == showID && !s.Occupied }), nil
}

func (r *SeatRepository) ListByShow(_ context.Context, showID string) ([]*seat.Seat, error) {
	return r.list(func(s *seat.Seat) bool { return s.ShowID == showID }), nil
}

func (r *SeatRepository) ListByBooking(_ context.Context, bookingID string) ([]*seat.Seat, error) {
	return r.list(func(s *seat.Seat) bool { return s.HeldBy(bookingID) }), nil
}

func (r *SeatRepository) CountAvailable(_ context.Context, showID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, s := range r.store.seats {
		s = r.store.committedSeat(s)
		if s.ShowID == showID && !s.Occupied {
			count++
		}
	}
	return count, nil
}

func (r *SeatRepository) list(match func(*seat.Seat) bool) []*seat.Seat {
	r.store.mu.Lock()
	seats := make([]*seat.Seat, 0)
	for _, s := range r.store.seats {
		if s = r.store.committedSeat(s); match(s) {
			seats = append(seats, cloneSeat(s))
		}
	}
	r.store.mu.Unlock()

	sort.Slice(seats, func(i, j int) bool { return seat.Less(seats[i], seats[j]) })
	return seats
}

// LockAndFetch は公演に属する指定座席の行ロックを取得し、空席のものだけを返す
// ロックはトランザクション終了まで保持される
func (r *SeatRepository) LockAndFetch(ctx context.Context, tx transaction.Tx, showID string, seatIDs []string) ([]*seat.Seat, error) {
	mtx, err := r.store.unwrap(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	keys := make([]string, 0, len(seatIDs))
	ids := make([]string, 0, len(seatIDs))
	seen := make(map[string]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s, ok := r.store.seats[id]; ok && s.ShowID == showID {
			keys = append(keys, seatKey(id))
			ids = append(ids, id)
		}
	}
	r.store.mu.Unlock()

	if err := mtx.lock(ctx, keys...); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seats := make([]*seat.Seat, 0, len(ids))
	for _, id := range ids {
		if s := r.store.seats[id]; !s.Occupied {
			seats = append(seats, cloneSeat(s))
		}
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].ID < seats[j].ID })
	return seats, nil
}

func (r *SeatRepository) MarkOccupied(ctx context.Context, tx transaction.Tx, seatIDs []string, bookingID string) error {
	mtx, err := r.store.unwrap(tx)
	if err != nil {
		return err
	}
	if len(seatIDs) == 0 {
		return nil
	}
	if err := mtx.lock(ctx, seatKeys(seatIDs)...); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range seatIDs {
		s, ok := r.store.seats[id]
		if !ok || (s.Occupied && !s.HeldBy(bookingID)) {
			return seat.ErrSeatNotFound
		}
	}
	now := time.Now()
	for _, id := range seatIDs {
		s := r.store.seats[id]
		mtx.hideSeat(s)
		prev := cloneSeat(s)
		s.Occupy(bookingID)
		s.UpdatedAt = now
		mtx.record(func() { r.store.seats[id] = prev })
	}
	return nil
}

func (r *SeatRepository) MarkFree(ctx context.Context, tx transaction.Tx, seatIDs []string, bookingID string) error {
	mtx, err := r.store.unwrap(tx)
	if err != nil {
		return err
	}
	if len(seatIDs) == 0 {
		return nil
	}
	if err := mtx.lock(ctx, seatKeys(seatIDs)...); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range seatIDs {
		s, ok := r.store.seats[id]
		if !ok || !s.HeldBy(bookingID) {
			continue
		}
		mtx.hideSeat(s)
		prev := cloneSeat(s)
		s.Free()
		mtx.record(func() { r.store.seats[id] = prev })
	}
	return nil
}

func (r *SeatRepository) Seed(_ context.Context, showID string, totalSeats, perRow int) ([]*seat.Seat, error) {
	seats, err := seat.NewLayout(showID, totalSeats, perRow)
	if err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.shows[showID]; !ok {
		return nil, show.ErrShowNotFound
	}
	for _, s := range r.store.seats {
		if s.ShowID == showID {
			return nil, seat.ErrAlreadySeeded
		}
	}
	for _, s := range seats {
		s.ID = uuid.NewString()
		r.store.seats[s.ID] = cloneSeat(s)
	}
	return seats, nil
}

func seatKeys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = seatKey(id)
	}
	return keys
}

var _ seat.Repository = (*SeatRepository)(nil)
