package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/transaction"
)

// PaymentRepository は支払い記録のインメモリ実装
type PaymentRepository struct{ store *Store }

func (r *PaymentRepository) Create(_ context.Context, tx transaction.Tx, p *payment.Payment) error {
	mtx, err := r.store.unwrap(tx)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = uuid.NewString()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.payments = append(r.store.payments, clonePayment(p))
	id := p.ID
	mtx.hidePayment(id)
	mtx.record(func() {
		for i, stored := range r.store.payments {
			if stored.ID == id {
				r.store.payments = append(r.store.payments[:i], r.store.payments[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *PaymentRepository) ListByBooking(_ context.Context, bookingID string) ([]*payment.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	payments := make([]*payment.Payment, 0)
	for _, p := range r.store.payments {
		if _, hidden := r.store.paymentsHidden[p.ID]; !hidden && p.BookingID == bookingID {
			payments = append(payments, clonePayment(p))
		}
	}
	return payments, nil
}

var _ payment.Repository = (*PaymentRepository)(nil)
