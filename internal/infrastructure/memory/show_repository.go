package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
)

// ShowRepository は公演のインメモリ実装
type ShowRepository struct{ store *Store }

func (r *ShowRepository) Create(_ context.Context, s *show.Show) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.shows[s.ID] = cloneShow(s)
	return nil
}

func (r *ShowRepository) GetByID(_ context.Context, id string) (*show.Show, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.shows[id]
	if !ok {
		return nil, show.ErrShowNotFound
	}
	return cloneShow(s), nil
}

func (r *ShowRepository) List(_ context.Context, limit, offset int) ([]*show.Show, error) {
	r.store.mu.Lock()
	shows := make([]*show.Show, 0, len(r.store.shows))
	for _, s := range r.store.shows {
		shows = append(shows, cloneShow(s))
	}
	r.store.mu.Unlock()

	sort.Slice(shows, func(i, j int) bool {
		if !shows[i].StartsAt.Equal(shows[j].StartsAt) {
			return shows[i].StartsAt.Before(shows[j].StartsAt)
		}
		return shows[i].ID < shows[j].ID
	})
	return paginate(shows, limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var _ show.Repository = (*ShowRepository)(nil)
