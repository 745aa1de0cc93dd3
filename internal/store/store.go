// Package store keeps a viewer's local, insertion-ordered copy of the
// orders it is interested in. Pull results, push snapshots and
// optimistic mutation results all land here through the same upsert
// path, so the last writer wins; the server is always authoritative
// and out-of-order arrivals self-correct within one polling interval.
package store

import (
	"sync"

	"qrmenu-sync/internal/domain"
	"qrmenu-sync/internal/logger"
)

// Archiver persists the full store contents so a restart does not lose
// visibility into orders already placed. Only the customer viewer sets
// one.
type Archiver interface {
	Save(orders []domain.Order) error
	Load() ([]domain.Order, error)
}

type Store struct {
	mu      sync.Mutex
	orders  []domain.Order
	archive Archiver
	lg      *logger.Logger
}

func New(lg *logger.Logger) *Store { return &Store{lg: lg} }

// NewArchived returns a store that writes its snapshot through archive
// after every mutation. Archive failures are logged and never block
// the mutation itself.
func NewArchived(lg *logger.Logger, archive Archiver) *Store {
	return &Store{lg: lg, archive: archive}
}

// Rehydrate loads the archived snapshot, replacing current contents.
// A missing or unreadable archive leaves the store empty.
func (s *Store) Rehydrate() error {
	if s.archive == nil {
		return nil
	}
	orders, err := s.archive.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = s.orders[:0]
	for _, o := range orders {
		o.Normalize()
		s.orders = append(s.orders, o)
	}
	return nil
}

// Upsert replaces the order with a matching id in place, or appends it
// if absent. Pre-existing entries keep their position.
func (s *Store) Upsert(o domain.Order) {
	o.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == o.ID {
			s.orders[i] = o
			s.persistLocked()
			return
		}
	}
	s.orders = append(s.orders, o)
	s.persistLocked()
}

// Remove deletes the entry with the given id, if present.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			s.persistLocked()
			return
		}
	}
}

func (s *Store) Get(id int64) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			return s.orders[i], true
		}
	}
	return domain.Order{}, false
}

// List returns an order-preserving copy of the entries matching pred.
// A nil pred matches everything.
func (s *Store) List(pred func(domain.Order) bool) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if pred == nil || pred(o) {
			out = append(out, o)
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// IDs returns the ids of all entries in insertion order.
func (s *Store) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, len(s.orders))
	for i, o := range s.orders {
		ids[i] = o.ID
	}
	return ids
}

func (s *Store) persistLocked() {
	if s.archive == nil {
		return
	}
	snapshot := make([]domain.Order, len(s.orders))
	copy(snapshot, s.orders)
	if err := s.archive.Save(snapshot); err != nil {
		s.lg.Error("archive_save_failed", err, map[string]any{"orders": len(snapshot)})
	}
}
