package pull

import (
	"context"
	"fmt"
	"time"

	"qrmenu-sync/internal/domain"
	"qrmenu-sync/internal/logger"
	"qrmenu-sync/internal/notify"
	"qrmenu-sync/internal/retention"
	"qrmenu-sync/internal/store"
)

// ListFetch returns an authoritative order list for a viewer.
type ListFetch func(ctx context.Context) ([]domain.Order, error)

// Synchronizer merges fetched orders into the local store and reacts
// to the transitions it detects: READY enqueues an alert, the first
// DELIVERED observation registers the retention timer.
type Synchronizer struct {
	api    *Client
	store  *store.Store
	notes  *notify.Queue
	retain *retention.Registry // nil outside the customer viewer
	lg     *logger.Logger
}

func NewSynchronizer(api *Client, st *store.Store, notes *notify.Queue, retain *retention.Registry, lg *logger.Logger) *Synchronizer {
	return &Synchronizer{api: api, store: st, notes: notes, retain: retain, lg: lg}
}

// MergeOne applies a single server-authoritative order. Whatever the
// server reports is adopted, including backward transitions.
func (s *Synchronizer) MergeOne(o domain.Order) {
	prev, had := s.store.Get(o.ID)
	if had && prev.Status != o.Status && o.Status == domain.StatusReady && s.notes != nil {
		s.notes.Enqueue(fmt.Sprintf("Order #%d is Ready!", o.ID), domain.SeveritySuccess)
	}
	if o.Status == domain.StatusDelivered && (!had || prev.Status != domain.StatusDelivered) && s.retain != nil {
		s.retain.Register(o.ID)
	}
	s.store.Upsert(o)
}

// MergeList applies an authoritative list: every returned order is
// upserted and local entries absent from the list are dropped. Only
// a successful fetch reaches this point, so a transient network error
// never causes order disappearance.
func (s *Synchronizer) MergeList(orders []domain.Order) {
	present := make(map[int64]struct{}, len(orders))
	for _, o := range orders {
		present[o.ID] = struct{}{}
		s.MergeOne(o)
	}
	for _, id := range s.store.IDs() {
		if _, ok := present[id]; !ok {
			s.store.Remove(id)
			if s.retain != nil {
				s.retain.Cancel(id)
			}
		}
	}
}

// SyncList performs one list fetch-and-merge.
func (s *Synchronizer) SyncList(ctx context.Context, fetch ListFetch) error {
	orders, err := fetch(ctx)
	if err != nil {
		return err
	}
	s.MergeList(orders)
	return nil
}

// RunList fetches once at mount and then on the interval until ctx is
// cancelled. every == 0 means mount-only. Per-iteration failures are
// logged and the interval continues.
func (s *Synchronizer) RunList(ctx context.Context, every time.Duration, fetch ListFetch) {
	if err := s.SyncList(ctx, fetch); err != nil {
		s.lg.Error("orders_fetch_failed", err, nil)
	}
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.SyncList(ctx, fetch); err != nil {
				s.lg.Error("orders_fetch_failed", err, nil)
			}
		}
	}
}

// SyncDetails refreshes every tracked order not yet in a locally-known
// terminal state with a per-order detail fetch. A single order's
// failure leaves that entry unchanged and the rest proceed.
func (s *Synchronizer) SyncDetails(ctx context.Context) {
	for _, o := range s.store.List(func(o domain.Order) bool { return !o.Status.Terminal() }) {
		updated, err := s.api.Order(ctx, o.ID)
		if err != nil {
			s.lg.Error("order_fetch_failed", err, map[string]any{"order_id": o.ID})
			continue
		}
		s.MergeOne(updated)
	}
}

// RunDetails runs SyncDetails once at mount and then on the interval
// until ctx is cancelled.
func (s *Synchronizer) RunDetails(ctx context.Context, every time.Duration) {
	s.SyncDetails(ctx)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.SyncDetails(ctx)
		}
	}
}
