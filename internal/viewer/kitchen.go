// Package viewer composes the store, synchronizer, push listener,
// notification queue and retention timer into the three role-specific
// controllers.
package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"qrmenu-sync/internal/connections/rabbitmq"
	"qrmenu-sync/internal/domain"
	"qrmenu-sync/internal/logger"
	"qrmenu-sync/internal/notify"
	"qrmenu-sync/internal/pull"
	"qrmenu-sync/internal/push"
	"qrmenu-sync/internal/store"
)

// KitchenHold is how long the kitchen display shows each alert.
const KitchenHold = 5 * time.Second

// Kitchen is the kitchen display controller. It learns about new
// orders primarily over push and refetches the authoritative list
// after any push-driven change.
type Kitchen struct {
	api      *pull.Client
	store    *store.Store
	notes    *notify.Queue
	sync     *pull.Synchronizer
	listener *push.Listener
	dispatch *push.Dispatcher
	lg       *logger.Logger

	mu     sync.Mutex
	banner error
}

func NewKitchen(api *pull.Client, mq *rabbitmq.Client, lg *logger.Logger) *Kitchen {
	st := store.New(lg)
	notes := notify.New(KitchenHold)
	k := &Kitchen{
		api:   api,
		store: st,
		notes: notes,
		sync:  pull.NewSynchronizer(api, st, notes, nil, lg),
		lg:    lg,
	}
	if mq != nil {
		k.listener = push.NewListener(mq, "kitchen", lg)
	}
	k.dispatch = push.NewDispatcher(st, notes, lg)
	k.dispatch.OnDown = k.setBanner
	k.dispatch.OnUp = func() { k.setBannerNil() }
	return k
}

// Run mounts the viewer: one list fetch, then the push event loop
// until ctx is cancelled. Unmount deactivates the subscriptions.
func (k *Kitchen) Run(ctx context.Context) error {
	defer k.teardown()

	if err := k.sync.SyncList(ctx, k.api.KitchenOrders); err != nil {
		k.lg.Error("orders_fetch_failed", err, nil)
	}

	events, err := k.listener.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe push channel: %w", err)
	}
	k.dispatch.OnRefetch = func() {
		if err := k.sync.SyncList(ctx, k.api.KitchenOrders); err != nil {
			k.lg.Error("orders_refetch_failed", err, nil)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				// stream ended; the banner is already up and the
				// viewer stays alive until unmount
				events = nil
				continue
			}
			k.dispatch.Apply(ev)
		}
	}
}

// UpdateStatus requests a transition (PENDING→PREPARING or
// PREPARING→READY) and optimistically applies the server's response.
// On failure the store is untouched and the caller surfaces the error
// as a one-shot message.
func (k *Kitchen) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	o, err := k.api.UpdateStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err() // viewer unmounted while the request was in flight
	}
	k.store.Upsert(o)
	k.notes.Enqueue(fmt.Sprintf("Order #%d updated to %s", id, o.Status), domain.SeveritySuccess)
	return nil
}

// Pending returns the orders waiting to be started.
func (k *Kitchen) Pending() []domain.Order {
	return k.store.List(func(o domain.Order) bool { return o.Status == domain.StatusPending })
}

// Preparing returns the orders currently being cooked.
func (k *Kitchen) Preparing() []domain.Order {
	return k.store.List(func(o domain.Order) bool { return o.Status == domain.StatusPreparing })
}

// Notifications exposes the alert queue for display and dismissal.
func (k *Kitchen) Notifications() *notify.Queue { return k.notes }

// Banner returns the persistent push-stall banner, if any.
func (k *Kitchen) Banner() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.banner
}

func (k *Kitchen) setBanner(err error) {
	k.mu.Lock()
	k.banner = err
	k.mu.Unlock()
}

func (k *Kitchen) setBannerNil() { k.setBanner(nil) }

func (k *Kitchen) teardown() {
	if k.listener != nil {
		k.listener.Close()
	}
	k.notes.Close()
}
