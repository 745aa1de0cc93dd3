package viewer

import (
	"context"
	"fmt"
	"sort"
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

const (
	// WaiterHold is how long the waiter display shows each alert.
	WaiterHold = 3 * time.Second
	// WaiterPollEvery is the polling fallback interval.
	WaiterPollEvery = 30 * time.Second
)

// Waiter is the delivery display controller: push for low latency, a
// 30 s poll for resynchronization.
type Waiter struct {
	api      *pull.Client
	store    *store.Store
	notes    *notify.Queue
	sync     *pull.Synchronizer
	listener *push.Listener
	dispatch *push.Dispatcher
	poll     time.Duration
	lg       *logger.Logger

	mu     sync.Mutex
	banner error
}

func NewWaiter(api *pull.Client, mq *rabbitmq.Client, lg *logger.Logger) *Waiter {
	st := store.New(lg)
	notes := notify.New(WaiterHold)
	w := &Waiter{
		api:   api,
		store: st,
		notes: notes,
		sync:  pull.NewSynchronizer(api, st, notes, nil, lg),
		poll:  WaiterPollEvery,
		lg:    lg,
	}
	if mq != nil {
		w.listener = push.NewListener(mq, "waiter", lg)
	}
	w.dispatch = push.NewDispatcher(st, notes, lg)
	w.dispatch.OnDown = func(err error) { w.setBanner(err) }
	w.dispatch.OnUp = func() { w.setBanner(nil) }
	return w
}

// Run mounts the viewer: initial fetch, push subscription and the
// polling ticker, all serviced from one loop until ctx is cancelled.
// The poll continues through push outages.
func (w *Waiter) Run(ctx context.Context) error {
	defer w.teardown()

	if err := w.sync.SyncList(ctx, w.api.WaiterOrders); err != nil {
		w.lg.Error("orders_fetch_failed", err, nil)
	}

	events, err := w.listener.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe push channel: %w", err)
	}

	t := time.NewTicker(w.poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := w.sync.SyncList(ctx, w.api.WaiterOrders); err != nil {
				w.lg.Error("orders_fetch_failed", err, nil)
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			w.dispatch.Apply(ev)
		}
	}
}

// Deliver marks a READY order as delivered. The server's response is
// applied optimistically and the list refetched for reconciliation.
func (w *Waiter) Deliver(ctx context.Context, id int64) error {
	o, err := w.api.Deliver(ctx, id)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	w.store.Upsert(o)
	w.notes.Enqueue("Order marked as delivered successfully", domain.SeveritySuccess)
	if err := w.sync.SyncList(ctx, w.api.WaiterOrders); err != nil {
		w.lg.Error("orders_refetch_failed", err, nil)
	}
	return nil
}

// Orders returns everything awaiting delivery in arrival order.
func (w *Waiter) Orders() []domain.Order { return w.store.List(nil) }

// ByTable groups the orders by table, tables in ascending number and
// each table's orders in arrival order.
func (w *Waiter) ByTable() []TableOrders {
	groups := make(map[int][]domain.Order)
	for _, o := range w.store.List(nil) {
		groups[o.TableNumber] = append(groups[o.TableNumber], o)
	}
	tables := make([]int, 0, len(groups))
	for n := range groups {
		tables = append(tables, n)
	}
	sort.Ints(tables)
	out := make([]TableOrders, 0, len(tables))
	for _, n := range tables {
		out = append(out, TableOrders{TableNumber: n, Orders: groups[n]})
	}
	return out
}

// TableOrders is one table's slice of the waiter view.
type TableOrders struct {
	TableNumber int
	Orders      []domain.Order
}

// Notifications exposes the alert queue for display and dismissal.
func (w *Waiter) Notifications() *notify.Queue { return w.notes }

// Banner returns the persistent push-stall banner, if any.
func (w *Waiter) Banner() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.banner
}

func (w *Waiter) setBanner(err error) {
	w.mu.Lock()
	w.banner = err
	w.mu.Unlock()
}

func (w *Waiter) teardown() {
	if w.listener != nil {
		w.listener.Close()
	}
	w.notes.Close()
}
