package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"qrmenu-sync/internal/domain"
	"qrmenu-sync/internal/logger"
	"qrmenu-sync/internal/notify"
	"qrmenu-sync/internal/pull"
	"qrmenu-sync/internal/retention"
	"qrmenu-sync/internal/store"
)

const (
	// CustomerHold is how long the customer screen shows each alert.
	CustomerHold = 3 * time.Second
	// CustomerPollEvery is the per-order detail poll interval.
	CustomerPollEvery = 3 * time.Second
)

// ErrTableUnavailable is returned at mount when the scanned table does
// not exist or is not active.
var ErrTableUnavailable = errors.New("table is not available")

// ErrEmptyCart refuses an order with nothing in it.
var ErrEmptyCart = errors.New("cart is empty")

// Customer is the table menu/cart controller. It has no push
// subscription: a 3 s per-order detail poll tracks status, delivered
// orders linger for the retention dwell, and the active-orders list
// survives a reload through the redis archive.
type Customer struct {
	api     *pull.Client
	tableID int64
	store   *store.Store
	notes   *notify.Queue
	retain  *retention.Registry
	sync    *pull.Synchronizer
	cart    *Cart
	poll    time.Duration
	lg      *logger.Logger

	mu    sync.Mutex
	table domain.Table
	menu  []domain.MenuCategory
}

// NewCustomer builds the controller for one table. archive persists
// the active-orders list across reloads (redis in production); nil
// keeps the store memory-only.
func NewCustomer(api *pull.Client, archive store.Archiver, tableID int64, lg *logger.Logger) *Customer {
	var st *store.Store
	if archive != nil {
		st = store.NewArchived(lg, archive)
	} else {
		st = store.New(lg)
	}
	notes := notify.New(CustomerHold)
	retain := retention.New(st.Remove)
	return &Customer{
		api:     api,
		tableID: tableID,
		store:   st,
		notes:   notes,
		retain:  retain,
		sync:    pull.NewSynchronizer(api, st, notes, retain, lg),
		cart:    NewCart(),
		poll:    CustomerPollEvery,
		lg:      lg,
	}
}

// Run mounts the viewer: table check, archive rehydration, menu fetch,
// then the detail poll and retention sweep until ctx is cancelled.
func (c *Customer) Run(ctx context.Context) error {
	defer c.teardown()

	tbl, err := c.api.Table(ctx, c.tableID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTableUnavailable, err)
	}
	if !tbl.Active {
		return ErrTableUnavailable
	}
	c.mu.Lock()
	c.table = tbl
	c.mu.Unlock()

	if err := c.store.Rehydrate(); err != nil {
		c.lg.Error("archive_load_failed", err, map[string]any{"table_id": c.tableID})
	}
	// delivered orders restored from the archive restart their dwell
	for _, o := range c.store.List(nil) {
		if o.Status == domain.StatusDelivered {
			c.retain.Register(o.ID)
		}
	}

	if cats, err := c.api.MenuCategories(ctx); err != nil {
		c.lg.Error("menu_fetch_failed", err, nil)
	} else {
		c.mu.Lock()
		c.menu = cats
		c.mu.Unlock()
	}

	go c.retain.Run(ctx)
	c.sync.RunDetails(ctx, c.poll)
	return nil
}

// PlaceOrder submits the cart as a new order. On success the returned
// order is appended to the tracked list (and persisted) and the cart
// is cleared; on failure both are untouched.
func (c *Customer) PlaceOrder(ctx context.Context, note string) (domain.Order, error) {
	lines := c.cart.Lines()
	if len(lines) == 0 {
		return domain.Order{}, ErrEmptyCart
	}
	o, err := c.api.CreateOrder(ctx, pull.CreateOrderRequest{
		TableID:      c.tableID,
		Items:        lines,
		CustomerNote: note,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if ctx.Err() != nil {
		return domain.Order{}, ctx.Err()
	}
	c.store.Upsert(o)
	c.cart.Clear()
	c.notes.Enqueue(fmt.Sprintf("Order created successfully. Order ID: %d", o.ID), domain.SeveritySuccess)
	return o, nil
}

// Cart exposes the pending selection.
func (c *Customer) Cart() *Cart { return c.cart }

// ActiveOrders returns the tracked orders, delivered ones included
// until their dwell expires.
func (c *Customer) ActiveOrders() []domain.Order { return c.store.List(nil) }

// Remaining reports the countdown until a delivered order disappears.
func (c *Customer) Remaining(orderID int64) (time.Duration, bool) {
	return c.retain.Remaining(orderID)
}

// Menu returns the fetched categories.
func (c *Customer) Menu() []domain.MenuCategory {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menu
}

// Table returns the validated table record.
func (c *Customer) Table() domain.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table
}

// Notifications exposes the alert queue for display and dismissal.
func (c *Customer) Notifications() *notify.Queue { return c.notes }

func (c *Customer) teardown() {
	c.retain.Close()
	c.notes.Close()
}
