package push

import (
	"errors"
	"fmt"

	"qrmenu-sync/internal/domain"
	"qrmenu-sync/internal/logger"
	"qrmenu-sync/internal/notify"
	"qrmenu-sync/internal/store"
)

// ErrStalled marks the persistent-banner condition: the push channel
// is down, so every further push-driven update is silently missing
// until reconnection. Polling keeps providing eventual consistency.
var ErrStalled = errors.New("push channel disconnected, live updates stalled")

// Dispatcher fans the event stream out to the local store and the
// notification queue. It is driven from a single viewer goroutine.
type Dispatcher struct {
	store *store.Store
	notes *notify.Queue
	lg    *logger.Logger

	// OnRefetch, when set, is invoked after an order snapshot was
	// applied (the kitchen refetches its list on push-driven changes).
	OnRefetch func()
	// OnDown receives the persistent banner error on disconnect or
	// protocol error; OnUp clears it on (re)connect.
	OnDown func(error)
	OnUp   func()

	connected bool
}

func NewDispatcher(st *store.Store, notes *notify.Queue, lg *logger.Logger) *Dispatcher {
	return &Dispatcher{store: st, notes: notes, lg: lg}
}

// Apply handles one event. Order and alert payloads arriving while
// the channel is not in the connected state mutate nothing.
func (d *Dispatcher) Apply(ev Event) {
	switch ev.Kind {
	case Connected:
		d.connected = true
		if d.OnUp != nil {
			d.OnUp()
		}
	case Disconnected:
		d.connected = false
		if d.OnDown != nil {
			d.OnDown(ErrStalled)
		}
	case ChannelError:
		d.connected = false
		if d.OnDown != nil {
			d.OnDown(fmt.Errorf("%w: %v", ErrStalled, ev.Err))
		}
	case OrderReceived:
		if !d.connected {
			d.lg.Debug("order_dropped_disconnected", map[string]any{"order_id": ev.Order.ID})
			return
		}
		d.applyOrder(ev.Order)
	case AlertReceived:
		if !d.connected {
			d.lg.Debug("alert_dropped_disconnected", nil)
			return
		}
		d.notes.EnqueueAlert(ev.Alert)
	}
}

func (d *Dispatcher) applyOrder(o domain.Order) {
	_, known := d.store.Get(o.ID)
	d.store.Upsert(o)
	if known {
		d.notes.Enqueue(fmt.Sprintf("Order #%d updated to %s", o.ID, o.Status), domain.SeverityInfo)
	} else {
		d.notes.Enqueue(fmt.Sprintf("New order received for Table %d", o.TableNumber), domain.SeverityInfo)
	}
	if d.OnRefetch != nil {
		d.OnRefetch()
	}
}
