// Package push turns the broker subscription into a typed event
// stream consumed by a single dispatcher per viewer.
package push

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"qrmenu-sync/internal/connections/rabbitmq"
	"qrmenu-sync/internal/domain"
	"qrmenu-sync/internal/logger"
)

// EventKind discriminates the push channel lifecycle and payloads.
type EventKind int

const (
	Connected EventKind = iota + 1
	OrderReceived
	AlertReceived
	Disconnected
	ChannelError
)

// Event is one occurrence on the push channel. Order is set for
// OrderReceived, Alert for AlertReceived, Err for ChannelError.
type Event struct {
	Kind  EventKind
	Order domain.Order
	Alert domain.Alert
	Err   error
}

// Listener subscribes a viewer to its orders topic and the
// notifications fanout.
type Listener struct {
	client *rabbitmq.Client
	viewer string
	lg     *logger.Logger

	mu       sync.Mutex
	tags     []string
	shutdown sync.Once
}

func NewListener(client *rabbitmq.Client, viewer string, lg *logger.Logger) *Listener {
	return &Listener{client: client, viewer: viewer, lg: lg}
}

// Subscribe declares the viewer's queues, starts both consumers and
// returns the event stream. The channel is closed after a Disconnected
// event or when ctx is cancelled; ordering within the stream follows
// broker delivery order.
func (l *Listener) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := l.client.Channel()
	if err := l.client.DeclareExchanges(); err != nil {
		return nil, err
	}

	ordersQ, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare orders queue: %w", err)
	}
	key := l.viewer + ".orders"
	if err := ch.QueueBind(ordersQ.Name, key, rabbitmq.OrdersExchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind %s: %w", key, err)
	}

	alertsQ, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare notifications queue: %w", err)
	}
	if err := ch.QueueBind(alertsQ.Name, "", rabbitmq.NotificationsExchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind notifications: %w", err)
	}

	orderTag := fmt.Sprintf("%s-orders-%s", l.viewer, uuid.NewString())
	orderMsgs, err := ch.Consume(ordersQ.Name, orderTag, true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume orders: %w", err)
	}
	alertTag := fmt.Sprintf("%s-alerts-%s", l.viewer, uuid.NewString())
	alertMsgs, err := ch.Consume(alertsQ.Name, alertTag, true, true, false, false, nil)
	if err != nil {
		_ = ch.Cancel(orderTag, false)
		return nil, fmt.Errorf("consume notifications: %w", err)
	}

	l.mu.Lock()
	l.tags = []string{orderTag, alertTag}
	l.mu.Unlock()

	closeCh := ch.NotifyClose(make(chan *amqp.Error, 1))
	events := make(chan Event, 16)

	go l.pump(ctx, events, orderMsgs, alertMsgs, closeCh)
	return events, nil
}

func (l *Listener) pump(ctx context.Context, events chan<- Event,
	orderMsgs, alertMsgs <-chan amqp.Delivery, closeCh <-chan *amqp.Error) {

	defer close(events)
	events <- Event{Kind: Connected}
	l.lg.Info("push_connected", map[string]any{"viewer": l.viewer})

	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case amqpErr := <-closeCh:
			if amqpErr != nil {
				l.lg.Error("push_channel_closed", amqpErr, map[string]any{"viewer": l.viewer})
				events <- Event{Kind: ChannelError, Err: amqpErr}
			}
			events <- Event{Kind: Disconnected}
			return
		case d, ok := <-orderMsgs:
			if !ok {
				orderMsgs = nil
				continue
			}
			o, err := domain.DecodeOrderSnapshot(d.Body)
			if err != nil {
				l.lg.Error("order_snapshot_rejected", err, map[string]any{"viewer": l.viewer})
				continue
			}
			events <- Event{Kind: OrderReceived, Order: o}
		case d, ok := <-alertMsgs:
			if !ok {
				alertMsgs = nil
				continue
			}
			a, err := domain.DecodeAlert(d.Body)
			if err != nil {
				l.lg.Error("alert_rejected", err, map[string]any{"viewer": l.viewer})
				continue
			}
			events <- Event{Kind: AlertReceived, Alert: a}
		}
	}
}

// Close cancels both subscriptions. Idempotent and safe to call even
// if Subscribe never completed.
func (l *Listener) Close() {
	l.shutdown.Do(func() {
		l.mu.Lock()
		tags := l.tags
		l.mu.Unlock()
		for _, tag := range tags {
			if err := l.client.Channel().Cancel(tag, false); err != nil {
				l.lg.Error("consumer_cancel_failed", err, map[string]any{"tag": tag})
			}
		}
	})
}
