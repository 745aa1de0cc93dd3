package push

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrmenu-sync/internal/domain"
	"qrmenu-sync/internal/logger"
	"qrmenu-sync/internal/notify"
	"qrmenu-sync/internal/store"
)

func newDispatcher(t *testing.T) (*Dispatcher, *store.Store, *notify.Queue) {
	t.Helper()
	lg := logger.NewWithOutput("test", io.Discard)
	st := store.New(lg)
	notes := notify.New(time.Hour)
	t.Cleanup(notes.Close)
	return NewDispatcher(st, notes, lg), st, notes
}

func TestOrderSnapshotUpsertsAndNotifies(t *testing.T) {
	d, st, notes := newDispatcher(t)
	d.Apply(Event{Kind: Connected})
	d.Apply(Event{Kind: OrderReceived, Order: domain.Order{ID: 1, TableNumber: 5, Status: domain.StatusPending}})

	got, ok := st.Get(1)
	require.True(t, ok)
	assert.Equal(t, domain.StatusPending, got.Status)

	cur, ok := notes.Current()
	require.True(t, ok)
	assert.Equal(t, "New order received for Table 5", cur.Message)
}

func TestKnownOrderSnapshotNotifiesUpdate(t *testing.T) {
	d, st, notes := newDispatcher(t)
	st.Upsert(domain.Order{ID: 2, TableNumber: 3, Status: domain.StatusPending})
	d.Apply(Event{Kind: Connected})
	d.Apply(Event{Kind: OrderReceived, Order: domain.Order{ID: 2, TableNumber: 3, Status: domain.StatusPreparing}})

	cur, ok := notes.Current()
	require.True(t, ok)
	assert.Equal(t, "Order #2 updated to PREPARING", cur.Message)
}

func TestDisconnectGatesAllMutations(t *testing.T) {
	d, st, notes := newDispatcher(t)
	d.Apply(Event{Kind: Connected})
	d.Apply(Event{Kind: Disconnected})

	d.Apply(Event{Kind: OrderReceived, Order: domain.Order{ID: 1, TableNumber: 5, Status: domain.StatusPending}})
	d.Apply(Event{Kind: AlertReceived, Alert: domain.Alert{Message: "x", Severity: domain.SeverityInfo}})
	d.Apply(Event{Kind: OrderReceived, Order: domain.Order{ID: 2, TableNumber: 6, Status: domain.StatusReady}})

	assert.Equal(t, 0, st.Len())
	_, displayed := notes.Current()
	assert.False(t, displayed)
	assert.Equal(t, 0, notes.Pending())

	// reconnect lifts the gate
	d.Apply(Event{Kind: Connected})
	d.Apply(Event{Kind: OrderReceived, Order: domain.Order{ID: 1, TableNumber: 5, Status: domain.StatusPending}})
	assert.Equal(t, 1, st.Len())
}

func TestEventsBeforeConnectAreDropped(t *testing.T) {
	d, st, _ := newDispatcher(t)
	d.Apply(Event{Kind: OrderReceived, Order: domain.Order{ID: 1}})
	assert.Equal(t, 0, st.Len())
}

func TestBannerCallbacks(t *testing.T) {
	d, _, _ := newDispatcher(t)
	var banner error
	up := 0
	d.OnDown = func(err error) { banner = err }
	d.OnUp = func() { up++; banner = nil }

	d.Apply(Event{Kind: Connected})
	assert.Equal(t, 1, up)
	assert.NoError(t, banner)

	d.Apply(Event{Kind: ChannelError, Err: errors.New("PRECONDITION_FAILED")})
	require.Error(t, banner)
	assert.ErrorIs(t, banner, ErrStalled)

	d.Apply(Event{Kind: Connected})
	assert.NoError(t, banner)
}

func TestAlertSeverityCarriedThrough(t *testing.T) {
	d, _, notes := newDispatcher(t)
	d.Apply(Event{Kind: Connected})
	d.Apply(Event{Kind: AlertReceived, Alert: domain.Alert{Message: "86 the salmon", Severity: domain.SeverityWarning}})

	cur, ok := notes.Current()
	require.True(t, ok)
	assert.Equal(t, domain.SeverityWarning, cur.Severity)
}

func TestRefetchHookFiresOnSnapshot(t *testing.T) {
	d, _, _ := newDispatcher(t)
	refetched := 0
	d.OnRefetch = func() { refetched++ }

	d.Apply(Event{Kind: Connected})
	d.Apply(Event{Kind: OrderReceived, Order: domain.Order{ID: 1, TableNumber: 5}})
	d.Apply(Event{Kind: AlertReceived, Alert: domain.Alert{Message: "x"}})

	assert.Equal(t, 1, refetched, "only order snapshots trigger a refetch")
}
