package viewer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrmenu-sync/internal/domain"
	"qrmenu-sync/internal/pull"
)

func TestWaiterByTableGroupsAndOrders(t *testing.T) {
	w := NewWaiter(pull.NewClient("http://unused", nil), nil, testLogger())
	w.store.Upsert(domain.Order{ID: 10, TableNumber: 7, Status: domain.StatusReady})
	w.store.Upsert(domain.Order{ID: 11, TableNumber: 2, Status: domain.StatusPreparing})
	w.store.Upsert(domain.Order{ID: 12, TableNumber: 7, Status: domain.StatusPreparing})

	groups := w.ByTable()
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups[0].TableNumber)
	assert.Equal(t, 7, groups[1].TableNumber)
	require.Len(t, groups[1].Orders, 2)
	assert.Equal(t, int64(10), groups[1].Orders[0].ID, "arrival order kept within a table")
	assert.Equal(t, int64(12), groups[1].Orders[1].ID)
}

func TestWaiterDeliver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/waiter/orders/10/deliver":
			assert.Equal(t, http.MethodPut, r.Method)
			_, _ = w.Write([]byte(`{"id":10,"tableNumber":7,"status":"DELIVERED","items":[]}`))
		case "/api/waiter/orders":
			// reconciliation: delivered orders leave the waiter list
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	w := NewWaiter(pull.NewClient(srv.URL, pull.StaticToken("t")), nil, testLogger())
	w.store.Upsert(domain.Order{ID: 10, TableNumber: 7, Status: domain.StatusReady})

	require.NoError(t, w.Deliver(context.Background(), 10))

	assert.Empty(t, w.Orders(), "refetch drops the delivered order")
	cur, ok := w.Notifications().Current()
	require.True(t, ok)
	assert.Equal(t, "Order marked as delivered successfully", cur.Message)
}

func TestWaiterDeliverFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	w := NewWaiter(pull.NewClient(srv.URL, pull.StaticToken("t")), nil, testLogger())
	w.store.Upsert(domain.Order{ID: 10, TableNumber: 7, Status: domain.StatusReady})

	require.Error(t, w.Deliver(context.Background(), 10))

	got, _ := w.store.Get(10)
	assert.Equal(t, domain.StatusReady, got.Status)
}
