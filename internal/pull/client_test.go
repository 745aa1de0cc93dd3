package pull

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrmenu-sync/internal/domain"
)

func TestBearerTokenAttached(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("opaque-token"))
	_, err := c.KitchenOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer opaque-token", got)
}

func TestNoCredentialsNoHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id": 1, "tableNumber": 2, "status": "PENDING"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.Order(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKitchenOrdersScenario(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/kitchen/orders", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"tableNumber":5,"status":"PENDING","items":[{"menuItemName":"Pizza","quantity":2}]}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("t"))
	orders, err := c.KitchenOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 5, orders[0].TableNumber)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Pizza", orders[0].Items[0].MenuItemName)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
}

func TestUpdateStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/kitchen/orders/1/status", r.URL.Path)
		assert.Equal(t, "PREPARING", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"id":1,"tableNumber":5,"status":"PREPARING","items":[{"menuItemName":"Pizza","quantity":2}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("t"))
	o, err := c.UpdateStatus(context.Background(), 1, domain.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, o.Status)
	assert.Equal(t, 5, o.TableNumber)
}

func TestOrderMissingItemsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 4, "tableNumber": 1, "status": "READY"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	o, err := c.Order(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, o.Items)
	assert.Empty(t, o.Items)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message": "order already delivered"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("t"))
	_, err := c.Deliver(context.Background(), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "order already delivered", apiErr.Message)
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(6), req.TableID)
		require.Len(t, req.Items, 1)
		assert.Equal(t, int64(11), req.Items[0].MenuItemID)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"tableNumber":6,"status":"PENDING","items":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	o, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		TableID: 6,
		Items:   []CreateOrderLine{{MenuItemID: 11, Quantity: 2, Note: "no onions"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), o.ID)
	assert.Equal(t, domain.StatusPending, o.Status)
}

func TestTableAndMenu(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tables/6":
			_, _ = w.Write([]byte(`{"id":6,"tableNumber":6,"active":true}`))
		case "/api/menu/categories":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Mains","menuItems":[{"id":11,"name":"Pizza","price":9.25}]}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	tbl, err := c.Table(context.Background(), 6)
	require.NoError(t, err)
	assert.True(t, tbl.Active)

	cats, err := c.MenuCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Len(t, cats[0].MenuItems, 1)
	assert.Equal(t, "Pizza", cats[0].MenuItems[0].Name)
}
