// Package pull is the request-response side of the subsystem: the
// authenticated API client and the synchronizer that merges fetched
// order lists into the local store.
package pull

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"qrmenu-sync/internal/domain"
)

// Credentials supplies the opaque bearer token attached to staff
// requests. The token is never inspected or decoded here. Injecting a
// provider keeps ambient session state out of the request layer.
type Credentials interface {
	Token() string
}

// StaticToken is the common case: a token handed over at startup.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// APIError is a non-2xx response. The store is never mutated on one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the ordering backend.
type Client struct {
	base  string
	http  *http.Client
	creds Credentials
}

// NewClient builds a client for the given base URL. creds may be nil
// for the unauthenticated customer viewer.
func NewClient(base string, creds Credentials) *Client {
	return &Client{
		base:  base,
		http:  &http.Client{Timeout: 10 * time.Second},
		creds: creds,
	}
}

// KitchenOrders fetches all open orders for the kitchen display.
func (c *Client) KitchenOrders(ctx context.Context) ([]domain.Order, error) {
	return c.orderList(ctx, "/api/kitchen/orders")
}

// WaiterOrders fetches all orders awaiting delivery.
func (c *Client) WaiterOrders(ctx context.Context) ([]domain.Order, error) {
	return c.orderList(ctx, "/api/waiter/orders")
}

// Order fetches one order by id.
func (c *Client) Order(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil, &o); err != nil {
		return domain.Order{}, err
	}
	o.Normalize()
	return o, nil
}

// UpdateStatus asks the server to move an order to the desired status
// and returns the resulting order. The server is the sole arbiter: no
// local validation blocks the request.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status domain.Status) (domain.Order, error) {
	path := fmt.Sprintf("/api/kitchen/orders/%d/status?status=%s", id, url.QueryEscape(string(status)))
	var o domain.Order
	if err := c.do(ctx, http.MethodPut, path, nil, &o); err != nil {
		return domain.Order{}, err
	}
	o.Normalize()
	return o, nil
}

// Deliver marks a READY order as delivered and returns it.
func (c *Client) Deliver(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/waiter/orders/%d/deliver", id), nil, &o); err != nil {
		return domain.Order{}, err
	}
	o.Normalize()
	return o, nil
}

// CreateOrderLine is one cart position submitted with a new order.
type CreateOrderLine struct {
	MenuItemID int64  `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note,omitempty"`
}

// CreateOrderRequest is the payload for placing a new order.
type CreateOrderRequest struct {
	TableID      int64             `json:"tableId"`
	Items        []CreateOrderLine `json:"items"`
	CustomerNote string            `json:"customerNote,omitempty"`
}

// CreateOrder places a new order and returns the server's record.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &o); err != nil {
		return domain.Order{}, err
	}
	o.Normalize()
	return o, nil
}

// Table fetches the table record scanned by a customer.
func (c *Client) Table(ctx context.Context, id int64) (domain.Table, error) {
	var t domain.Table
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tables/%d", id), nil, &t); err != nil {
		return domain.Table{}, err
	}
	return t, nil
}

// MenuCategories fetches the browsable menu.
func (c *Client) MenuCategories(ctx context.Context) ([]domain.MenuCategory, error) {
	var cats []domain.MenuCategory
	if err := c.do(ctx, http.MethodGet, "/api/menu/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) orderList(ctx context.Context, path string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Normalize()
	}
	return orders, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if tok := c.creds.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body, resp.Status)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage pulls a {"message": ...} body when the server sent one.
func errorMessage(body io.Reader, fallback string) string {
	b, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(b) == 0 {
		return fallback
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return fallback
}
