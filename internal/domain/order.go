// Package domain holds the order model shared by all three viewers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is a single position of an order. The menu item name is
// denormalized: it is a plain string, not a live menu reference. Lines
// are immutable; a changed order replaces them wholesale.
type OrderLine struct {
	ID                  int64           `json:"id"`
	MenuItemName        string          `json:"menuItemName"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
}

// Order is the server-owned order record. Viewers hold read/merge
// copies; identity (ID) never changes.
type Order struct {
	ID           int64           `json:"id"`
	TableNumber  int             `json:"tableNumber"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Items        []OrderLine     `json:"items"`
	CustomerNote string          `json:"customerNote,omitempty"`
}

// Normalize guarantees Items is a container, never nil. Payloads with a
// missing items field must merge as empty, not error (a rejected
// snapshot would leave the viewer permanently behind for that order).
func (o *Order) Normalize() {
	if o.Items == nil {
		o.Items = []OrderLine{}
	}
}

// MenuItem is a menu entry the customer viewer can add to the cart.
type MenuItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// MenuCategory groups menu items for browsing.
type MenuCategory struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	MenuItems []MenuItem `json:"menuItems"`
}

// Table is the table record checked when a customer viewer mounts.
type Table struct {
	ID          int64 `json:"id"`
	TableNumber int   `json:"tableNumber"`
	Active      bool  `json:"active"`
}
