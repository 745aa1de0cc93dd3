package viewer

import (
	"sync"

	"github.com/shopspring/decimal"

	"qrmenu-sync/internal/domain"
	"qrmenu-sync/internal/pull"
)

// CartItem is a menu item reference with a mutable quantity and an
// optional note. Cart state is transient; it only survives as part of
// the order it eventually becomes.
type CartItem struct {
	Item     domain.MenuItem
	Quantity int
	Note     string
}

// Cart is the customer viewer's pending selection.
type Cart struct {
	mu    sync.Mutex
	items []CartItem
}

func NewCart() *Cart { return &Cart{} }

// Add puts one more of the given menu item in the cart, incrementing
// the quantity when it is already present.
func (c *Cart) Add(item domain.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Item.ID == item.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, CartItem{Item: item, Quantity: 1})
}

// SetQuantity overrides an item's quantity; zero or less removes it.
func (c *Cart) SetQuantity(itemID int64, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Item.ID == itemID {
			if quantity <= 0 {
				c.items = append(c.items[:i], c.items[i+1:]...)
			} else {
				c.items[i].Quantity = quantity
			}
			return
		}
	}
}

// Remove drops an item regardless of quantity.
func (c *Cart) Remove(itemID int64) { c.SetQuantity(itemID, 0) }

// SetNote attaches special instructions to a cart item.
func (c *Cart) SetNote(itemID int64, note string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Item.ID == itemID {
			c.items[i].Note = note
			return
		}
	}
}

// Quantity reports how many of the item are in the cart.
func (c *Cart) Quantity(itemID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Item.ID == itemID {
			return c.items[i].Quantity
		}
	}
	return 0
}

// Items returns a copy of the cart contents in selection order.
func (c *Cart) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CartItem(nil), c.items...)
}

// Total sums price times quantity over the cart.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Item.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Clear empties the cart after a successful order.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Lines converts the cart to order-request lines.
func (c *Cart) Lines() []pull.CreateOrderLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]pull.CreateOrderLine, 0, len(c.items))
	for _, it := range c.items {
		lines = append(lines, pull.CreateOrderLine{
			MenuItemID: it.Item.ID,
			Quantity:   it.Quantity,
			Note:       it.Note,
		})
	}
	return lines
}
