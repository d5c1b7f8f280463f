package store

import (
	"sync"
	"time"

	"github.com/evergreenmart/storefront/internal/models"
)

// Cart is one shopper's server-side cart. The cookie session only carries
// the shopper id; line items live here. Every access refreshes the idle
// clock the registry sweeps on.
type Cart struct {
	mu       sync.Mutex
	items    []models.CartItem
	lastUsed time.Time
}

func newCart() *Cart {
	return &Cart{lastUsed: time.Now()}
}

// LastUsed reports when the cart was last touched.
func (c *Cart) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// Add inserts a line item, merging quantity into an existing line for the
// same product.
func (c *Cart) Add(item models.CartItem) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	for i := range c.items {
		if c.items[i].ProductID == item.ProductID {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// SetQuantity updates a line; quantity 0 removes it.
func (c *Cart) SetQuantity(productID, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	for i := range c.items {
		if c.items[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		} else {
			c.items[i].Quantity = quantity
		}
		return
	}
}

// Snapshot returns a read-only copy with the current subtotal. Checkout
// consumes snapshots, never the live cart.
func (c *Cart) Snapshot() models.CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()

	items := make([]models.CartItem, len(c.items))
	copy(items, c.items)
	var subtotal float64
	for _, it := range items {
		subtotal += it.Price * float64(it.Quantity)
	}
	return models.CartSnapshot{Items: items, TotalAmount: subtotal}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	c.items = nil
}
