package order

import (
	"fmt"

	"pos_client/internal/core"
	apperrors "pos_client/pkg/errors"

	"github.com/shopspring/decimal"
)

// ProductResolver resolves a product id against the current catalog snapshot
type ProductResolver func(id int) (core.Product, bool)

// Cart stages order lines before commit. Nothing in the cart is persisted;
// stock is validated cumulatively against the catalog snapshot at add-time.
type Cart struct {
	resolve  ProductResolver
	items    []core.OrderItem
	subtotal decimal.Decimal
	tax      decimal.Decimal
	discount decimal.Decimal
	total    decimal.Decimal
}

// NewCart creates an empty cart over the given catalog resolver
func NewCart(resolve ProductResolver) *Cart {
	return &Cart{
		resolve:  resolve,
		subtotal: decimal.Zero,
		tax:      decimal.Zero,
		discount: decimal.Zero,
		total:    decimal.Zero,
	}
}

// AddLine stages quantity units of a product. Re-adding a staged product sums
// quantities into the existing line instead of duplicating it. On any failure
// the cart is left untouched.
func (c *Cart) AddLine(productID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", apperrors.ErrValidation)
	}
	if productID <= 0 {
		return fmt.Errorf("%w: a product must be selected", apperrors.ErrValidation)
	}

	product, ok := c.resolve(productID)
	if !ok {
		return fmt.Errorf("product %d: %w", productID, apperrors.ErrNotFound)
	}

	staged := 0
	idx := -1
	for i, item := range c.items {
		if item.ProductID == productID {
			staged = item.Quantity
			idx = i
			break
		}
	}

	if product.Stock < staged+quantity {
		return fmt.Errorf("%w: only %d units of %s available", apperrors.ErrInsufficientStock, product.Stock, product.Name)
	}

	if idx >= 0 {
		c.items[idx].Quantity += quantity
		c.items[idx].Total = product.Price.Mul(decimal.NewFromInt(int64(c.items[idx].Quantity)))
	} else {
		c.items = append(c.items, core.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    quantity,
			Price:       product.Price,
			Total:       product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		})
	}

	c.recompute()
	return nil
}

// RemoveLine removes a staged line by position. An out-of-range index is
// ignored.
func (c *Cart) RemoveLine(index int) {
	if index < 0 || index >= len(c.items) {
		return
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	c.recompute()
}

// SetDiscount applies a flat discount to the cart total
func (c *Cart) SetDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() {
		return fmt.Errorf("%w: discount must not be negative", apperrors.ErrValidation)
	}
	c.discount = discount
	c.recompute()
	return nil
}

// Items returns a copy of the staged lines
func (c *Cart) Items() []core.OrderItem {
	return append([]core.OrderItem(nil), c.items...)
}

// Len returns the number of staged lines
func (c *Cart) Len() int {
	return len(c.items)
}

// Subtotal returns the sum of line totals
func (c *Cart) Subtotal() decimal.Decimal { return c.subtotal }

// Tax returns the fixed-rate tax on the subtotal
func (c *Cart) Tax() decimal.Decimal { return c.tax }

// Discount returns the applied discount
func (c *Cart) Discount() decimal.Decimal { return c.discount }

// Total returns subtotal + tax - discount
func (c *Cart) Total() decimal.Decimal { return c.total }

// Clear empties the cart
func (c *Cart) Clear() {
	c.items = nil
	c.discount = decimal.Zero
	c.recompute()
}

func (c *Cart) recompute() {
	subtotal := decimal.Zero
	for _, item := range c.items {
		subtotal = subtotal.Add(item.Total)
	}
	c.subtotal = subtotal
	c.tax = subtotal.Mul(core.TaxRate)
	c.total = c.subtotal.Add(c.tax).Sub(c.discount)
}
