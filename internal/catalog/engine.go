// Package catalog implements the catalog/inventory engine: product CRUD,
// category derivation and stock signals over the reactive product store.
package catalog

import (
	"fmt"
	"strings"

	"pos_client/internal/core"
	"pos_client/internal/store"
	apperrors "pos_client/pkg/errors"
	"pos_client/pkg/logging"
)

// Engine owns product and category reads and mutations. Products are never
// hard-deleted: Deactivate removes them from the visible set so historical
// orders keep resolving.
type Engine struct {
	products   *store.Store[core.Product]
	categories *store.Store[core.Category]
	logger     logging.Logger
}

func NewEngine(products *store.Store[core.Product], categories *store.Store[core.Category], logger logging.Logger) *Engine {
	return &Engine{
		products:   products,
		categories: categories,
		logger:     logger.WithField("component", "catalog"),
	}
}

// Subscribe exposes the product store's change stream
func (e *Engine) Subscribe() (<-chan []core.Product, func()) {
	return e.products.Subscribe()
}

// Products returns the visible (active) catalog
func (e *Engine) Products() []core.Product {
	all := e.products.Snapshot()
	visible := make([]core.Product, 0, len(all))
	for _, p := range all {
		if p.Active {
			visible = append(visible, p)
		}
	}
	return visible
}

// GetByID resolves a product, active or not
func (e *Engine) GetByID(id int) (core.Product, error) {
	p, ok := e.products.Get(id)
	if !ok {
		return core.Product{}, fmt.Errorf("product %d: %w", id, apperrors.ErrNotFound)
	}
	return p, nil
}

// Create validates and adds a product to the catalog
func (e *Engine) Create(p core.Product) (core.Product, error) {
	if err := e.validate(p, 0); err != nil {
		return core.Product{}, err
	}

	p.Active = true
	created := e.products.Create(p)
	e.logger.Info("Product created", "id", created.ID, "name", created.Name, "sku", created.SKU)
	return created, nil
}

// Update replaces a product's editable fields. The identifier and active flag
// are preserved; changing the price must never alter existing orders, which
// hold their own price snapshots.
func (e *Engine) Update(id int, p core.Product) (core.Product, error) {
	if err := e.validate(p, id); err != nil {
		return core.Product{}, err
	}

	updated, err := e.products.Update(id, func(existing core.Product) core.Product {
		p.ID = existing.ID
		p.Active = existing.Active
		return p
	})
	if err != nil {
		return core.Product{}, err
	}
	e.logger.Info("Product updated", "id", id, "name", updated.Name)
	return updated, nil
}

// Deactivate removes a product from the visible set
func (e *Engine) Deactivate(id int) error {
	_, err := e.products.Update(id, func(p core.Product) core.Product {
		p.Active = false
		return p
	})
	if err != nil {
		return err
	}
	e.logger.Info("Product deactivated", "id", id)
	return nil
}

// Search matches the term case-insensitively against name, category and SKU
func (e *Engine) Search(term string) []core.Product {
	needle := strings.ToLower(term)
	var out []core.Product
	for _, p := range e.Products() {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) ||
			strings.Contains(strings.ToLower(p.SKU), needle) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByCategory returns the visible products in one category
func (e *Engine) FilterByCategory(category string) []core.Product {
	var out []core.Product
	for _, p := range e.Products() {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Categories derives the distinct category set from the visible products
func (e *Engine) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range e.Products() {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

// CategoryList returns the backing category records with display icons. This
// list only supplies display metadata; the derived set from Categories is
// authoritative.
func (e *Engine) CategoryList() []core.Category {
	return e.categories.Snapshot()
}

// CategoryByName resolves display metadata for one category
func (e *Engine) CategoryByName(name string) (core.Category, bool) {
	for _, c := range e.categories.Snapshot() {
		if c.Name == name {
			return c, true
		}
	}
	return core.Category{}, false
}

// LowStockCount counts visible products below the restock threshold. Derived
// on every call, never stored.
func (e *Engine) LowStockCount() int {
	count := 0
	for _, p := range e.Products() {
		if p.Stock < core.LowStockThreshold {
			count++
		}
	}
	return count
}

// TotalStock sums stock across the visible catalog
func (e *Engine) TotalStock() int {
	total := 0
	for _, p := range e.Products() {
		total += p.Stock
	}
	return total
}

// Count returns the number of visible products
func (e *Engine) Count() int {
	return len(e.Products())
}

// DecrementStock reduces stock for each ordered line, clamping at zero. Lines
// whose product no longer resolves are skipped: completing a historical order
// must not fail because the catalog moved on.
func (e *Engine) DecrementStock(items []core.OrderItem) {
	for _, item := range items {
		qty := item.Quantity
		_, err := e.products.Update(item.ProductID, func(p core.Product) core.Product {
			p.Stock -= qty
			if p.Stock < 0 {
				p.Stock = 0
			}
			return p
		})
		if err != nil {
			e.logger.Warn("Stock decrement skipped, product not found",
				"product_id", item.ProductID, "quantity", qty)
		}
	}
}

func (e *Engine) validate(p core.Product, selfID int) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: product SKU is required", apperrors.ErrValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: product price must not be negative", apperrors.ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: product stock must not be negative", apperrors.ErrValidation)
	}
	for _, existing := range e.products.Snapshot() {
		if existing.ID != selfID && strings.EqualFold(existing.SKU, p.SKU) {
			return fmt.Errorf("%w: SKU %q already exists", apperrors.ErrValidation, p.SKU)
		}
	}
	return nil
}

// SearchFields yields the searchable field values used by the query filter
func SearchFields(p core.Product) []string {
	return []string{p.Name, p.Category, p.SKU}
}
