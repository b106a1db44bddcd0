// Package order implements the order engine: cart staging, order creation
// with monetary totals, the status lifecycle and order statistics.
package order

import (
	"fmt"
	"strings"
	"time"

	"pos_client/internal/catalog"
	"pos_client/internal/core"
	"pos_client/internal/store"
	apperrors "pos_client/pkg/errors"
	"pos_client/pkg/logging"
	"pos_client/pkg/telemetry"

	"github.com/shopspring/decimal"
)

// transitions is the order status state machine. Completed and cancelled are
// terminal.
var transitions = map[core.OrderStatus][]core.OrderStatus{
	core.OrderPending:    {core.OrderProcessing, core.OrderCompleted, core.OrderCancelled},
	core.OrderProcessing: {core.OrderCompleted, core.OrderCancelled},
}

func canTransition(from, to core.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Engine owns the order collection and its lifecycle
type Engine struct {
	orders  *store.Store[core.Order]
	catalog *catalog.Engine
	logger  logging.Logger
}

func NewEngine(orders *store.Store[core.Order], cat *catalog.Engine, logger logging.Logger) *Engine {
	return &Engine{
		orders:  orders,
		catalog: cat,
		logger:  logger.WithField("component", "orders"),
	}
}

// Subscribe exposes the order store's change stream
func (e *Engine) Subscribe() (<-chan []core.Order, func()) {
	return e.orders.Subscribe()
}

// NewCart creates a cart resolving products against the current catalog.
// Inactive products do not resolve.
func (e *Engine) NewCart() *Cart {
	return NewCart(func(id int) (core.Product, bool) {
		p, err := e.catalog.GetByID(id)
		if err != nil || !p.Active {
			return core.Product{}, false
		}
		return p, true
	})
}

// CreateOrder commits the cart as a pending order for the acting shop. The
// persisted order, including its generated order number, is returned
// synchronously; the durable write completes in the background. Stock was
// validated line by line at cart-build time and is not re-checked here.
func (e *Engine) CreateOrder(cart *Cart, actor core.Shop, customerName, customerPhone, paymentMethod, notes string) (core.Order, error) {
	if cart == nil || cart.Len() == 0 {
		return core.Order{}, fmt.Errorf("%w: the order has no items", apperrors.ErrValidation)
	}
	if strings.TrimSpace(customerName) == "" || strings.TrimSpace(customerPhone) == "" {
		return core.Order{}, fmt.Errorf("%w: customer name and phone are required", apperrors.ErrValidation)
	}

	now := time.Now()
	created := e.orders.CreateWith(func(id int) core.Order {
		return core.Order{
			ID:            id,
			OrderNumber:   core.OrderNumber(now.Year(), id),
			ShopID:        actor.ID,
			ShopName:      actor.Name,
			Items:         cart.Items(),
			Subtotal:      cart.Subtotal(),
			Tax:           cart.Tax(),
			Discount:      cart.Discount(),
			Total:         cart.Total(),
			Status:        core.OrderPending,
			PaymentMethod: paymentMethod,
			CustomerName:  customerName,
			CustomerPhone: customerPhone,
			Notes:         notes,
			CreatedDate:   now,
		}
	})

	cart.Clear()
	telemetry.OrdersCreated.Inc()
	e.logger.Info("Order created",
		"id", created.ID, "order_number", created.OrderNumber,
		"shop_id", created.ShopID, "total", created.Total)
	return created, nil
}

// UpdateStatus applies a lifecycle transition. Transitioning to completed sets
// the completion timestamp and decrements catalog stock for the ordered lines.
func (e *Engine) UpdateStatus(id int, status core.OrderStatus) (core.Order, error) {
	if !status.Valid() {
		return core.Order{}, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}

	current, ok := e.orders.Get(id)
	if !ok {
		return core.Order{}, fmt.Errorf("order %d: %w", id, apperrors.ErrNotFound)
	}
	if !canTransition(current.Status, status) {
		return core.Order{}, fmt.Errorf("%w: cannot transition order from %s to %s", apperrors.ErrValidation, current.Status, status)
	}

	updated, err := e.orders.Update(id, func(o core.Order) core.Order {
		o.Status = status
		if status == core.OrderCompleted {
			completed := time.Now()
			o.CompletedDate = &completed
		}
		return o
	})
	if err != nil {
		return core.Order{}, err
	}

	if status == core.OrderCompleted {
		e.catalog.DecrementStock(updated.Items)
	}

	e.logger.Info("Order status updated", "id", id, "status", status)
	return updated, nil
}

// Delete removes an order. Only the administrator may delete orders.
func (e *Engine) Delete(actor core.Shop, id int) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only the administrator can delete orders", apperrors.ErrValidation)
	}
	return e.orders.Delete(id)
}

// GetByID resolves an order
func (e *Engine) GetByID(id int) (core.Order, error) {
	o, ok := e.orders.Get(id)
	if !ok {
		return core.Order{}, fmt.Errorf("order %d: %w", id, apperrors.ErrNotFound)
	}
	return o, nil
}

// OrdersFor applies the visibility rule: the administrator sees every order,
// a shop actor only ever sees orders belonging to its own shop id.
func (e *Engine) OrdersFor(actor core.Shop) []core.Order {
	all := e.orders.Snapshot()
	if actor.IsAdmin() {
		return all
	}
	visible := make([]core.Order, 0, len(all))
	for _, o := range all {
		if o.ShopID == actor.ID {
			visible = append(visible, o)
		}
	}
	return visible
}

// scoped returns the orders for one shop id, or all orders when shopID is 0
func (e *Engine) scoped(shopID int) []core.Order {
	all := e.orders.Snapshot()
	if shopID == 0 {
		return all
	}
	var out []core.Order
	for _, o := range all {
		if o.ShopID == shopID {
			out = append(out, o)
		}
	}
	return out
}

// TotalOrders counts orders, optionally scoped to one shop (0 = all)
func (e *Engine) TotalOrders(shopID int) int {
	return len(e.scoped(shopID))
}

// CountByStatus counts orders in one status, optionally scoped to one shop
func (e *Engine) CountByStatus(status core.OrderStatus, shopID int) int {
	count := 0
	for _, o := range e.scoped(shopID) {
		if o.Status == status {
			count++
		}
	}
	return count
}

// TotalRevenue sums totals over completed orders only
func (e *Engine) TotalRevenue(shopID int) decimal.Decimal {
	revenue := decimal.Zero
	for _, o := range e.scoped(shopID) {
		if o.Status == core.OrderCompleted {
			revenue = revenue.Add(o.Total)
		}
	}
	return revenue
}

// AverageOrderValue is revenue divided by the number of completed orders,
// zero when none exist
func (e *Engine) AverageOrderValue(shopID int) decimal.Decimal {
	completed := e.CountByStatus(core.OrderCompleted, shopID)
	if completed == 0 {
		return decimal.Zero
	}
	return e.TotalRevenue(shopID).Div(decimal.NewFromInt(int64(completed)))
}

// Stats bundles the dashboard counters for one shop (0 = all)
type Stats struct {
	Total             int
	Pending           int
	Processing        int
	Completed         int
	Cancelled         int
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
}

// GetStats computes all counters in one pass over the scoped orders
func (e *Engine) GetStats(shopID int) Stats {
	stats := Stats{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	for _, o := range e.scoped(shopID) {
		stats.Total++
		switch o.Status {
		case core.OrderPending:
			stats.Pending++
		case core.OrderProcessing:
			stats.Processing++
		case core.OrderCompleted:
			stats.Completed++
			stats.TotalRevenue = stats.TotalRevenue.Add(o.Total)
		case core.OrderCancelled:
			stats.Cancelled++
		}
	}
	if stats.Completed > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.Div(decimal.NewFromInt(int64(stats.Completed)))
	}
	return stats
}

// SearchFields yields the searchable field values used by the query filter
func SearchFields(o core.Order) []string {
	return []string{o.OrderNumber, o.CustomerName, o.CustomerPhone}
}
