// Package shop implements shop management: CRUD, balances and the
// visibility rules tied to the acting identity.
package shop

import (
	"fmt"
	"strings"
	"time"

	"pos_client/internal/core"
	"pos_client/internal/store"
	apperrors "pos_client/pkg/errors"
	"pos_client/pkg/logging"

	"github.com/shopspring/decimal"
)

// Engine owns the shop collection. Shops are soft-deleted: Deactivate clears
// the active flag so the record stays resolvable for historical orders.
type Engine struct {
	shops  *store.Store[core.Shop]
	logger logging.Logger
}

func NewEngine(shops *store.Store[core.Shop], logger logging.Logger) *Engine {
	return &Engine{
		shops:  shops,
		logger: logger.WithField("component", "shops"),
	}
}

// Subscribe exposes the shop store's change stream
func (e *Engine) Subscribe() (<-chan []core.Shop, func()) {
	return e.shops.Subscribe()
}

// Shops returns the active shop records
func (e *Engine) Shops() []core.Shop {
	all := e.shops.Snapshot()
	visible := make([]core.Shop, 0, len(all))
	for _, s := range all {
		if s.Active {
			visible = append(visible, s)
		}
	}
	return visible
}

// ShopsFor applies the visibility rule: the administrator sees every shop, a
// shop actor sees only its own record.
func (e *Engine) ShopsFor(actor core.Shop) []core.Shop {
	if actor.IsAdmin() {
		return e.Shops()
	}
	if s, ok := e.shops.Get(actor.ID); ok && s.Active {
		return []core.Shop{s}
	}
	return nil
}

// GetByID resolves a shop record
func (e *Engine) GetByID(id int) (core.Shop, error) {
	s, ok := e.shops.Get(id)
	if !ok {
		return core.Shop{}, fmt.Errorf("shop %d: %w", id, apperrors.ErrNotFound)
	}
	return s, nil
}

// GetByEmail resolves a shop by its login key
func (e *Engine) GetByEmail(email string) (core.Shop, error) {
	for _, s := range e.shops.Snapshot() {
		if strings.EqualFold(s.Email, email) {
			return s, nil
		}
	}
	return core.Shop{}, fmt.Errorf("shop %s: %w", email, apperrors.ErrNotFound)
}

// Create validates and registers a new shop
func (e *Engine) Create(s core.Shop) (core.Shop, error) {
	if err := e.validate(s, 0); err != nil {
		return core.Shop{}, err
	}

	now := time.Now()
	s.Role = core.RoleShop
	s.Active = true
	s.CreatedDate = now
	s.LastUpdated = now

	created := e.shops.Create(s)
	e.logger.Info("Shop created", "id", created.ID, "name", created.Name, "email", created.Email)
	return created, nil
}

// Update replaces a shop's editable fields and bumps the update timestamp
func (e *Engine) Update(id int, s core.Shop) (core.Shop, error) {
	if err := e.validate(s, id); err != nil {
		return core.Shop{}, err
	}

	updated, err := e.shops.Update(id, func(existing core.Shop) core.Shop {
		s.ID = existing.ID
		s.Role = existing.Role
		s.Active = existing.Active
		s.CreatedDate = existing.CreatedDate
		s.LastUpdated = time.Now()
		return s
	})
	if err != nil {
		return core.Shop{}, err
	}
	e.logger.Info("Shop updated", "id", id, "name", updated.Name)
	return updated, nil
}

// Deactivate removes a shop from the visible set. Historical orders keep
// their denormalized shop name and are not touched.
func (e *Engine) Deactivate(id int) error {
	if id == core.AdminShopID {
		return fmt.Errorf("%w: the admin record cannot be deactivated", apperrors.ErrValidation)
	}
	_, err := e.shops.Update(id, func(s core.Shop) core.Shop {
		s.Active = false
		s.LastUpdated = time.Now()
		return s
	})
	if err != nil {
		return err
	}
	e.logger.Info("Shop deactivated", "id", id)
	return nil
}

// UpdateBalance sets a shop's balance
func (e *Engine) UpdateBalance(id int, amount decimal.Decimal) (core.Shop, error) {
	updated, err := e.shops.Update(id, func(s core.Shop) core.Shop {
		s.Balance = amount
		s.LastUpdated = time.Now()
		return s
	})
	if err != nil {
		return core.Shop{}, err
	}
	return updated, nil
}

// TotalBalance sums balances across all active shops
func (e *Engine) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, s := range e.Shops() {
		total = total.Add(s.Balance)
	}
	return total
}

func (e *Engine) validate(s core.Shop, selfID int) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: shop name is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(s.Email) == "" {
		return fmt.Errorf("%w: shop email is required", apperrors.ErrValidation)
	}
	for _, existing := range e.shops.Snapshot() {
		if existing.ID != selfID && strings.EqualFold(existing.Email, s.Email) {
			return fmt.Errorf("%w: email %q already registered", apperrors.ErrValidation, s.Email)
		}
	}
	return nil
}

// SearchFields yields the searchable field values used by the query filter
func SearchFields(s core.Shop) []string {
	return []string{s.Name, s.Email, s.Phone, s.Address}
}
