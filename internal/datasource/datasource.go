// Package datasource implements the persistence adapter: named record
// collections backed either by a local durable cache or by a remote service.
// The engine treats both uniformly through the Collection interface; which one
// is used is a configuration decision, never a runtime fallback.
package datasource

import (
	"context"

	"pos_client/internal/core"
)

// Collection names as stored durably
const (
	CollectionProducts   = "products"
	CollectionShops      = "shops"
	CollectionOrders     = "orders"
	CollectionCategories = "categories"
)

// Entity is any record with an integer identifier
type Entity interface {
	GetID() int
}

// Collection is the record-level persistence contract. Every method is
// fallible with a transport-level error wrapping apperrors.ErrTransport;
// Update and Delete report apperrors.ErrNotFound for unknown identifiers.
type Collection[T Entity] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, id int, record T) (T, error)
	Delete(ctx context.Context, id int) error
}

// SessionSource resolves and persists the active login session
type SessionSource interface {
	// Login authenticates the actor and persists the resulting session.
	// Fails with apperrors.ErrInvalidCredentials when rejected.
	Login(ctx context.Context, email, secret string) (*core.Session, error)
	// Current returns the persisted session, or nil when nobody is logged in
	Current(ctx context.Context) (*core.Session, error)
	// Clear removes the persisted session on logout
	Clear(ctx context.Context) error
}

// Source bundles the four entity collections and the session source
type Source struct {
	Products   Collection[core.Product]
	Shops      Collection[core.Shop]
	Orders     Collection[core.Order]
	Categories Collection[core.Category]
	Sessions   SessionSource
}

// Snapshot is a full copy of every collection, used for bootstrap, export
// and restore
type Snapshot struct {
	Products   []core.Product  `json:"products"`
	Shops      []core.Shop     `json:"shops"`
	Orders     []core.Order    `json:"orders"`
	Categories []core.Category `json:"categories"`
}
