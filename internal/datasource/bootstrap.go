package datasource

import (
	"context"
	"fmt"
	"sync"

	"pos_client/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// Loader performs the initial bootstrap read of every collection. Collections
// are unusable until Ready() is closed; callers must wait on it rather than
// treat an empty collection as authoritative.
type Loader struct {
	source *Source
	logger logging.Logger

	mu       sync.Mutex
	ready    chan struct{}
	snapshot Snapshot
}

// NewLoader creates a bootstrap loader over the source
func NewLoader(source *Source, logger logging.Logger) *Loader {
	return &Loader{
		source: source,
		logger: logger.WithField("component", "bootstrap"),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once bootstrap data is available
func (l *Loader) Ready() <-chan struct{} {
	return l.ready
}

// Snapshot returns the bootstrap snapshot. Only valid after Ready() fires.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

// Load reads all four collections concurrently and signals readiness. A failed
// read leaves that collection empty rather than aborting startup; the system
// stays usable with whatever data arrived.
func (l *Loader) Load(ctx context.Context) error {
	var snap Snapshot

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := l.source.Products.List(gctx)
		if err != nil {
			l.logger.Error("Failed to load products", "error", err)
			return nil
		}
		snap.Products = records
		return nil
	})
	g.Go(func() error {
		records, err := l.source.Shops.List(gctx)
		if err != nil {
			l.logger.Error("Failed to load shops", "error", err)
			return nil
		}
		snap.Shops = records
		return nil
	})
	g.Go(func() error {
		records, err := l.source.Orders.List(gctx)
		if err != nil {
			l.logger.Error("Failed to load orders", "error", err)
			return nil
		}
		snap.Orders = records
		return nil
	})
	g.Go(func() error {
		records, err := l.source.Categories.List(gctx)
		if err != nil {
			l.logger.Error("Failed to load categories", "error", err)
			return nil
		}
		snap.Categories = records
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("bootstrap load: %w", err)
	}

	l.mu.Lock()
	l.snapshot = snap
	l.mu.Unlock()
	close(l.ready)

	l.logger.Info("Bootstrap data loaded",
		"products", len(snap.Products),
		"shops", len(snap.Shops),
		"orders", len(snap.Orders),
		"categories", len(snap.Categories))
	return nil
}

// Export reads every collection into a snapshot for backup
func Export(ctx context.Context, source *Source) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Products, err = source.Products.List(ctx); err != nil {
		return snap, err
	}
	if snap.Shops, err = source.Shops.List(ctx); err != nil {
		return snap, err
	}
	if snap.Orders, err = source.Orders.List(ctx); err != nil {
		return snap, err
	}
	if snap.Categories, err = source.Categories.List(ctx); err != nil {
		return snap, err
	}
	return snap, nil
}

// Import writes a snapshot back into the source. Existing records with
// matching identifiers are replaced; records absent from the snapshot are
// left untouched.
func Import(ctx context.Context, source *Source, snap Snapshot) error {
	for _, p := range snap.Products {
		if _, err := source.Products.Create(ctx, p); err != nil {
			return err
		}
	}
	for _, s := range snap.Shops {
		if _, err := source.Shops.Create(ctx, s); err != nil {
			return err
		}
	}
	for _, o := range snap.Orders {
		if _, err := source.Orders.Create(ctx, o); err != nil {
			return err
		}
	}
	for _, c := range snap.Categories {
		if _, err := source.Categories.Create(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
