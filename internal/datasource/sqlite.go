package datasource

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pos_client/internal/core"
	apperrors "pos_client/pkg/errors"
	"pos_client/pkg/retry"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT    NOT NULL,
	id         INTEGER NOT NULL,
	data       TEXT    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE TABLE IF NOT EXISTS session (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	data       TEXT    NOT NULL,
	checksum   BLOB    NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Cache is the local durable store shared by all SQLite collections
type Cache struct {
	db *sql.DB
}

// OpenCache opens (and if necessary initializes) the local cache database
func OpenCache(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable WAL mode for crash recovery
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(cacheSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database handle
func (c *Cache) Close() error {
	return c.db.Close()
}

// isBusy reports whether a SQLite error is a transient lock contention error
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

// SQLiteCollection implements Collection against the local cache. Records are
// stored as JSON rows keyed by collection name and identifier.
type SQLiteCollection[T Entity] struct {
	cache *Cache
	name  string
}

// NewSQLiteCollection creates a collection view over the cache
func NewSQLiteCollection[T Entity](cache *Cache, name string) *SQLiteCollection[T] {
	return &SQLiteCollection[T]{cache: cache, name: name}
}

func (c *SQLiteCollection[T]) List(ctx context.Context) ([]T, error) {
	rows, err := c.cache.db.QueryContext(ctx,
		`SELECT data FROM records WHERE collection = ? ORDER BY id`, c.name)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", apperrors.ErrTransport, c.name, err)
	}
	defer rows.Close()

	var records []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", apperrors.ErrTransport, c.name, err)
		}
		var record T
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("%w: decode %s record: %v", apperrors.ErrTransport, c.name, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", apperrors.ErrTransport, c.name, err)
	}

	return records, nil
}

func (c *SQLiteCollection[T]) Create(ctx context.Context, record T) (T, error) {
	if err := c.write(ctx, record.GetID(), record); err != nil {
		var zero T
		return zero, err
	}
	return record, nil
}

func (c *SQLiteCollection[T]) Update(ctx context.Context, id int, record T) (T, error) {
	var zero T

	exists, err := c.exists(ctx, id)
	if err != nil {
		return zero, err
	}
	if !exists {
		return zero, fmt.Errorf("%s %d: %w", c.name, id, apperrors.ErrNotFound)
	}

	if err := c.write(ctx, id, record); err != nil {
		return zero, err
	}
	return record, nil
}

func (c *SQLiteCollection[T]) Delete(ctx context.Context, id int) error {
	var affected int64
	err := retry.Do(ctx, retry.DefaultPolicy, isBusy, func() error {
		res, err := c.cache.db.ExecContext(ctx,
			`DELETE FROM records WHERE collection = ? AND id = ?`, c.name, id)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s %d: %v", apperrors.ErrTransport, c.name, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", c.name, id, apperrors.ErrNotFound)
	}
	return nil
}

func (c *SQLiteCollection[T]) write(ctx context.Context, id int, record T) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: encode %s record: %v", apperrors.ErrTransport, c.name, err)
	}

	err = retry.Do(ctx, retry.DefaultPolicy, isBusy, func() error {
		_, err := c.cache.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO records (collection, id, data, updated_at) VALUES (?, ?, ?, ?)`,
			c.name, id, string(data), time.Now().UnixNano())
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: write %s %d: %v", apperrors.ErrTransport, c.name, id, err)
	}
	return nil
}

func (c *SQLiteCollection[T]) exists(ctx context.Context, id int) (bool, error) {
	var one int
	err := c.cache.db.QueryRowContext(ctx,
		`SELECT 1 FROM records WHERE collection = ? AND id = ?`, c.name, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: lookup %s %d: %v", apperrors.ErrTransport, c.name, id, err)
	}
	return true, nil
}

// LocalSessions validates credentials against the locally cached shop list and
// persists the session in the cache database
type LocalSessions struct {
	cache *Cache
	shops Collection[core.Shop]
}

// NewLocalSessions creates a session source over the local cache
func NewLocalSessions(cache *Cache, shops Collection[core.Shop]) *LocalSessions {
	return &LocalSessions{cache: cache, shops: shops}
}

func (s *LocalSessions) Login(ctx context.Context, email, secret string) (*core.Session, error) {
	if strings.EqualFold(email, core.AdminEmail) && secret == core.AdminPassword {
		session := &core.Session{
			Shop: core.Shop{
				ID:          core.AdminShopID,
				Name:        "Admin",
				Email:       core.AdminEmail,
				Role:        core.RoleAdmin,
				Active:      true,
				CreatedDate: time.Now(),
				LastUpdated: time.Now(),
			},
			Token:     uuid.NewString(),
			LoginTime: time.Now(),
		}
		if err := saveSession(ctx, s.cache, *session); err != nil {
			return nil, err
		}
		return session, nil
	}

	shops, err := s.shops.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, shop := range shops {
		if !strings.EqualFold(shop.Email, email) || !shop.Active {
			continue
		}
		if secret != core.DefaultShopPassword {
			return nil, apperrors.ErrInvalidCredentials
		}
		session := &core.Session{
			Shop:      shop,
			Token:     uuid.NewString(),
			LoginTime: time.Now(),
		}
		if err := saveSession(ctx, s.cache, *session); err != nil {
			return nil, err
		}
		return session, nil
	}

	return nil, apperrors.ErrInvalidCredentials
}

func (s *LocalSessions) Current(ctx context.Context) (*core.Session, error) {
	return loadSession(ctx, s.cache)
}

func (s *LocalSessions) Clear(ctx context.Context) error {
	_, err := s.cache.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("%w: clear session: %v", apperrors.ErrTransport, err)
	}
	return nil
}

func saveSession(ctx context.Context, cache *Cache, session core.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: encode session: %v", apperrors.ErrTransport, err)
	}

	checksum := sha256.Sum256(data)
	_, err = cache.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO session (id, data, checksum, updated_at) VALUES (1, ?, ?, ?)`,
		string(data), checksum[:], time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("%w: save session: %v", apperrors.ErrTransport, err)
	}
	return nil
}

func loadSession(ctx context.Context, cache *Cache) (*core.Session, error) {
	var data string
	var storedChecksum []byte
	err := cache.db.QueryRowContext(ctx,
		`SELECT data, checksum FROM session WHERE id = 1`).Scan(&data, &storedChecksum)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load session: %v", apperrors.ErrTransport, err)
	}

	computed := sha256.Sum256([]byte(data))
	if len(storedChecksum) != len(computed) {
		return nil, fmt.Errorf("%w: session checksum length mismatch", apperrors.ErrTransport)
	}
	for i := range computed {
		if storedChecksum[i] != computed[i] {
			return nil, fmt.Errorf("%w: session checksum verification failed", apperrors.ErrTransport)
		}
	}

	var session core.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", apperrors.ErrTransport, err)
	}
	return &session, nil
}

// NewLocalSource wires all four collections and the session source over one cache
func NewLocalSource(cache *Cache) *Source {
	shops := NewSQLiteCollection[core.Shop](cache, CollectionShops)
	return &Source{
		Products:   NewSQLiteCollection[core.Product](cache, CollectionProducts),
		Shops:      shops,
		Orders:     NewSQLiteCollection[core.Order](cache, CollectionOrders),
		Categories: NewSQLiteCollection[core.Category](cache, CollectionCategories),
		Sessions:   NewLocalSessions(cache, shops),
	}
}
