package auth

import (
	"context"
	"path/filepath"
	"testing"

	"pos_client/internal/core"
	"pos_client/internal/datasource"
	apperrors "pos_client/pkg/errors"
	"pos_client/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) (*Context, *datasource.Cache) {
	t.Helper()
	cache, err := datasource.OpenCache(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	source := datasource.NewLocalSource(cache)
	_, err = source.Shops.Create(context.Background(), core.Shop{
		ID: 3, Name: "Corner Store", Email: "corner@example.com", Role: core.RoleShop, Active: true,
	})
	require.NoError(t, err)

	return NewContext(source.Sessions, logging.NewNop()), cache
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	authCtx, _ := newTestContext(t)

	assert.False(t, authCtx.IsLoggedIn())

	session, err := authCtx.Login(ctx, "corner@example.com", core.DefaultShopPassword)
	require.NoError(t, err)
	assert.Equal(t, 3, session.Shop.ID)

	assert.True(t, authCtx.IsLoggedIn())
	assert.True(t, authCtx.IsShop())
	assert.False(t, authCtx.IsAdmin())

	shop, ok := authCtx.CurrentShop()
	require.True(t, ok)
	assert.Equal(t, "Corner Store", shop.Name)

	require.NoError(t, authCtx.Logout(ctx))
	assert.False(t, authCtx.IsLoggedIn())
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()
	authCtx, _ := newTestContext(t)

	_, err := authCtx.Login(ctx, core.AdminEmail, core.AdminPassword)
	require.NoError(t, err)

	assert.True(t, authCtx.IsAdmin())
	assert.False(t, authCtx.IsShop())
}

func TestRejectedLoginLeavesContextEmpty(t *testing.T) {
	ctx := context.Background()
	authCtx, _ := newTestContext(t)

	_, err := authCtx.Login(ctx, "corner@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.False(t, authCtx.IsLoggedIn())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	authCtx, cache := newTestContext(t)

	_, err := authCtx.Login(ctx, "corner@example.com", core.DefaultShopPassword)
	require.NoError(t, err)

	// A fresh context over the same cache restores the actor
	fresh := NewContext(datasource.NewLocalSource(cache).Sessions, logging.NewNop())
	require.NoError(t, fresh.Restore(ctx))

	assert.True(t, fresh.IsLoggedIn())
	shop, ok := fresh.CurrentShop()
	require.True(t, ok)
	assert.Equal(t, 3, shop.ID)

	// Restore with nothing persisted resolves nobody
	authCtx2, _ := newTestContext(t)
	require.NoError(t, authCtx2.Restore(ctx))
	assert.False(t, authCtx2.IsLoggedIn())
}
