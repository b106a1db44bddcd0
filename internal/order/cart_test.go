package order

import (
	"testing"

	"pos_client/internal/core"
	apperrors "pos_client/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapResolver(products ...core.Product) ProductResolver {
	byID := make(map[int]core.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return func(id int) (core.Product, bool) {
		p, ok := byID[id]
		return p, ok
	}
}

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func assertDecimal(t *testing.T, expected int64, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(expected).Equal(actual), "expected %d, got %s", expected, actual)
}

func TestAddLineValidation(t *testing.T) {
	cart := NewCart(mapResolver(core.Product{ID: 1, Name: "Widget", Price: price(10), Stock: 5}))

	tests := []struct {
		name      string
		productID int
		quantity  int
		wantErr   error
	}{
		{name: "zero quantity", productID: 1, quantity: 0, wantErr: apperrors.ErrValidation},
		{name: "negative quantity", productID: 1, quantity: -2, wantErr: apperrors.ErrValidation},
		{name: "no product selected", productID: 0, quantity: 1, wantErr: apperrors.ErrValidation},
		{name: "unknown product", productID: 99, quantity: 1, wantErr: apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cart.AddLine(tt.productID, tt.quantity)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, cart.Len(), "cart must stay untouched on failure")
		})
	}
}

func TestAddLineCumulativeStockCheck(t *testing.T) {
	cart := NewCart(mapResolver(core.Product{ID: 1, Name: "Widget", Price: price(10), Stock: 5}))

	require.NoError(t, cart.AddLine(1, 3))
	require.Equal(t, 1, cart.Len())
	assertDecimal(t, 30, cart.Items()[0].Total)

	// 3 staged + 3 more exceeds stock 5
	err := cart.AddLine(1, 3)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	// The staged line is unchanged
	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestAddLineMergesIntoExistingLine(t *testing.T) {
	cart := NewCart(mapResolver(core.Product{ID: 1, Name: "Widget", Price: price(10), Stock: 10}))

	require.NoError(t, cart.AddLine(1, 2))
	require.NoError(t, cart.AddLine(1, 3))

	items := cart.Items()
	require.Len(t, items, 1, "re-adding a product must not duplicate the line")
	assert.Equal(t, 5, items[0].Quantity)
	assertDecimal(t, 50, items[0].Total)
}

func TestCartTotals(t *testing.T) {
	cart := NewCart(mapResolver(core.Product{ID: 1, Name: "Widget", Price: price(25), Stock: 10}))

	require.NoError(t, cart.AddLine(1, 2))

	assertDecimal(t, 50, cart.Subtotal())
	assertDecimal(t, 5, cart.Tax())
	assertDecimal(t, 55, cart.Total())
}

func TestCartDiscount(t *testing.T) {
	cart := NewCart(mapResolver(core.Product{ID: 1, Name: "Widget", Price: price(25), Stock: 10}))
	require.NoError(t, cart.AddLine(1, 2))

	require.NoError(t, cart.SetDiscount(price(10)))
	assertDecimal(t, 45, cart.Total())

	assert.ErrorIs(t, cart.SetDiscount(price(-1)), apperrors.ErrValidation)
	// rejected discount must not change totals
	assertDecimal(t, 45, cart.Total())
}

func TestRemoveLine(t *testing.T) {
	cart := NewCart(mapResolver(
		core.Product{ID: 1, Name: "Widget", Price: price(10), Stock: 10},
		core.Product{ID: 2, Name: "Gadget", Price: price(20), Stock: 10},
	))
	require.NoError(t, cart.AddLine(1, 1))
	require.NoError(t, cart.AddLine(2, 1))

	cart.RemoveLine(0)
	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].ProductID)
	assertDecimal(t, 20, cart.Subtotal())

	// Out-of-range indexes are ignored
	cart.RemoveLine(-1)
	cart.RemoveLine(5)
	assert.Equal(t, 1, cart.Len())
}

func TestCartClear(t *testing.T) {
	cart := NewCart(mapResolver(core.Product{ID: 1, Name: "Widget", Price: price(10), Stock: 10}))
	require.NoError(t, cart.AddLine(1, 2))
	require.NoError(t, cart.SetDiscount(price(3)))

	cart.Clear()

	assert.Equal(t, 0, cart.Len())
	assertDecimal(t, 0, cart.Subtotal())
	assertDecimal(t, 0, cart.Discount())
	assertDecimal(t, 0, cart.Total())
}
