package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Fixed business constants. These are part of the engine contract and must
// not be made configurable.
const (
	// AdminShopID is the reserved identifier of the administrator actor
	AdminShopID = 0

	// LowStockThreshold marks products that need restocking
	LowStockThreshold = 20

	// DefaultShopPassword is the shared demo credential for shop logins
	DefaultShopPassword = "shop123"

	// AdminEmail and AdminPassword are the administrator credentials
	AdminEmail    = "admin@cxp.com"
	AdminPassword = "Admin123!"
)

// TaxRate is the fixed tax applied to every order subtotal
var TaxRate = decimal.NewFromFloat(0.10)

// OrderNumber formats an order identifier as ORD-<year>-<4-digit sequence>
func OrderNumber(year int, id int) string {
	return fmt.Sprintf("ORD-%d-%04d", year, id)
}
