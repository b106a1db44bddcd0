// Package core defines the entities and business constants shared across the POS engine
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// Role distinguishes the administrator from ordinary shop actors
type Role string

const (
	RoleAdmin Role = "admin"
	RoleShop  Role = "shop"
)

// Product is a catalog entry. Products are never hard-deleted; they are
// deactivated and drop out of the visible set instead.
type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
	SKU         string          `json:"sku"`
	Image       string          `json:"image,omitempty"`
	Active      bool            `json:"isActive"`
}

func (p Product) GetID() int { return p.ID }

func (p Product) WithID(id int) Product {
	p.ID = id
	return p
}

// Category carries display metadata for a product category. The authoritative
// category set is derived from the products themselves; this record only adds
// an icon for rendering.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (c Category) GetID() int { return c.ID }

func (c Category) WithID(id int) Category {
	c.ID = id
	return c
}

// Shop is the authorization anchor for order visibility. The reserved
// identifier 0 belongs to the administrator.
type Shop struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	Balance       decimal.Decimal `json:"balance"`
	ContactPerson string          `json:"contactPerson,omitempty"`
	City          string          `json:"city,omitempty"`
	State         string          `json:"state,omitempty"`
	ZipCode       string          `json:"zipCode,omitempty"`
	Role          Role            `json:"role"`
	Active        bool            `json:"isActive"`
	CreatedDate   time.Time       `json:"createdDate"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

func (s Shop) GetID() int { return s.ID }

func (s Shop) WithID(id int) Shop {
	s.ID = id
	return s
}

// IsAdmin reports whether this shop record is the administrator
func (s Shop) IsAdmin() bool {
	return s.ID == AdminShopID || s.Role == RoleAdmin
}

// OrderItem is one product line within an order. Name and price are snapshots
// taken at add-time: editing a product later must never alter existing orders.
type OrderItem struct {
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// Order is a committed customer order. Items are immutable after creation;
// only the status (and completion timestamp) change afterwards.
type Order struct {
	ID            int             `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	ShopID        int             `json:"shopId"`
	ShopName      string          `json:"shopName"`
	Items         []OrderItem     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	Notes         string          `json:"notes"`
	CreatedDate   time.Time       `json:"createdDate"`
	CompletedDate *time.Time      `json:"completedDate,omitempty"`
}

func (o Order) GetID() int { return o.ID }

func (o Order) WithID(id int) Order {
	o.ID = id
	return o
}

// Session is the persisted login record for the active actor
type Session struct {
	Shop      Shop      `json:"shop"`
	Token     string    `json:"token,omitempty"`
	LoginTime time.Time `json:"loginTime"`
}
