package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile mirrors the auth provider's user record. The ID is the
// provider's subject and is never generated locally.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	Description      string          `json:"description,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Image            string          `json:"image"`
	Stock            int             `json:"stock"`
	IsLimitedEdition bool            `json:"is_limited_edition"`
	Rarity           string          `json:"rarity"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ShippingInfo is a plain value record embedded into the order header
// at creation time. It is never persisted on its own.
type ShippingInfo struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Total           decimal.Decimal `json:"total"`
	Shipping        ShippingInfo    `json:"shipping"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	Status          string          `json:"status"`
	TrackingNumber  *string         `json:"tracking_number"`
	TrackingCourier *string         `json:"tracking_courier"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem is an immutable snapshot of a cart line at submission time.
// ProductName and ProductImage are the product's current display fields,
// joined on the read path only.
type OrderItem struct {
	ID           int64           `json:"id"`
	OrderID      string          `json:"order_id"`
	ProductID    int64           `json:"product_id"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ProductName  string          `json:"product_name,omitempty"`
	ProductImage string          `json:"product_image,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

const (
	PaymentMethodCOD   = "cod"
	PaymentMethodGCash = "gcash"
	PaymentMethodCard  = "card"
	PaymentMethodBank  = "bank"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

const (
	OrderStatusProcessing = "processing"
	OrderStatusInTransit  = "in_transit"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)
