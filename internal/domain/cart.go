package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartItem is one line of a cart. Size 0 and empty Color mean "not specified".
type CartItem struct {
	ID        string    `db:"id" json:"id"`
	CartID    string    `db:"cart_id" json:"cart_id"`
	ProductID string    `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Size      int       `db:"size" json:"size,omitempty"`
	Color     string    `db:"color" json:"color,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartLine is a cart item joined with the current product data.
type CartLine struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
	Size         int             `json:"size,omitempty"`
	Color        string          `json:"color,omitempty"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Items       []CartLine      `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
