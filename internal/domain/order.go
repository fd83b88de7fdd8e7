package domain

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

const PaymentMethodStripe = "stripe"

// DeliveryAddress is stored as a JSON document on the order row.
type DeliveryAddress struct {
	StreetAddress  string `json:"street_address"`
	Ward           string `json:"ward,omitempty"`
	ProvinceCity   string `json:"province_city"`
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
}

func (a DeliveryAddress) IsZero() bool { return a == DeliveryAddress{} }

func (a *DeliveryAddress) Scan(src any) error {
	*a = DeliveryAddress{}
	return scanJSON(src, a)
}

func (a DeliveryAddress) Value() (driver.Value, error) { return valueJSON(a) }

type Order struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user_id"`
	UserFullName    string          `db:"user_full_name" json:"user_full_name,omitempty"`
	DeliveryAddress DeliveryAddress `db:"delivery_address" json:"delivery_address"`
	OrderDate       time.Time       `db:"order_date" json:"order_date"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status          OrderStatus     `db:"status" json:"status"`
	PaymentStatus   PaymentStatus   `db:"payment_status" json:"payment_status"`
	PaymentIntentID string          `db:"payment_intent_id" json:"payment_intent_id,omitempty"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
	Items           []OrderItem     `db:"-" json:"items"`
}

// OrderItem is a snapshot of one purchased line; it is never updated.
type OrderItem struct {
	ID              string          `db:"id" json:"id"`
	OrderID         string          `db:"order_id" json:"order_id"`
	ProductID       string          `db:"product_id" json:"product_id"`
	ProductName     string          `db:"product_name" json:"product_name"`
	ProductImage    string          `db:"product_image" json:"product_image,omitempty"`
	Size            int             `db:"size" json:"size,omitempty"`
	Color           string          `db:"color" json:"color,omitempty"`
	Quantity        int             `db:"quantity" json:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase" json:"price_at_purchase"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderFilter struct {
	UserID        string
	ProductID     string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	Limit         int
}

// OrderPage is the paging envelope of order listings.
type OrderPage struct {
	Orders     []Order `json:"orders"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}

func NewOrderPage(orders []Order, total, page, limit int) OrderPage {
	p := NewPage(orders, total, page, limit)
	return OrderPage{Orders: p.Items, Total: p.Total, Page: p.Page, Limit: p.Size, TotalPages: p.TotalPages}
}

// OrderLine is a requested purchase line for a direct ("buy now") checkout.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      int    `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// OutboxEvent is written in the same transaction as the state change it announces.
type OutboxEvent struct {
	ID          string     `db:"id"`
	AggregateID string     `db:"aggregate_id"`
	EventType   string     `db:"event_type"`
	Payload     []byte     `db:"payload"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}

const EventOrderCreated = "order.created"
