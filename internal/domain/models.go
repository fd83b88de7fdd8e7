package domain

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductActive     ProductStatus = "active"
	ProductInactive   ProductStatus = "inactive"
	ProductOutOfStock ProductStatus = "out_of_stock"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductActive, ProductInactive, ProductOutOfStock:
		return true
	}
	return false
}

type Brand struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Variant is one (color, size) stock-keeping unit of a product.
type Variant struct {
	Color         string `json:"color"`
	Size          int    `json:"size"`
	StockQuantity int    `json:"stock_quantity"`
}

// Matches reports whether the variant satisfies an optional size and color.
// Zero size and empty color act as wildcards.
func (v Variant) Matches(size int, color string) bool {
	return (size == 0 || v.Size == size) && (color == "" || v.Color == color)
}

type Variants []Variant

func (vs *Variants) Scan(src any) error {
	*vs = nil
	return scanJSON(src, vs)
}

func (vs Variants) Value() (driver.Value, error) {
	if vs == nil {
		return "[]", nil
	}
	return valueJSON([]Variant(vs))
}

// Find returns the index of the first variant matching size and color, or -1.
func (vs Variants) Find(size int, color string) int {
	for i, v := range vs {
		if v.Matches(size, color) {
			return i
		}
	}
	return -1
}

func (vs Variants) TotalStock() int {
	n := 0
	for _, v := range vs {
		n += v.StockQuantity
	}
	return n
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	CategoryID  string          `db:"category_id" json:"category_id,omitempty"`
	BrandID     string          `db:"brand_id" json:"brand_id,omitempty"`
	Status      ProductStatus   `db:"status" json:"status"`
	ImageURLs   StringList      `db:"image_urls" json:"image_urls"`
	Variants    Variants        `db:"variants" json:"variants"`
	Version     int             `db:"version" json:"-"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (p *Product) FirstImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

type ProductFilter struct {
	Keyword    string
	CategoryID string
	BrandID    string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Status     ProductStatus
	Page       int
	Size       int
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

type Review struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UserName  string    `db:"user_name" json:"user_name,omitempty"`
	ProductID string    `db:"product_id" json:"product_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Page is the paging envelope shared by list endpoints.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalPages int `json:"total_pages"`
}

func NewPage[T any](items []T, total, page, size int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return Page[T]{Items: items, Total: total, Page: page, Size: size, TotalPages: pages}
}
