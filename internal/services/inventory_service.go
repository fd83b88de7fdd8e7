package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
	"babashop/internal/repos"
	"babashop/internal/validate"
)

// maxStockRetries bounds compare-and-swap attempts before a stock write gives up.
const maxStockRetries = 3

type InventoryService struct {
	db  *sqlx.DB
	Inv *repos.InventoryRepo
	now func() time.Time
}

func NewInventoryService(db *sqlx.DB) *InventoryService {
	return &InventoryService{db: db, Inv: repos.NewInventoryRepo(db), now: time.Now}
}

// StockUpdate is an admin write of one variant's stock level.
type StockUpdate struct {
	ProductID string `json:"product_id"`
	Size      int    `json:"size"`
	Color     string `json:"color"`
	Qty       int    `json:"qty"`
}

// CheckAvailability converts variant stock into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
// Without size and colour the whole product's stock is used.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string, size int, color string) (domain.Availability, error) {
	row, err := s.Inv.Stock(ctx, productID)
	if err != nil {
		return domain.Availability{}, notFound(err, "product")
	}

	qty := row.Variants.TotalStock()
	if size != 0 || color != "" {
		qty = 0
		if i := row.Variants.Find(size, color); i >= 0 {
			qty = row.Variants[i].StockQuantity
		}
	}

	status := "OUT_OF_STOCK"
	switch {
	case row.Status != domain.ProductActive:
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

// DecrementStock subtracts qty from the matching variant inside the caller's
// transaction. Stock is floored at zero and the product is marked out_of_stock
// once every variant is sold out. Products without variants carry no stock.
func (s *InventoryService) DecrementStock(ctx context.Context, tx repos.DB, productID string, size int, color string, qty int) error {
	return s.swap(ctx, repos.NewInventoryRepo(tx), productID, func(row *repos.StockRow) error {
		if len(row.Variants) == 0 {
			return nil
		}
		i := row.Variants.Find(size, color)
		if i < 0 {
			return nil
		}
		left := row.Variants[i].StockQuantity - qty
		if left < 0 {
			left = 0
		}
		row.Variants[i].StockQuantity = left
		if row.Variants.TotalStock() == 0 {
			row.Status = domain.ProductOutOfStock
		}
		return nil
	})
}

// SetStock replaces one variant's stock, adding the variant when size and
// colour name a new one.
func (s *InventoryService) SetStock(ctx context.Context, in StockUpdate) (repos.StockRow, error) {
	if in.ProductID == "" {
		return repos.StockRow{}, invalid("product_id is required")
	}
	if in.Size <= 0 {
		return repos.StockRow{}, invalid("size must be positive")
	}
	color, ok := validate.Color(in.Color)
	if !ok {
		return repos.StockRow{}, invalid("color is required")
	}
	if !validate.Between(in.Qty, 0, 100000) {
		return repos.StockRow{}, invalid("qty must be between 0 and 100000")
	}

	var out repos.StockRow
	err := repos.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.swap(ctx, repos.NewInventoryRepo(tx), in.ProductID, func(row *repos.StockRow) error {
			found := false
			for i, v := range row.Variants {
				if v.Size == in.Size && v.Color == color {
					row.Variants[i].StockQuantity = in.Qty
					found = true
					break
				}
			}
			if !found {
				row.Variants = append(row.Variants, domain.Variant{Color: color, Size: in.Size, StockQuantity: in.Qty})
			}
			row.Status = stockStatus(row.Status, row.Variants)
			out = *row
			return nil
		})
	})
	if err != nil {
		return repos.StockRow{}, err
	}
	out.Version++
	return out, nil
}

func (s *InventoryService) Inventory(ctx context.Context) ([]repos.InventoryRow, error) {
	rows, err := s.Inv.ListAll(ctx)
	if rows == nil && err == nil {
		rows = []repos.InventoryRow{}
	}
	return rows, err
}

// swap runs a read-modify-write on a product's variants with optimistic
// concurrency, retrying when another writer bumped the version in between.
func (s *InventoryService) swap(ctx context.Context, inv *repos.InventoryRepo, productID string, mutate func(*repos.StockRow) error) error {
	for attempt := 0; attempt < maxStockRetries; attempt++ {
		row, err := inv.Stock(ctx, productID)
		if err != nil {
			return notFound(err, "product")
		}
		if err := mutate(&row); err != nil {
			return err
		}
		ok, err := inv.CompareAndSwap(ctx, row, s.now().UTC())
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: stock for product %s changed concurrently, please retry", ErrConflict, productID)
}
