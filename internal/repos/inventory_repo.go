package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
)

// InventoryRepo reads and writes the variant stock embedded in product rows.
type InventoryRepo struct{ db DB }

func NewInventoryRepo(db DB) *InventoryRepo { return &InventoryRepo{db: db} }

// StockRow is the stock snapshot of one product used for compare-and-swap updates.
type StockRow struct {
	ID       string               `db:"id" json:"product_id"`
	Name     string               `db:"name" json:"name"`
	Status   domain.ProductStatus `db:"status" json:"status"`
	Variants domain.Variants      `db:"variants" json:"variants"`
	Version  int                  `db:"version" json:"version"`
}

// InventoryRow is one variant line for the admin inventory listing.
type InventoryRow struct {
	ProductID string               `json:"product_id"`
	Name      string               `json:"name"`
	Status    domain.ProductStatus `json:"status"`
	Color     string               `json:"color"`
	Size      int                  `json:"size"`
	Qty       int                  `json:"qty"`
}

func (r *InventoryRepo) Stock(ctx context.Context, productID string) (StockRow, error) {
	var s StockRow
	err := sqlx.GetContext(ctx, r.db, &s, r.db.Rebind(`
		SELECT id, name, status, variants, version
		FROM products
		WHERE id = ? AND deleted_at IS NULL
	`), productID)
	return s, err
}

// CompareAndSwap stores new variants and status only if the row still carries
// the version that was read. It reports false when another writer got there first.
func (r *InventoryRepo) CompareAndSwap(ctx context.Context, s StockRow, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products
		SET variants = ?, status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`), s.Variants, string(s.Status), at, s.ID, s.Version)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ListAll expands every live product into one row per variant.
func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	var stock []StockRow
	if err := sqlx.SelectContext(ctx, r.db, &stock, `
		SELECT id, name, status, variants, version
		FROM products
		WHERE deleted_at IS NULL
		ORDER BY LOWER(name)
	`); err != nil {
		return nil, err
	}
	var rows []InventoryRow
	for _, s := range stock {
		for _, v := range s.Variants {
			rows = append(rows, InventoryRow{
				ProductID: s.ID, Name: s.Name, Status: s.Status,
				Color: v.Color, Size: v.Size, Qty: v.StockQuantity,
			})
		}
	}
	return rows, nil
}
