package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
)

type ProductRepo struct{ db DB }

func NewProductRepo(db DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `id, name, description, price, COALESCE(category_id, '') AS category_id,
	COALESCE(brand_id, '') AS brand_id, status, image_urls, variants, version,
	created_at, updated_at, deleted_at`

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	where := `deleted_at IS NULL`
	args := []any{}
	if f.Keyword != "" {
		where += ` AND (LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?))`
		args = append(args, "%"+f.Keyword+"%", "%"+f.Keyword+"%")
	}
	if f.CategoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.BrandID != "" {
		where += ` AND brand_id = ?`
		args = append(args, f.BrandID)
	}
	if f.MinPrice != nil {
		where += ` AND price >= ?`
		args = append(args, f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		where += ` AND price <= ?`
		args = append(args, f.MaxPrice.String())
	}
	if f.Status != "" {
		where += ` AND status = ?`
		args = append(args, string(f.Status))
	}

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, r.db.Rebind(`SELECT COUNT(*) FROM products WHERE `+where), args...); err != nil {
		return nil, 0, err
	}

	var out []domain.Product
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT `+productColumns+`
		FROM products
		WHERE `+where+`
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`), append(args, f.Size, offset(f.Page, f.Size))...)
	return out, total, err
}

// Get returns a live product; soft-deleted rows yield sql.ErrNoRows.
func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, r.db.Rebind(`
		SELECT `+productColumns+` FROM products WHERE id = ? AND deleted_at IS NULL
	`), id)
	return p, err
}

func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM products`)
	return n, err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if p.Version == 0 {
		p.Version = 1
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO products(id, name, description, price, category_id, brand_id, status,
		                     image_urls, variants, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.Name, p.Description, p.Price, nullable(p.CategoryID), nullable(p.BrandID), string(p.Status),
		p.ImageURLs, p.Variants, p.Version, p.CreatedAt, p.UpdatedAt)
	return err
}

// Update writes every editable column and bumps the version.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products
		SET name = ?, description = ?, price = ?, category_id = ?, brand_id = ?, status = ?,
		    image_urls = ?, variants = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`), p.Name, p.Description, p.Price, nullable(p.CategoryID), nullable(p.BrandID), string(p.Status),
		p.ImageURLs, p.Variants, p.UpdatedAt, p.ID)
	if err == nil {
		p.Version++
	}
	return err
}

func (r *ProductRepo) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL
	`), at, at, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
