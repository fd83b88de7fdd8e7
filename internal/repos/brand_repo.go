package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
)

type BrandRepo struct{ db DB }

func NewBrandRepo(db DB) *BrandRepo { return &BrandRepo{db: db} }

func (r *BrandRepo) List(ctx context.Context, keyword string, page, size int) ([]domain.Brand, int, error) {
	where, args := "1=1", []any{}
	if keyword != "" {
		where += ` AND LOWER(name) LIKE LOWER(?)`
		args = append(args, "%"+keyword+"%")
	}
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, r.db.Rebind(`SELECT COUNT(*) FROM brands WHERE `+where), args...); err != nil {
		return nil, 0, err
	}
	var out []domain.Brand
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT id, name, description, created_at, updated_at
		FROM brands
		WHERE `+where+`
		ORDER BY LOWER(name)
		LIMIT ? OFFSET ?
	`), append(args, size, offset(page, size))...)
	return out, total, err
}

func (r *BrandRepo) Get(ctx context.Context, id string) (domain.Brand, error) {
	var b domain.Brand
	err := sqlx.GetContext(ctx, r.db, &b, r.db.Rebind(`
		SELECT id, name, description, created_at, updated_at FROM brands WHERE id = ?
	`), id)
	return b, err
}

func (r *BrandRepo) Create(ctx context.Context, b *domain.Brand) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO brands(id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`), b.ID, b.Name, b.Description, b.CreatedAt, b.UpdatedAt)
	return err
}

func (r *BrandRepo) Update(ctx context.Context, b *domain.Brand) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE brands SET name = ?, description = ?, updated_at = ? WHERE id = ?
	`), b.Name, b.Description, b.UpdatedAt, b.ID)
	return err
}

func (r *BrandRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM brands WHERE id = ?`), id)
	return err
}

func (r *BrandRepo) ProductCount(ctx context.Context, id string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`
		SELECT COUNT(*) FROM products WHERE brand_id = ? AND deleted_at IS NULL
	`), id)
	return n, err
}
