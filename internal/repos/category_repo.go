package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
)

type CategoryRepo struct{ db DB }

func NewCategoryRepo(db DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context, keyword string, page, size int) ([]domain.Category, int, error) {
	where, args := "1=1", []any{}
	if keyword != "" {
		where += ` AND LOWER(name) LIKE LOWER(?)`
		args = append(args, "%"+keyword+"%")
	}
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, r.db.Rebind(`SELECT COUNT(*) FROM categories WHERE `+where), args...); err != nil {
		return nil, 0, err
	}
	var out []domain.Category
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT id, name, description, created_at, updated_at
		FROM categories
		WHERE `+where+`
		ORDER BY LOWER(name)
		LIMIT ? OFFSET ?
	`), append(args, size, offset(page, size))...)
	return out, total, err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := sqlx.GetContext(ctx, r.db, &c, r.db.Rebind(`
		SELECT id, name, description, created_at, updated_at FROM categories WHERE id = ?
	`), id)
	return c, err
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO categories(id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`), c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE categories SET name = ?, description = ?, updated_at = ? WHERE id = ?
	`), c.Name, c.Description, c.UpdatedAt, c.ID)
	return err
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	return err
}

// ProductCount counts live (not soft-deleted) products in the category.
func (r *CategoryRepo) ProductCount(ctx context.Context, id string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`
		SELECT COUNT(*) FROM products WHERE category_id = ? AND deleted_at IS NULL
	`), id)
	return n, err
}
