package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
)

type ReviewRepo struct{ db DB }

func NewReviewRepo(db DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `r.id, r.user_id, COALESCE(u.full_name, '') AS user_name, r.product_id, r.rating, r.comment,
	r.created_at, r.updated_at`

func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO reviews(id, user_id, product_id, rating, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), rv.ID, rv.UserID, rv.ProductID, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt)
	return err
}

func (r *ReviewRepo) Get(ctx context.Context, id string) (domain.Review, error) {
	var rv domain.Review
	err := sqlx.GetContext(ctx, r.db, &rv, r.db.Rebind(`
		SELECT `+reviewColumns+` FROM reviews r LEFT JOIN users u ON u.id = r.user_id WHERE r.id = ?
	`), id)
	return rv, err
}

func (r *ReviewRepo) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`
		SELECT COUNT(*) FROM reviews WHERE user_id = ? AND product_id = ?
	`), userID, productID)
	return n > 0, err
}

func (r *ReviewRepo) ByProduct(ctx context.Context, productID string, page, size int) ([]domain.Review, int, error) {
	return r.list(ctx, `r.product_id = ?`, productID, page, size)
}

func (r *ReviewRepo) ByUser(ctx context.Context, userID string, page, size int) ([]domain.Review, int, error) {
	return r.list(ctx, `r.user_id = ?`, userID, page, size)
}

func (r *ReviewRepo) list(ctx context.Context, where string, arg any, page, size int) ([]domain.Review, int, error) {
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, r.db.Rebind(`SELECT COUNT(*) FROM reviews r WHERE `+where), arg); err != nil {
		return nil, 0, err
	}
	var out []domain.Review
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT `+reviewColumns+`
		FROM reviews r LEFT JOIN users u ON u.id = r.user_id
		WHERE `+where+`
		ORDER BY r.created_at DESC, r.id
		LIMIT ? OFFSET ?
	`), arg, size, offset(page, size))
	return out, total, err
}

func (r *ReviewRepo) Update(ctx context.Context, rv *domain.Review) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE reviews SET rating = ?, comment = ?, updated_at = ? WHERE id = ?
	`), rv.Rating, rv.Comment, rv.UpdatedAt, rv.ID)
	return err
}

func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM reviews WHERE id = ?`), id)
	return err
}
