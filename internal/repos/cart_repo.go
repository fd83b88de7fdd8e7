package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"babashop/internal/domain"
)

type CartRepo struct{ db DB }

func NewCartRepo(db DB) *CartRepo { return &CartRepo{db: db} }

// CartItemRow is a cart item joined with the live product.
type CartItemRow struct {
	domain.CartItem
	ProductName   string               `db:"product_name"`
	ProductStatus domain.ProductStatus `db:"product_status"`
	Price         decimal.Decimal      `db:"price"`
	ImageURLs     domain.StringList    `db:"image_urls"`
}

// EnsureCart returns the user's cart, creating it on first access.
func (r *CartRepo) EnsureCart(ctx context.Context, userID string) (domain.Cart, error) {
	var c domain.Cart
	err := sqlx.GetContext(ctx, r.db, &c, r.db.Rebind(`
		SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?
	`), userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return c, err
	}
	now := time.Now().UTC()
	c = domain.Cart{ID: uuid.NewString(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO carts(id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)
	`), c.ID, c.UserID, c.CreatedAt, c.UpdatedAt)
	if IsUniqueViolation(err) {
		// lost a race with a concurrent first access
		err = sqlx.GetContext(ctx, r.db, &c, r.db.Rebind(`
			SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?
		`), userID)
	}
	return c, err
}

// Items lists cart lines whose product still exists, oldest first.
func (r *CartRepo) Items(ctx context.Context, cartID string) ([]CartItemRow, error) {
	var out []CartItemRow
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.size, ci.color, ci.created_at, ci.updated_at,
		       p.name AS product_name, p.status AS product_status, p.price, p.image_urls
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id AND p.deleted_at IS NULL
		WHERE ci.cart_id = ?
		ORDER BY ci.created_at, ci.id
	`), cartID)
	return out, err
}

// Find looks up the line for (product, size, color); size 0 and empty color are
// stored as such, so equality covers the "unspecified" case too.
func (r *CartRepo) Find(ctx context.Context, cartID, productID string, size int, color string) (domain.CartItem, error) {
	var it domain.CartItem
	err := sqlx.GetContext(ctx, r.db, &it, r.db.Rebind(`
		SELECT id, cart_id, product_id, quantity, size, color, created_at, updated_at
		FROM cart_items
		WHERE cart_id = ? AND product_id = ? AND size = ? AND color = ?
	`), cartID, productID, size, color)
	return it, err
}

func (r *CartRepo) ItemByID(ctx context.Context, id string) (domain.CartItem, error) {
	var it domain.CartItem
	err := sqlx.GetContext(ctx, r.db, &it, r.db.Rebind(`
		SELECT id, cart_id, product_id, quantity, size, color, created_at, updated_at
		FROM cart_items WHERE id = ?
	`), id)
	return it, err
}

func (r *CartRepo) Insert(ctx context.Context, it *domain.CartItem) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO cart_items(id, cart_id, product_id, quantity, size, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), it.ID, it.CartID, it.ProductID, it.Quantity, it.Size, it.Color, it.CreatedAt, it.UpdatedAt)
	if err == nil {
		err = r.touch(ctx, it.CartID, it.UpdatedAt)
	}
	return err
}

func (r *CartRepo) SetQuantity(ctx context.Context, cartID, itemID string, qty int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?
	`), qty, at, itemID)
	if err == nil {
		err = r.touch(ctx, cartID, at)
	}
	return err
}

func (r *CartRepo) DeleteItem(ctx context.Context, cartID, itemID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM cart_items WHERE id = ? AND cart_id = ?`), itemID, cartID)
	if err == nil {
		err = r.touch(ctx, cartID, time.Now().UTC())
	}
	return err
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM cart_items WHERE cart_id = ?`), cartID)
	if err == nil {
		err = r.touch(ctx, cartID, time.Now().UTC())
	}
	return err
}

func (r *CartRepo) touch(ctx context.Context, cartID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE carts SET updated_at = ? WHERE id = ?`), at, cartID)
	return err
}
