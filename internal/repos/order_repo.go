package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
)

type OrderRepo struct{ db DB }

func NewOrderRepo(db DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `o.id, o.user_id, COALESCE(u.full_name, '') AS user_full_name, o.delivery_address,
	o.order_date, o.total_amount, o.status, o.payment_status, COALESCE(o.payment_intent_id, '') AS payment_intent_id,
	o.payment_method, o.created_at, o.updated_at`

// Create inserts the order header. A second order for the same payment intent
// violates idx_orders_payment_intent.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO orders(id, user_id, delivery_address, order_date, total_amount, status, payment_status,
		                   payment_intent_id, payment_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), o.ID, o.UserID, o.DeliveryAddress, o.OrderDate, o.TotalAmount, string(o.Status), string(o.PaymentStatus),
		nullable(o.PaymentIntentID), o.PaymentMethod, o.CreatedAt, o.UpdatedAt)
	return err
}

// InsertItem inserts a single line item.
func (r *OrderRepo) InsertItem(ctx context.Context, it *domain.OrderItem) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO order_items(id, order_id, product_id, product_name, size, color, quantity, price_at_purchase)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), it.ID, it.OrderID, it.ProductID, it.ProductName, it.Size, it.Color, it.Quantity, it.PriceAtPurchase)
	return err
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := sqlx.GetContext(ctx, r.db, &o, r.db.Rebind(`
		SELECT `+orderColumns+`
		FROM orders o LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id = ?
	`), id)
	return o, err
}

// ExistsForPayment reports whether an order already references the payment intent.
func (r *OrderRepo) ExistsForPayment(ctx context.Context, paymentIntentID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`
		SELECT COUNT(*) FROM orders WHERE payment_intent_id = ?
	`), paymentIntentID)
	return n > 0, err
}

func (r *OrderRepo) Items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	var rows []struct {
		domain.OrderItem
		ImageURLs domain.StringList `db:"image_urls"`
	}
	err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(`
		SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.size, oi.color, oi.quantity,
		       oi.price_at_purchase, COALESCE(p.image_urls, '[]') AS image_urls
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY oi.product_name, oi.id
	`), orderID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.OrderItem, 0, len(rows))
	for _, row := range rows {
		it := row.OrderItem
		if len(row.ImageURLs) > 0 {
			it.ProductImage = row.ImageURLs[0]
		}
		out = append(out, it)
	}
	return out, nil
}

// Search pages through orders matching f, newest first.
func (r *OrderRepo) Search(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int, error) {
	where := `1=1`
	args := []any{}
	if f.UserID != "" {
		where += ` AND o.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.ProductID != "" {
		where += ` AND EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id AND oi.product_id = ?)`
		args = append(args, f.ProductID)
	}
	if f.Status != "" {
		where += ` AND o.status = ?`
		args = append(args, string(f.Status))
	}
	if f.PaymentStatus != "" {
		where += ` AND o.payment_status = ?`
		args = append(args, string(f.PaymentStatus))
	}
	if f.StartDate != nil {
		where += ` AND o.order_date >= ?`
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		where += ` AND o.order_date <= ?`
		args = append(args, f.EndDate.UTC())
	}

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, r.db.Rebind(`SELECT COUNT(*) FROM orders o WHERE `+where), args...); err != nil {
		return nil, 0, err
	}
	var out []domain.Order
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT `+orderColumns+`
		FROM orders o LEFT JOIN users u ON u.id = o.user_id
		WHERE `+where+`
		ORDER BY o.order_date DESC, o.id
		LIMIT ? OFFSET ?
	`), append(args, f.Limit, offset(f.Page, f.Limit))...)
	return out, total, err
}

// UpdateStatus moves an order from one status to the next; it reports false
// when the order is no longer in the expected status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`), string(to), at, id, string(from))
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (r *OrderRepo) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE orders SET payment_status = ?, updated_at = ? WHERE id = ?
	`), string(status), at, id)
	return err
}

// HasPurchased reports whether the user holds a paid order containing the product.
func (r *OrderRepo) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`
		SELECT COUNT(*)
		FROM orders o JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = ? AND oi.product_id = ? AND o.payment_status = ? AND o.status <> ?
	`), userID, productID, string(domain.PaymentCompleted), string(domain.OrderCancelled))
	return n > 0, err
}
