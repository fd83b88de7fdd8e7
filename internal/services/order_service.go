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

type OrderService struct {
	Orders *repos.OrderRepo
	now    func() time.Time
}

func NewOrderService(db *sqlx.DB) *OrderService {
	return &OrderService{Orders: repos.NewOrderRepo(db), now: time.Now}
}

// Get returns an order with its items. Orders of other users are reported as
// missing unless the requester is an admin.
func (s *OrderService) Get(ctx context.Context, requester *domain.User, id string) (*domain.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && o.UserID != requester.ID {
		return nil, fmt.Errorf("%w: order not found", ErrNotFound)
	}
	return o, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page, limit int) (domain.OrderPage, error) {
	return s.Search(ctx, domain.OrderFilter{UserID: userID, Page: page, Limit: limit})
}

func (s *OrderService) ByUser(ctx context.Context, userID string, page, limit int) (domain.OrderPage, error) {
	if userID == "" {
		return domain.OrderPage{}, invalid("user_id is required")
	}
	return s.Search(ctx, domain.OrderFilter{UserID: userID, Page: page, Limit: limit})
}

func (s *OrderService) ByProduct(ctx context.Context, productID string, page, limit int) (domain.OrderPage, error) {
	if productID == "" {
		return domain.OrderPage{}, invalid("product_id is required")
	}
	return s.Search(ctx, domain.OrderFilter{ProductID: productID, Page: page, Limit: limit})
}

// Search pages through orders, newest first, each with its items.
func (s *OrderService) Search(ctx context.Context, f domain.OrderFilter) (domain.OrderPage, error) {
	f.Page, f.Limit = validate.Paging(f.Page, f.Limit, 10, 100)
	if f.Status != "" && !f.Status.Valid() {
		return domain.OrderPage{}, invalid("unknown order status %q", f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return domain.OrderPage{}, invalid("unknown payment status %q", f.PaymentStatus)
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return domain.OrderPage{}, invalid("start_date must not be after end_date")
	}

	orders, total, err := s.Orders.Search(ctx, f)
	if err != nil {
		return domain.OrderPage{}, err
	}
	for i := range orders {
		if orders[i].Items, err = s.items(ctx, orders[i].ID); err != nil {
			return domain.OrderPage{}, err
		}
	}
	return domain.NewOrderPage(orders, total, f.Page, f.Limit), nil
}

// UpdateStatus moves an order along its lifecycle. Setting the current status
// again is a no-op.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, to domain.OrderStatus) (*domain.Order, error) {
	if !to.Valid() {
		return nil, invalid("unknown order status %q", to)
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == to {
		return o, nil
	}
	if !o.Status.CanTransitionTo(to) {
		return nil, rejected("cannot change order status from %s to %s", o.Status, to)
	}
	ok, err := s.Orders.UpdateStatus(ctx, id, o.Status, to, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order status changed concurrently, please retry", ErrConflict)
	}
	return s.load(ctx, id)
}

func (s *OrderService) load(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if o.Items, err = s.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *OrderService) items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	items, err := s.Orders.Items(ctx, orderID)
	if items == nil && err == nil {
		items = []domain.OrderItem{}
	}
	return items, err
}
