package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babashop/internal/domain"
)

// placeOrder buys qty of p for u through the direct checkout path.
func (s *shop) placeOrder(t *testing.T, u *domain.User, p domain.Product, qty int) *domain.Order {
	t.Helper()
	o, err := s.checkout.ConfirmFromProducts(context.Background(), u.ID,
		ConfirmInput{PaymentIntentID: s.paidIntent(t, p.Price.Mul(decimal.NewFromInt(int64(qty))).String()), DeliveryAddress: &testAddress},
		[]domain.OrderLine{{ProductID: p.ID, Quantity: qty}})
	require.NoError(t, err)
	return o
}

func TestOrders_GetHidesOtherUsersOrders(t *testing.T) {
	ctx := context.Background()
	s := newShop(t)
	alice := addUser(t, s.db, "alice@example.com", domain.RoleUser)
	bob := addUser(t, s.db, "bob@example.com", domain.RoleUser)
	admin := addUser(t, s.db, "admin@example.com", domain.RoleAdmin)
	o := s.placeOrder(t, alice, addProduct(t, s.db, "loafer", "300000"), 1)

	got, err := s.orders.Get(ctx, alice, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "loafer", got.Items[0].ProductName)
	assert.Equal(t, testAddress, got.DeliveryAddress)

	_, err = s.orders.Get(ctx, bob, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.orders.Get(ctx, admin, o.ID)
	assert.NoError(t, err)

	_, err = s.orders.Get(ctx, alice, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrders_StatusTransitions(t *testing.T) {
	ctx := context.Background()
	s := newShop(t)
	u := addUser(t, s.db, "buyer@example.com", domain.RoleUser)
	p := addProduct(t, s.db, "sandal", "150000")

	o := s.placeOrder(t, u, p, 1)
	assert.Equal(t, domain.OrderPending, o.Status)

	for _, next := range []domain.OrderStatus{domain.OrderProcessing, domain.OrderShipped, domain.OrderDelivered} {
		got, err := s.orders.UpdateStatus(ctx, o.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}

	got, err := s.orders.UpdateStatus(ctx, o.ID, domain.OrderDelivered)
	require.NoError(t, err, "repeating the current status is a no-op")
	assert.Equal(t, domain.OrderDelivered, got.Status)

	_, err = s.orders.UpdateStatus(ctx, o.ID, domain.OrderCancelled)
	assert.ErrorIs(t, err, ErrBusinessRule)

	other := s.placeOrder(t, u, p, 1)
	_, err = s.orders.UpdateStatus(ctx, other.ID, domain.OrderShipped)
	assert.ErrorIs(t, err, ErrBusinessRule, "pending cannot skip processing")
	_, err = s.orders.UpdateStatus(ctx, other.ID, domain.OrderCancelled)
	require.NoError(t, err)

	_, err = s.orders.UpdateStatus(ctx, other.ID, "lost")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.orders.UpdateStatus(ctx, "missing", domain.OrderProcessing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrders_Search(t *testing.T) {
	ctx := context.Background()
	s := newShop(t)
	alice := addUser(t, s.db, "alice@example.com", domain.RoleUser)
	bob := addUser(t, s.db, "bob@example.com", domain.RoleUser)
	boot := addProduct(t, s.db, "boot", "500000")
	clog := addProduct(t, s.db, "clog", "90000")

	s.placeOrder(t, alice, boot, 1)
	s.placeOrder(t, alice, clog, 2)
	cancelled := s.placeOrder(t, bob, boot, 1)
	_, err := s.orders.UpdateStatus(ctx, cancelled.ID, domain.OrderCancelled)
	require.NoError(t, err)

	page, err := s.orders.ListUserOrders(ctx, alice.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 10, page.Limit)
	for _, o := range page.Orders {
		assert.Equal(t, alice.ID, o.UserID)
		assert.NotEmpty(t, o.Items)
	}

	page, err = s.orders.ByProduct(ctx, boot.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = s.orders.Search(ctx, domain.OrderFilter{Status: domain.OrderCancelled})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, bob.ID, page.Orders[0].UserID)

	page, err = s.orders.Search(ctx, domain.OrderFilter{Limit: 1, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Orders, 1)

	_, err = s.orders.ByUser(ctx, "", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.orders.Search(ctx, domain.OrderFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrValidation)
	start, end := time.Now(), time.Now().Add(-time.Hour)
	_, err = s.orders.Search(ctx, domain.OrderFilter{StartDate: &start, EndDate: &end})
	assert.ErrorIs(t, err, ErrValidation)
}
