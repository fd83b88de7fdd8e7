package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"babashop/internal/domain"
	"babashop/internal/mail"
	"babashop/internal/payment"
	"babashop/internal/repos"
)

const testPassword = "Secret#123"

func newDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func addUser(t *testing.T, db *sqlx.DB, email, role string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	u := &domain.User{
		ID: uuid.NewString(), FullName: "Test " + role, Email: email, Hash: string(hash),
		Role: role, Status: domain.UserVerified, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.NewUserRepo(db).Create(context.Background(), u))
	return u
}

func addProduct(t *testing.T, db *sqlx.DB, name, price string, variants ...domain.Variant) domain.Product {
	t.Helper()
	now := time.Now().UTC()
	p := domain.Product{
		ID: uuid.NewString(), Name: name, Price: decimal.RequireFromString(price),
		Status: domain.ProductActive, ImageURLs: domain.StringList{"/media/" + name + ".png"},
		Variants: variants, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.NewProductRepo(db).Create(context.Background(), &p))
	return p
}

func stockOf(t *testing.T, db *sqlx.DB, productID string) repos.StockRow {
	t.Helper()
	row, err := repos.NewInventoryRepo(db).Stock(context.Background(), productID)
	require.NoError(t, err)
	return row
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

var testAddress = domain.DeliveryAddress{
	StreetAddress:  "12 Nguyen Hue",
	Ward:           "Ben Nghe",
	ProvinceCity:   "Ho Chi Minh City",
	RecipientName:  "Test Buyer",
	RecipientPhone: "0912345678",
}

// shop wires every service over one database the way the HTTP layer does.
type shop struct {
	db       *sqlx.DB
	gateway  *payment.MemoryGateway
	carts    *CartService
	inv      *InventoryService
	orders   *OrderService
	checkout *CheckoutService
}

func newShop(t *testing.T) *shop {
	db := newDB(t)
	s := &shop{db: db, gateway: payment.NewMemoryGateway()}
	s.carts = NewCartService(db, nil)
	s.inv = NewInventoryService(db)
	s.orders = NewOrderService(db)
	s.checkout = NewCheckoutService(db, s.gateway, s.carts, s.inv, s.orders, "vnd")
	return s
}

// paidIntent returns an intent the gateway reports as succeeded.
func (s *shop) paidIntent(t *testing.T, amount string) string {
	t.Helper()
	ctx := context.Background()
	in, err := s.checkout.CreateIntent(ctx, "", ptr(decimal.RequireFromString(amount)))
	require.NoError(t, err)
	_, err = s.checkout.TestConfirm(ctx, in.ID)
	require.NoError(t, err)
	return in.ID
}

func ptr[T any](v T) *T { return &v }

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.OTP
	err  error
}

func (f *fakeMailer) SendOTP(_ context.Context, msg mail.OTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeMailer) last(t *testing.T) mail.OTP {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no mail sent")
	return f.sent[len(f.sent)-1]
}
