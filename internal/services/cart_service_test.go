package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babashop/internal/cache"
	"babashop/internal/domain"
)

func TestCartService_IncrementRules(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	svc := NewCartService(db, nil)
	u := addUser(t, db, "cart@example.com", domain.RoleUser)
	p := addProduct(t, db, "runner", "100", domain.Variant{Color: "black", Size: 42, StockQuantity: 5})

	v, err := svc.AddItem(ctx, u.ID, AddItemInput{ProductID: p.ID, Quantity: 2, Size: 42, Color: "black"})
	require.NoError(t, err)
	require.Len(t, v.Items, 1)

	v, err = svc.AddItem(ctx, u.ID, AddItemInput{ProductID: p.ID, Quantity: 1, Size: 42, Color: "black"})
	require.NoError(t, err)
	require.Len(t, v.Items, 1, "same variant adds to the existing line")
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.Equal(t, 3, v.TotalItems)
	assert.Equal(t, "300", v.TotalAmount.String())

	v, err = svc.AddItem(ctx, u.ID, AddItemInput{ProductID: p.ID, Quantity: -3, Size: 42, Color: "black"})
	require.NoError(t, err)
	assert.Empty(t, v.Items, "a line that drops to zero is removed")

	v, err = svc.AddItem(ctx, u.ID, AddItemInput{ProductID: p.ID, Quantity: -1, Size: 42, Color: "black"})
	require.NoError(t, err)
	assert.Empty(t, v.Items, "no line is created for a non-positive quantity")
	assert.Equal(t, 0, countRows(t, db, "cart_items"))
}

func TestCartService_StockAndStatusChecks(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	svc := NewCartService(db, nil)
	u := addUser(t, db, "stock@example.com", domain.RoleUser)
	p := addProduct(t, db, "runner", "100", domain.Variant{Color: "black", Size: 42, StockQuantity: 2})

	_, err := svc.AddItem(ctx, u.ID, AddItemInput{ProductID: p.ID, Quantity: 2, Size: 42, Color: "black"})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, u.ID, AddItemInput{ProductID: p.ID, Quantity: 1, Size: 42, Color: "black"})
	assert.ErrorIs(t, err, ErrBusinessRule, "existing plus new quantity exceeds stock")

	_, err = svc.AddItem(ctx, u.ID, AddItemInput{ProductID: p.ID, Quantity: 1, Size: 44})
	assert.ErrorIs(t, err, ErrBusinessRule, "unknown variant")

	_, err = svc.AddItem(ctx, u.ID, AddItemInput{ProductID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.Exec(`UPDATE products SET status = 'inactive' WHERE id = ?`, p.ID)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, u.ID, AddItemInput{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrBusinessRule)

	_, err = svc.AddItem(ctx, u.ID, AddItemInput{Quantity: 1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCartService_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	svc := NewCartService(db, nil)
	alice := addUser(t, db, "alice@example.com", domain.RoleUser)
	bob := addUser(t, db, "bob@example.com", domain.RoleUser)
	a := addProduct(t, db, "alpha", "10")
	b := addProduct(t, db, "beta", "20")

	_, err := svc.AddItem(ctx, alice.ID, AddItemInput{ProductID: a.ID, Quantity: 1})
	require.NoError(t, err)
	v, err := svc.AddItem(ctx, alice.ID, AddItemInput{ProductID: b.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "50", v.TotalAmount.String())

	_, err = svc.RemoveItem(ctx, bob.ID, v.Items[0].ID)
	assert.ErrorIs(t, err, ErrNotFound, "items of another cart are invisible")

	v, err = svc.RemoveItem(ctx, alice.ID, v.Items[0].ID)
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)

	require.NoError(t, svc.Clear(ctx, alice.ID))
	v, err = svc.GetCart(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}

func TestCartService_PricesFollowProduct(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	svc := NewCartService(db, nil)
	u := addUser(t, db, "price@example.com", domain.RoleUser)
	p := addProduct(t, db, "runner", "100")

	_, err := svc.AddItem(ctx, u.ID, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE products SET price = 120 WHERE id = ?`, p.ID)
	require.NoError(t, err)

	v, err := svc.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "240", v.TotalAmount.String())
}

func TestCartService_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	svc := NewCartService(db, cache.NewRedisCache(client))

	u := addUser(t, db, "cache@example.com", domain.RoleUser)
	p := addProduct(t, db, "runner", "100")

	_, err := svc.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("cart:"+u.ID))

	v, err := svc.AddItem(ctx, u.ID, AddItemInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Len(t, v.Items, 1, "mutation is visible through the cache")

	// a stale cached view is served until the next mutation
	_, err = db.Exec(`DELETE FROM cart_items`)
	require.NoError(t, err)
	v, err = svc.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)

	require.NoError(t, svc.Clear(ctx, u.ID))
	v, err = svc.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}
