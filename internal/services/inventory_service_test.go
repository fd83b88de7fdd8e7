package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babashop/internal/domain"
	"babashop/internal/repos"
)

func TestInventoryService_CheckAvailability(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	svc := NewInventoryService(db)
	p := addProduct(t, db, "gbc", "129.99",
		domain.Variant{Color: "purple", Size: 40, StockQuantity: 6},
		domain.Variant{Color: "teal", Size: 41, StockQuantity: 3},
		domain.Variant{Color: "teal", Size: 42, StockQuantity: 0},
	)

	cases := []struct {
		size   int
		color  string
		status string
		qty    int
	}{
		{0, "", "IN_STOCK", 9},
		{40, "", "IN_STOCK", 6},
		{41, "teal", "LOW_STOCK", 3},
		{42, "teal", "OUT_OF_STOCK", 0},
		{43, "", "OUT_OF_STOCK", 0},
	}
	for _, tc := range cases {
		a, err := svc.CheckAvailability(ctx, p.ID, tc.size, tc.color)
		require.NoError(t, err)
		assert.Equal(t, tc.status, a.Status, "size %d color %q", tc.size, tc.color)
		assert.Equal(t, tc.qty, a.Qty, "size %d color %q", tc.size, tc.color)
	}

	_, err := svc.CheckAvailability(ctx, "missing", 0, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInventoryService_InactiveIsOutOfStock(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	p := addProduct(t, db, "retired", "10", domain.Variant{Color: "grey", Size: 40, StockQuantity: 8})
	_, err := db.Exec(`UPDATE products SET status = 'inactive' WHERE id = ?`, p.ID)
	require.NoError(t, err)

	a, err := NewInventoryService(db).CheckAvailability(ctx, p.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, "OUT_OF_STOCK", a.Status)
	assert.Equal(t, 8, a.Qty)
}

func TestInventoryService_DecrementFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	svc := NewInventoryService(db)
	p := addProduct(t, db, "runner", "10",
		domain.Variant{Color: "black", Size: 42, StockQuantity: 2},
		domain.Variant{Color: "white", Size: 42, StockQuantity: 1},
	)

	require.NoError(t, svc.DecrementStock(ctx, db, p.ID, 42, "black", 5))
	row := stockOf(t, db, p.ID)
	assert.Equal(t, 0, row.Variants[0].StockQuantity)
	assert.Equal(t, domain.ProductActive, row.Status)
	assert.Equal(t, p.Version+1, row.Version)

	require.NoError(t, svc.DecrementStock(ctx, db, p.ID, 0, "white", 1))
	row = stockOf(t, db, p.ID)
	assert.Equal(t, domain.ProductOutOfStock, row.Status)
}

func TestInventoryService_DecrementWithoutVariants(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	p := addProduct(t, db, "giftcard", "10")

	require.NoError(t, NewInventoryService(db).DecrementStock(ctx, db, p.ID, 0, "", 3))
	assert.Equal(t, domain.ProductActive, stockOf(t, db, p.ID).Status)
}

func TestInventoryService_ConcurrentWriterGivesUp(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	svc := NewInventoryService(db)
	p := addProduct(t, db, "hot", "10", domain.Variant{Color: "red", Size: 40, StockQuantity: 10})

	attempts := 0
	err := svc.swap(ctx, svc.Inv, p.ID, func(row *repos.StockRow) error {
		attempts++
		// another writer lands between our read and our write
		_, err := db.Exec(`UPDATE products SET version = version + 1 WHERE id = ?`, p.ID)
		return err
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, maxStockRetries, attempts)
	assert.Equal(t, 10, stockOf(t, db, p.ID).Variants[0].StockQuantity)
}

func TestInventoryService_SetStock(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	svc := NewInventoryService(db)
	p := addProduct(t, db, "court", "10", domain.Variant{Color: "white", Size: 40, StockQuantity: 0})
	_, err := db.Exec(`UPDATE products SET status = 'out_of_stock' WHERE id = ?`, p.ID)
	require.NoError(t, err)

	row, err := svc.SetStock(ctx, StockUpdate{ProductID: p.ID, Size: 40, Color: "white", Qty: 4})
	require.NoError(t, err)
	assert.Equal(t, domain.ProductActive, row.Status)

	_, err = svc.SetStock(ctx, StockUpdate{ProductID: p.ID, Size: 41, Color: "white", Qty: 2})
	require.NoError(t, err)

	stored := stockOf(t, db, p.ID)
	require.Len(t, stored.Variants, 2)
	assert.Equal(t, 6, stored.Variants.TotalStock())

	rows, err := svc.Inventory(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = svc.SetStock(ctx, StockUpdate{ProductID: p.ID, Size: 40, Color: "white", Qty: -1})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.SetStock(ctx, StockUpdate{ProductID: "missing", Size: 40, Color: "white", Qty: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}
