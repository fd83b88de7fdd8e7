package repos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"babashop/internal/domain"
)

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	Demo          bool // demo brands, categories and products
}

// Seed is idempotent; it is safe to run on every start.
func Seed(ctx context.Context, db *sqlx.DB, opts SeedOptions) error {
	if opts.AdminEmail != "" {
		if err := seedAdmin(ctx, db, opts.AdminEmail, opts.AdminPassword); err != nil {
			return err
		}
	}
	if opts.Demo {
		return seedCatalog(ctx, db)
	}
	return nil
}

func seedAdmin(ctx context.Context, db *sqlx.DB, email, password string) error {
	users := NewUserRepo(db)
	if _, err := users.ByEmail(ctx, email); err == nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return users.Create(ctx, &domain.User{
		ID:        uuid.NewString(),
		FullName:  "Admin",
		Email:     strings.ToLower(email),
		Hash:      string(hash),
		Role:      domain.RoleAdmin,
		Status:    domain.UserVerified,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func seedCatalog(ctx context.Context, db *sqlx.DB) error {
	products := NewProductRepo(db)
	if n, err := products.Count(ctx); err != nil || n > 0 {
		return err
	}

	return InTx(ctx, db, func(tx *sqlx.Tx) error {
		brands := NewBrandRepo(tx)
		cats := NewCategoryRepo(tx)
		prods := NewProductRepo(tx)
		now := time.Now().UTC()

		nike := domain.Brand{ID: uuid.NewString(), Name: "Nike", CreatedAt: now, UpdatedAt: now}
		adidas := domain.Brand{ID: uuid.NewString(), Name: "Adidas", CreatedAt: now, UpdatedAt: now}
		for _, b := range []*domain.Brand{&nike, &adidas} {
			if err := brands.Create(ctx, b); err != nil {
				return err
			}
		}
		running := domain.Category{ID: uuid.NewString(), Name: "Running", CreatedAt: now, UpdatedAt: now}
		lifestyle := domain.Category{ID: uuid.NewString(), Name: "Lifestyle", CreatedAt: now, UpdatedAt: now}
		for _, c := range []*domain.Category{&running, &lifestyle} {
			if err := cats.Create(ctx, c); err != nil {
				return err
			}
		}

		seed := []domain.Product{
			{
				Name: "Pegasus 41", Description: "Everyday road running shoe",
				Price: decimal.NewFromInt(3_200_000), CategoryID: running.ID, BrandID: nike.ID,
				Variants: domain.Variants{{Color: "black", Size: 41, StockQuantity: 8}, {Color: "white", Size: 42, StockQuantity: 5}},
			},
			{
				Name: "Samba OG", Description: "Classic indoor silhouette",
				Price: decimal.NewFromInt(2_700_000), CategoryID: lifestyle.ID, BrandID: adidas.ID,
				Variants: domain.Variants{{Color: "white", Size: 40, StockQuantity: 3}, {Color: "white", Size: 41, StockQuantity: 6}},
			},
			{
				Name: "Ultraboost Light", Description: "Cushioned daily trainer",
				Price: decimal.NewFromInt(4_500_000), CategoryID: running.ID, BrandID: adidas.ID,
				Variants: domain.Variants{{Color: "grey", Size: 42, StockQuantity: 4}},
			},
		}
		for i := range seed {
			p := &seed[i]
			p.ID = uuid.NewString()
			p.Status = domain.ProductActive
			p.ImageURLs = domain.StringList{}
			p.CreatedAt, p.UpdatedAt = now, now
			if err := prods.Create(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
