package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"babashop/internal/cache"
	"babashop/internal/domain"
	applog "babashop/internal/log"
	"babashop/internal/repos"
	"babashop/internal/validate"
)

type CartService struct {
	db    *sqlx.DB
	Carts *repos.CartRepo
	Cache cache.CartCache
	now   func() time.Time
	fills singleflight.Group // one rebuild per user on a cache miss
}

func NewCartService(db *sqlx.DB, c cache.CartCache) *CartService {
	if c == nil {
		c = cache.Noop{}
	}
	return &CartService{db: db, Carts: repos.NewCartRepo(db), Cache: c, now: time.Now}
}

// AddItemInput adds Quantity (which may be negative) to the line for
// (ProductID, Size, Color).
type AddItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      int    `json:"size"`
	Color     string `json:"color"`
}

// GetCart returns the user's cart priced at current product prices.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.CartView, error) {
	if v, err := s.Cache.Get(ctx, userID); err == nil {
		return v, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		applog.Logger().Warn().Err(err).Str("user_id", userID).Msg("cart.cache.get_failed")
	}

	v, err, _ := s.fills.Do(userID, func() (any, error) {
		v, err := s.Load(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := s.Cache.Set(ctx, userID, v); err != nil {
			applog.Logger().Warn().Err(err).Str("user_id", userID).Msg("cart.cache.set_failed")
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CartView), nil
}

// Load builds the cart view from the database, skipping the cache.
func (s *CartService) Load(ctx context.Context, userID string) (*domain.CartView, error) {
	cart, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Carts.Items(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return buildView(cart, rows), nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, in AddItemInput) (*domain.CartView, error) {
	if in.ProductID == "" {
		return nil, invalid("product_id is required")
	}
	if in.Size < 0 {
		return nil, invalid("size must not be negative")
	}
	if in.Color != "" {
		color, ok := validate.Color(in.Color)
		if !ok {
			return nil, invalid("color is not valid")
		}
		in.Color = color
	}
	if !validate.Between(in.Quantity, -999, 999) {
		return nil, invalid("quantity must be between -999 and 999")
	}

	err := repos.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		p, err := repos.NewProductRepo(tx).Get(ctx, in.ProductID)
		if err != nil {
			return notFound(err, "product")
		}
		if p.Status != domain.ProductActive {
			return rejected("product %s is not available", p.Name)
		}

		carts := repos.NewCartRepo(tx)
		cart, err := carts.EnsureCart(ctx, userID)
		if err != nil {
			return err
		}
		existing, err := carts.Find(ctx, cart.ID, p.ID, in.Size, in.Color)
		found := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		qty := in.Quantity
		if found {
			qty += existing.Quantity
		}
		if qty > 0 && (in.Size != 0 || in.Color != "") {
			i := p.Variants.Find(in.Size, in.Color)
			if i < 0 {
				return rejected("variant size %d color %q is not available", in.Size, in.Color)
			}
			if stock := p.Variants[i].StockQuantity; stock < qty {
				return rejected("only %d item(s) left in stock for this variant", stock)
			}
		}

		now := s.now().UTC()
		switch {
		case found && qty <= 0:
			return carts.DeleteItem(ctx, cart.ID, existing.ID)
		case found:
			return carts.SetQuantity(ctx, cart.ID, existing.ID, qty, now)
		case qty <= 0:
			return nil
		}
		err = carts.Insert(ctx, &domain.CartItem{
			ID: uuid.NewString(), CartID: cart.ID, ProductID: p.ID, Quantity: qty,
			Size: in.Size, Color: in.Color, CreatedAt: now, UpdatedAt: now,
		})
		if repos.IsUniqueViolation(err) {
			return fmt.Errorf("%w: cart changed concurrently, please retry", ErrConflict)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, userID)
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes a line; items of other users' carts are reported as missing.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.CartView, error) {
	cart, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	it, err := s.Carts.ItemByID(ctx, itemID)
	if err != nil {
		return nil, notFound(err, "cart item")
	}
	if it.CartID != cart.ID {
		return nil, fmt.Errorf("%w: cart item not found", ErrNotFound)
	}
	if err := s.Carts.DeleteItem(ctx, cart.ID, it.ID); err != nil {
		return nil, err
	}
	s.Invalidate(ctx, userID)
	return s.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	cart, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Carts.Clear(ctx, cart.ID); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	return nil
}

// Invalidate drops the cached cart view.
func (s *CartService) Invalidate(ctx context.Context, userID string) {
	if err := s.Cache.Delete(ctx, userID); err != nil {
		applog.Logger().Warn().Err(err).Str("user_id", userID).Msg("cart.cache.delete_failed")
	}
}

func buildView(cart domain.Cart, rows []repos.CartItemRow) *domain.CartView {
	v := &domain.CartView{
		ID:          cart.ID,
		UserID:      cart.UserID,
		Items:       make([]domain.CartLine, 0, len(rows)),
		TotalAmount: decimal.Zero,
		CreatedAt:   cart.CreatedAt,
		UpdatedAt:   cart.UpdatedAt,
	}
	for _, r := range rows {
		sub := r.Price.Mul(decimal.NewFromInt(int64(r.Quantity)))
		line := domain.CartLine{
			ID:           r.ID,
			ProductID:    r.ProductID,
			ProductName:  r.ProductName,
			Quantity:     r.Quantity,
			Size:         r.Size,
			Color:        r.Color,
			CurrentPrice: r.Price,
			Subtotal:     sub,
		}
		if len(r.ImageURLs) > 0 {
			line.ProductImage = r.ImageURLs[0]
		}
		v.Items = append(v.Items, line)
		v.TotalItems += r.Quantity
		v.TotalAmount = v.TotalAmount.Add(sub)
	}
	return v
}
