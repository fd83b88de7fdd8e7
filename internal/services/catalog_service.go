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

	"babashop/internal/domain"
	"babashop/internal/repos"
	"babashop/internal/validate"
)

type CatalogService struct {
	Prods  *repos.ProductRepo
	Cats   *repos.CategoryRepo
	Brands *repos.BrandRepo
	now    func() time.Time
}

func NewCatalogService(db *sqlx.DB) *CatalogService {
	return &CatalogService{
		Prods:  repos.NewProductRepo(db),
		Cats:   repos.NewCategoryRepo(db),
		Brands: repos.NewBrandRepo(db),
		now:    time.Now,
	}
}

// ProductInput is used for both create and partial update; nil fields are
// left unchanged on update.
type ProductInput struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Price       *decimal.Decimal      `json:"price"`
	CategoryID  *string               `json:"category_id"`
	BrandID     *string               `json:"brand_id"`
	Status      *domain.ProductStatus `json:"status"`
	ImageURLs   *[]string             `json:"image_urls"`
	Variants    *[]domain.Variant     `json:"variants"`
}

func (s *CatalogService) ListProducts(ctx context.Context, f domain.ProductFilter) (domain.Page[domain.Product], error) {
	f.Page, f.Size = validate.Paging(f.Page, f.Size, 12, 100)
	if f.Keyword != "" {
		kw, ok := validate.Q(f.Keyword)
		if !ok {
			return domain.Page[domain.Product]{}, invalid("keyword contains unsupported characters")
		}
		f.Keyword = kw
	}
	if f.Status != "" && !f.Status.Valid() {
		return domain.Page[domain.Product]{}, invalid("status must be active, inactive or out_of_stock")
	}
	if f.MinPrice != nil && f.MinPrice.IsNegative() || f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return domain.Page[domain.Product]{}, invalid("price bounds must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return domain.Page[domain.Product]{}, invalid("min_price must not exceed max_price")
	}
	items, total, err := s.Prods.List(ctx, f)
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}
	return domain.NewPage(items, total, f.Page, f.Size), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return p, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if in.Name == nil || in.Price == nil {
		return domain.Product{}, invalid("name and price are required")
	}
	now := s.now().UTC()
	p := domain.Product{
		ID:        uuid.NewString(),
		Status:    domain.ProductActive,
		ImageURLs: domain.StringList{},
		Variants:  domain.Variants{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(ctx, &p, in); err != nil {
		return domain.Product{}, err
	}
	if err := s.Prods.Create(ctx, &p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return p, notFound(err, "product")
	}
	if err := s.apply(ctx, &p, in); err != nil {
		return domain.Product{}, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.Prods.Update(ctx, &p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	ok, err := s.Prods.SoftDelete(ctx, id, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: product not found", ErrNotFound)
	}
	return nil
}

// apply validates in and copies the provided fields onto p.
func (s *CatalogService) apply(ctx context.Context, p *domain.Product, in ProductInput) error {
	var ok bool
	if in.Name != nil {
		if p.Name, ok = validate.Name(*in.Name, 255); !ok {
			return invalid("name is required (max 255 characters)")
		}
	}
	if in.Description != nil {
		if p.Description, ok = validate.Text(*in.Description, 5000); !ok {
			return invalid("description is too long")
		}
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return invalid("price must not be negative")
		}
		p.Price = *in.Price
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
		if p.CategoryID != "" {
			if _, err := s.Cats.Get(ctx, p.CategoryID); err != nil {
				return refMissing(err, "category_id")
			}
		}
	}
	if in.BrandID != nil {
		p.BrandID = *in.BrandID
		if p.BrandID != "" {
			if _, err := s.Brands.Get(ctx, p.BrandID); err != nil {
				return refMissing(err, "brand_id")
			}
		}
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return invalid("status must be active, inactive or out_of_stock")
		}
		p.Status = *in.Status
	}
	if in.ImageURLs != nil {
		urls := make(domain.StringList, 0, len(*in.ImageURLs))
		for _, u := range *in.ImageURLs {
			u, ok := validate.Name(u, 500)
			if !ok {
				return invalid("image urls must be non-empty (max 500 characters)")
			}
			urls = append(urls, u)
		}
		p.ImageURLs = urls
	}
	if in.Variants != nil {
		vs := make(domain.Variants, 0, len(*in.Variants))
		seen := map[string]bool{}
		for _, v := range *in.Variants {
			color, ok := validate.Color(v.Color)
			if !ok {
				return invalid("variant color is required")
			}
			if v.Size <= 0 {
				return invalid("variant size must be positive")
			}
			if v.StockQuantity < 0 {
				return invalid("variant stock must not be negative")
			}
			key := fmt.Sprintf("%d|%s", v.Size, color)
			if seen[key] {
				return invalid("duplicate variant size %d color %s", v.Size, color)
			}
			seen[key] = true
			vs = append(vs, domain.Variant{Color: color, Size: v.Size, StockQuantity: v.StockQuantity})
		}
		p.Variants = vs
	}
	if in.Status == nil || *in.Status != domain.ProductOutOfStock {
		p.Status = stockStatus(p.Status, p.Variants)
	}
	return nil
}

// stockStatus derives the stored status from variant stock: a product whose
// variants are all sold out is out_of_stock, and restocking reactivates it.
// Inactive products stay inactive.
func stockStatus(cur domain.ProductStatus, vs domain.Variants) domain.ProductStatus {
	if len(vs) == 0 || cur == domain.ProductInactive {
		return cur
	}
	if vs.TotalStock() == 0 {
		return domain.ProductOutOfStock
	}
	if cur == domain.ProductOutOfStock {
		return domain.ProductActive
	}
	return cur
}

func refMissing(err error, field string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return invalid("%s does not exist", field)
	}
	return err
}
