package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"babashop/internal/domain"
	"babashop/internal/repos"
	"babashop/internal/validate"
)

// LabelInput is the payload for brand and category writes.
type LabelInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (in LabelInput) check(requireName bool) (name, desc string, err error) {
	var ok bool
	if in.Name != nil || requireName {
		raw := ""
		if in.Name != nil {
			raw = *in.Name
		}
		if name, ok = validate.Name(raw, 100); !ok {
			return "", "", invalid("name is required (max 100 characters)")
		}
	}
	if in.Description != nil {
		if desc, ok = validate.Text(*in.Description, 1000); !ok {
			return "", "", invalid("description is too long")
		}
	}
	return name, desc, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, keyword string, page, size int) (domain.Page[domain.Category], error) {
	page, size = validate.Paging(page, size, 20, 100)
	items, total, err := s.Cats.List(ctx, keyword, page, size)
	if err != nil {
		return domain.Page[domain.Category]{}, err
	}
	return domain.NewPage(items, total, page, size), nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	c, err := s.Cats.Get(ctx, id)
	return c, notFound(err, "category")
}

func (s *CatalogService) CreateCategory(ctx context.Context, in LabelInput) (domain.Category, error) {
	name, desc, err := in.check(true)
	if err != nil {
		return domain.Category{}, err
	}
	now := s.now().UTC()
	c := domain.Category{ID: uuid.NewString(), Name: name, Description: desc, CreatedAt: now, UpdatedAt: now}
	if err := s.Cats.Create(ctx, &c); err != nil {
		return domain.Category{}, duplicateName(err, "category")
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in LabelInput) (domain.Category, error) {
	c, err := s.Cats.Get(ctx, id)
	if err != nil {
		return c, notFound(err, "category")
	}
	name, desc, err := in.check(false)
	if err != nil {
		return domain.Category{}, err
	}
	if in.Name != nil {
		c.Name = name
	}
	if in.Description != nil {
		c.Description = desc
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.Cats.Update(ctx, &c); err != nil {
		return domain.Category{}, duplicateName(err, "category")
	}
	return c, nil
}

// DeleteCategory refuses while live products still reference the category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.Cats.Get(ctx, id); err != nil {
		return notFound(err, "category")
	}
	n, err := s.Cats.ProductCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return rejected("category is used by %d product(s)", n)
	}
	return s.Cats.Delete(ctx, id)
}

func (s *CatalogService) ListBrands(ctx context.Context, keyword string, page, size int) (domain.Page[domain.Brand], error) {
	page, size = validate.Paging(page, size, 20, 100)
	items, total, err := s.Brands.List(ctx, keyword, page, size)
	if err != nil {
		return domain.Page[domain.Brand]{}, err
	}
	return domain.NewPage(items, total, page, size), nil
}

func (s *CatalogService) GetBrand(ctx context.Context, id string) (domain.Brand, error) {
	b, err := s.Brands.Get(ctx, id)
	return b, notFound(err, "brand")
}

func (s *CatalogService) CreateBrand(ctx context.Context, in LabelInput) (domain.Brand, error) {
	name, desc, err := in.check(true)
	if err != nil {
		return domain.Brand{}, err
	}
	now := s.now().UTC()
	b := domain.Brand{ID: uuid.NewString(), Name: name, Description: desc, CreatedAt: now, UpdatedAt: now}
	if err := s.Brands.Create(ctx, &b); err != nil {
		return domain.Brand{}, duplicateName(err, "brand")
	}
	return b, nil
}

func (s *CatalogService) UpdateBrand(ctx context.Context, id string, in LabelInput) (domain.Brand, error) {
	b, err := s.Brands.Get(ctx, id)
	if err != nil {
		return b, notFound(err, "brand")
	}
	name, desc, err := in.check(false)
	if err != nil {
		return domain.Brand{}, err
	}
	if in.Name != nil {
		b.Name = name
	}
	if in.Description != nil {
		b.Description = desc
	}
	b.UpdatedAt = s.now().UTC()
	if err := s.Brands.Update(ctx, &b); err != nil {
		return domain.Brand{}, duplicateName(err, "brand")
	}
	return b, nil
}

// DeleteBrand refuses while live products still reference the brand.
func (s *CatalogService) DeleteBrand(ctx context.Context, id string) error {
	if _, err := s.Brands.Get(ctx, id); err != nil {
		return notFound(err, "brand")
	}
	n, err := s.Brands.ProductCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return rejected("brand is used by %d product(s)", n)
	}
	return s.Brands.Delete(ctx, id)
}

func duplicateName(err error, what string) error {
	if repos.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s name already exists", ErrConflict, what)
	}
	return err
}
