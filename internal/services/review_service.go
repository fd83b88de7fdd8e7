package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"babashop/internal/domain"
	"babashop/internal/repos"
	"babashop/internal/validate"
)

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Prods   *repos.ProductRepo
	Orders  *repos.OrderRepo
	now     func() time.Time
}

func NewReviewService(db *sqlx.DB) *ReviewService {
	return &ReviewService{
		Reviews: repos.NewReviewRepo(db),
		Prods:   repos.NewProductRepo(db),
		Orders:  repos.NewOrderRepo(db),
		now:     time.Now,
	}
}

type ReviewInput struct {
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// ReviewUpdate is a partial review edit.
type ReviewUpdate struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type Eligibility struct {
	CanReview bool   `json:"can_review"`
	Reason    string `json:"reason,omitempty"`
}

func (s *ReviewService) Create(ctx context.Context, userID string, in ReviewInput) (domain.Review, error) {
	if in.ProductID == "" {
		return domain.Review{}, invalid("product_id is required")
	}
	if !validate.Rating(in.Rating) {
		return domain.Review{}, invalid("rating must be between 1 and 5")
	}
	comment, ok := validate.Text(in.Comment, 2000)
	if !ok {
		return domain.Review{}, invalid("comment is too long")
	}
	if _, err := s.Prods.Get(ctx, in.ProductID); err != nil {
		return domain.Review{}, notFound(err, "product")
	}
	exists, err := s.Reviews.Exists(ctx, userID, in.ProductID)
	if err != nil {
		return domain.Review{}, err
	}
	if exists {
		return domain.Review{}, rejected("you have already reviewed this product")
	}

	now := s.now().UTC()
	rv := domain.Review{
		ID: uuid.NewString(), UserID: userID, ProductID: in.ProductID,
		Rating: in.Rating, Comment: comment, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.Reviews.Create(ctx, &rv); err != nil {
		if repos.IsUniqueViolation(err) {
			return domain.Review{}, rejected("you have already reviewed this product")
		}
		return domain.Review{}, err
	}
	return s.get(ctx, rv.ID)
}

func (s *ReviewService) ByProduct(ctx context.Context, productID string, page, size int) (domain.Page[domain.Review], error) {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return domain.Page[domain.Review]{}, notFound(err, "product")
	}
	page, size = validate.Paging(page, size, 10, 100)
	items, total, err := s.Reviews.ByProduct(ctx, productID, page, size)
	if err != nil {
		return domain.Page[domain.Review]{}, err
	}
	return domain.NewPage(items, total, page, size), nil
}

func (s *ReviewService) Mine(ctx context.Context, userID string, page, size int) (domain.Page[domain.Review], error) {
	page, size = validate.Paging(page, size, 10, 100)
	items, total, err := s.Reviews.ByUser(ctx, userID, page, size)
	if err != nil {
		return domain.Page[domain.Review]{}, err
	}
	return domain.NewPage(items, total, page, size), nil
}

func (s *ReviewService) Update(ctx context.Context, userID, id string, in ReviewUpdate) (domain.Review, error) {
	rv, err := s.own(ctx, userID, id)
	if err != nil {
		return rv, err
	}
	if in.Rating != nil {
		if !validate.Rating(*in.Rating) {
			return domain.Review{}, invalid("rating must be between 1 and 5")
		}
		rv.Rating = *in.Rating
	}
	if in.Comment != nil {
		c, ok := validate.Text(*in.Comment, 2000)
		if !ok {
			return domain.Review{}, invalid("comment is too long")
		}
		rv.Comment = c
	}
	rv.UpdatedAt = s.now().UTC()
	if err := s.Reviews.Update(ctx, &rv); err != nil {
		return domain.Review{}, err
	}
	return rv, nil
}

func (s *ReviewService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.own(ctx, userID, id); err != nil {
		return err
	}
	return s.Reviews.Delete(ctx, id)
}

// Eligibility reports whether the user may review the product: they must hold
// a paid order containing it and not have reviewed it yet.
func (s *ReviewService) Eligibility(ctx context.Context, userID, productID string) (Eligibility, error) {
	if productID == "" {
		return Eligibility{}, invalid("product_id is required")
	}
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return Eligibility{}, notFound(err, "product")
	}
	reviewed, err := s.Reviews.Exists(ctx, userID, productID)
	if err != nil {
		return Eligibility{}, err
	}
	if reviewed {
		return Eligibility{Reason: "already reviewed"}, nil
	}
	bought, err := s.Orders.HasPurchased(ctx, userID, productID)
	if err != nil {
		return Eligibility{}, err
	}
	if !bought {
		return Eligibility{Reason: "purchase this product to review it"}, nil
	}
	return Eligibility{CanReview: true}, nil
}

// own loads a review the user wrote; other users' reviews are reported as missing.
func (s *ReviewService) own(ctx context.Context, userID, id string) (domain.Review, error) {
	rv, err := s.get(ctx, id)
	if err != nil {
		return rv, err
	}
	if rv.UserID != userID {
		return domain.Review{}, fmt.Errorf("%w: review not found", ErrNotFound)
	}
	return rv, nil
}

func (s *ReviewService) get(ctx context.Context, id string) (domain.Review, error) {
	rv, err := s.Reviews.Get(ctx, id)
	if err != nil {
		return rv, notFound(err, "review")
	}
	return rv, nil
}
