package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"babashop/internal/domain"
	"babashop/internal/services"
)

// productFilter reads the catalog search query. Keyword syntax is checked by
// the catalog service.
func productFilter(c *fiber.Ctx) (domain.ProductFilter, error) {
	f := domain.ProductFilter{
		Keyword:    strings.TrimSpace(c.Query("keyword", c.Query("q"))),
		CategoryID: strings.TrimSpace(c.Query("category_id")),
		BrandID:    strings.TrimSpace(c.Query("brand_id")),
		Status:     domain.ProductStatus(strings.TrimSpace(c.Query("status"))),
		Page:       c.QueryInt("page", 1),
		Size:       c.QueryInt("size", 12),
	}
	var err error
	if f.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return f, err
	}
	return f, nil
}

// orderFilter reads the admin order search query.
func orderFilter(c *fiber.Ctx) (domain.OrderFilter, error) {
	f := domain.OrderFilter{
		UserID:        strings.TrimSpace(c.Query("user_id")),
		Status:        domain.OrderStatus(strings.TrimSpace(c.Query("status"))),
		PaymentStatus: domain.PaymentStatus(strings.TrimSpace(c.Query("payment_status"))),
		Page:          c.QueryInt("page", 1),
		Limit:         c.QueryInt("limit", 10),
	}
	var err error
	if f.StartDate, err = queryDate(c, "start_date", false); err != nil {
		return f, err
	}
	if f.EndDate, err = queryDate(c, "end_date", true); err != nil {
		return f, err
	}
	return f, nil
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", services.ErrValidation, key)
	}
	return &d, nil
}

// queryDate accepts RFC 3339 timestamps or plain dates. A plain end date covers
// the whole day.
func queryDate(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", services.ErrValidation, key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func pageQuery(c *fiber.Ctx) (page, size int) {
	return c.QueryInt("page", 1), c.QueryInt("size", c.QueryInt("limit", 0))
}
