package cache

import (
	"context"
	"errors"

	"babashop/internal/domain"
)

// CartCache stores rendered cart views keyed by user.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.CartView, error)
	Set(ctx context.Context, userID string, cart *domain.CartView) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop always misses. Used when no redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.CartView, error) { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, string, *domain.CartView) error  { return nil }
func (Noop) Delete(context.Context, string) error                 { return nil }
