package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryGateway keeps intents in process. It backs local runs without a Stripe
// key and the test suites.
type MemoryGateway struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{intents: make(map[string]*Intent)}
}

func (g *MemoryGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (Intent, error) {
	if err := ctx.Err(); err != nil {
		return Intent{}, err
	}
	if !amount.IsPositive() {
		return Intent{}, fmt.Errorf("%w: amount must be positive", ErrGateway)
	}
	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	in := Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		Amount:       amount,
		Currency:     strings.ToLower(currency),
		Status:       StatusRequiresPaymentMethod,
	}
	g.mu.Lock()
	g.intents[id] = &in
	g.mu.Unlock()
	return in, nil
}

func (g *MemoryGateway) GetIntent(ctx context.Context, id string) (Intent, error) {
	if err := ctx.Err(); err != nil {
		return Intent{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[id]
	if !ok {
		return Intent{}, ErrUnknownIntent
	}
	return *in, nil
}

func (g *MemoryGateway) ConfirmTest(ctx context.Context, id string) (Intent, error) {
	return g.SetStatus(ctx, id, StatusSucceeded)
}

// SetStatus forces an intent into status.
func (g *MemoryGateway) SetStatus(ctx context.Context, id, status string) (Intent, error) {
	if err := ctx.Err(); err != nil {
		return Intent{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[id]
	if !ok {
		return Intent{}, ErrUnknownIntent
	}
	in.Status = status
	return *in, nil
}
