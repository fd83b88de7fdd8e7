package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Intent statuses reported by the gateway.
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusProcessing            = "processing"
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
)

// ErrGateway wraps failures reported by the payment provider.
var ErrGateway = errors.New("payment gateway error")

// ErrUnknownIntent is returned for an id the gateway has never issued.
var ErrUnknownIntent = fmt.Errorf("%w: no such payment intent", ErrGateway)

type Intent struct {
	ID           string          `json:"payment_intent_id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
}

func (i Intent) Succeeded() bool { return i.Status == StatusSucceeded }

type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
	// ConfirmTest confirms an intent with a test card. Only wired in test mode.
	ConfirmTest(ctx context.Context, id string) (Intent, error)
}

var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// MinorUnits converts amount to the smallest currency unit, rounding half up.
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimal[strings.ToLower(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(units int64, currency string) decimal.Decimal {
	if zeroDecimal[strings.ToLower(currency)] {
		return decimal.NewFromInt(units)
	}
	return decimal.New(units, -2)
}
