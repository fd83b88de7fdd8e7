package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway talks to Stripe through a per-instance API client.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{api: sc}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (Intent, error) {
	currency = strings.ToLower(currency)
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(amount, currency)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, wrapStripe(err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return Intent{}, wrapStripe(err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) ConfirmTest(ctx context.Context, id string) (Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String("pm_card_visa"),
	}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		return Intent{}, wrapStripe(err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) Intent {
	cur := string(pi.Currency)
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       FromMinorUnits(pi.Amount, cur),
		Currency:     cur,
		Status:       string(pi.Status),
	}
}

func wrapStripe(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return fmt.Errorf("%w: %s", ErrGateway, se.Msg)
	}
	return fmt.Errorf("%w: %v", ErrGateway, err)
}
