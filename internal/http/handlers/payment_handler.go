package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/shopspring/decimal"

	"babashop/internal/domain"
	applog "babashop/internal/log"
	"babashop/internal/services"
)

type PaymentHandler struct {
	Checkout *services.CheckoutService
}

// POST /api/payments/create-intent
func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	var in struct {
		Amount *decimal.Decimal `json:"amount"`
	}
	if len(c.Body()) > 0 {
		if err := bind(c, &in); err != nil {
			return fail(c, "payment.intent", err)
		}
	}
	intent, err := h.Checkout.CreateIntent(c.UserContext(), currentUser(c).ID, in.Amount)
	if err != nil {
		return fail(c, "payment.intent", err)
	}
	return ok(c, intent)
}

// POST /api/payments/confirm-from-cart
func (h *PaymentHandler) ConfirmFromCart(c *fiber.Ctx) error {
	var in services.ConfirmInput
	if err := bind(c, &in); err != nil {
		return fail(c, "order.place", err)
	}
	o, err := h.Checkout.ConfirmFromCart(c.UserContext(), currentUser(c).ID, in)
	if err != nil {
		return h.placeFailed(c, in, err)
	}
	return h.placed(c, o)
}

// POST /api/payments/confirm-from-products
func (h *PaymentHandler) ConfirmFromProducts(c *fiber.Ctx) error {
	var in struct {
		services.ConfirmInput
		Items []domain.OrderLine `json:"items"`
	}
	if err := bind(c, &in); err != nil {
		return fail(c, "order.place", err)
	}
	o, err := h.Checkout.ConfirmFromProducts(c.UserContext(), currentUser(c).ID, in.ConfirmInput, in.Items)
	if err != nil {
		return h.placeFailed(c, in.ConfirmInput, err)
	}
	return h.placed(c, o)
}

// POST /api/payments/test-confirm/:id
func (h *PaymentHandler) TestConfirm(c *fiber.Ctx) error {
	// params alias the request buffer; the gateway keeps the id
	intent, err := h.Checkout.TestConfirm(c.UserContext(), utils.CopyString(c.Params("id")))
	if err != nil {
		return fail(c, "payment.test_confirm", err)
	}
	return ok(c, intent)
}

func (h *PaymentHandler) placed(c *fiber.Ctx, o *domain.Order) error {
	applog.Audit(c, "order.place", map[string]any{
		"order_id":          o.ID,
		"payment_intent_id": o.PaymentIntentID,
		"total":             o.TotalAmount.String(),
		"items":             len(o.Items),
	})
	return reply(c, fiber.StatusCreated, "order created", o)
}

func (h *PaymentHandler) placeFailed(c *fiber.Ctx, in services.ConfirmInput, err error) error {
	if st := statusOf(err); st != 0 {
		c.Status(st)
		applog.Security(c, "order.place.fail", map[string]any{
			"payment_intent_id": in.PaymentIntentID,
			"reason":            services.Message(err),
		})
	}
	return fail(c, "order.place", err)
}
