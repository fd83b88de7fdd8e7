package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"babashop/internal/domain"
	"babashop/internal/payment"
	"babashop/internal/repos"
)

// CheckoutService turns a succeeded payment into an order. Everything after the
// gateway check runs in one transaction, so a failure leaves no partial order,
// stock change or cleared cart behind.
type CheckoutService struct {
	db        *sqlx.DB
	Gateway   payment.Gateway
	Carts     *CartService
	Inventory *InventoryService
	Orders    *OrderService
	Addresses *repos.AddressRepo
	Currency  string
	now       func() time.Time
}

func NewCheckoutService(db *sqlx.DB, gw payment.Gateway, carts *CartService, inv *InventoryService, orders *OrderService, currency string) *CheckoutService {
	if currency == "" {
		currency = "vnd"
	}
	return &CheckoutService{
		db:        db,
		Gateway:   gw,
		Carts:     carts,
		Inventory: inv,
		Orders:    orders,
		Addresses: repos.NewAddressRepo(db),
		Currency:  strings.ToLower(currency),
		now:       time.Now,
	}
}

// ConfirmInput identifies the payment and where to ship. A nil address falls
// back to the user's default address.
type ConfirmInput struct {
	PaymentIntentID string                  `json:"payment_intent_id"`
	DeliveryAddress *domain.DeliveryAddress `json:"delivery_address"`
}

// CreateIntent opens a gateway payment for amount, or for the current cart
// total when amount is nil. The cart is priced from the database, not the cache.
func (s *CheckoutService) CreateIntent(ctx context.Context, userID string, amount *decimal.Decimal) (payment.Intent, error) {
	var total decimal.Decimal
	if amount != nil {
		total = *amount
	} else {
		cart, err := s.Carts.Load(ctx, userID)
		if err != nil {
			return payment.Intent{}, err
		}
		if len(cart.Items) == 0 {
			return payment.Intent{}, rejected("cart is empty")
		}
		total = cart.TotalAmount
	}
	if !total.IsPositive() {
		return payment.Intent{}, invalid("amount must be positive")
	}
	in, err := s.Gateway.CreateIntent(ctx, total, s.Currency)
	if err != nil {
		return payment.Intent{}, gatewayErr(err)
	}
	return in, nil
}

// TestConfirm confirms an intent with the gateway's test card.
func (s *CheckoutService) TestConfirm(ctx context.Context, intentID string) (payment.Intent, error) {
	if strings.TrimSpace(intentID) == "" {
		return payment.Intent{}, invalid("payment_intent_id is required")
	}
	in, err := s.Gateway.ConfirmTest(ctx, intentID)
	if err != nil {
		return payment.Intent{}, gatewayErr(err)
	}
	return in, nil
}

// ConfirmFromCart creates an order from the user's cart and empties it.
func (s *CheckoutService) ConfirmFromCart(ctx context.Context, userID string, in ConfirmInput) (*domain.Order, error) {
	return s.confirm(ctx, userID, in, nil, true)
}

// ConfirmFromProducts creates an order from an explicit item list ("buy now").
func (s *CheckoutService) ConfirmFromProducts(ctx context.Context, userID string, in ConfirmInput, lines []domain.OrderLine) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, rejected("no items to order")
	}
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, invalid("product_id is required")
		}
		if l.Quantity <= 0 {
			return nil, invalid("quantity must be positive")
		}
		if l.Size < 0 {
			return nil, invalid("size must not be negative")
		}
	}
	return s.confirm(ctx, userID, in, lines, false)
}

func (s *CheckoutService) confirm(ctx context.Context, userID string, in ConfirmInput, lines []domain.OrderLine, fromCart bool) (*domain.Order, error) {
	in.PaymentIntentID = strings.TrimSpace(in.PaymentIntentID)
	if in.PaymentIntentID == "" {
		return nil, invalid("payment_intent_id is required")
	}
	addr, err := s.resolveAddress(ctx, userID, in.DeliveryAddress)
	if err != nil {
		return nil, err
	}

	intent, err := s.Gateway.GetIntent(ctx, in.PaymentIntentID)
	if err != nil {
		return nil, gatewayErr(err)
	}
	if !intent.Succeeded() {
		return nil, rejected("payment not completed. Status: %s", intent.Status)
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		DeliveryAddress: addr,
		OrderDate:       now,
		Status:          domain.OrderPending,
		PaymentStatus:   domain.PaymentCompleted,
		PaymentIntentID: in.PaymentIntentID,
		PaymentMethod:   domain.PaymentMethodStripe,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = repos.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		orders := repos.NewOrderRepo(tx)
		dup, err := orders.ExistsForPayment(ctx, in.PaymentIntentID)
		if err != nil {
			return err
		}
		if dup {
			return errDuplicateOrder
		}

		var cart domain.Cart
		carts := repos.NewCartRepo(tx)
		if fromCart {
			if cart, err = carts.EnsureCart(ctx, userID); err != nil {
				return err
			}
			rows, err := carts.Items(ctx, cart.ID)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return rejected("cart is empty")
			}
			lines = make([]domain.OrderLine, 0, len(rows))
			for _, r := range rows {
				lines = append(lines, domain.OrderLine{ProductID: r.ProductID, Quantity: r.Quantity, Size: r.Size, Color: r.Color})
			}
		}

		items, total, err := s.resolveItems(ctx, tx, order.ID, lines)
		if err != nil {
			return err
		}
		if payment.MinorUnits(intent.Amount, s.Currency) != payment.MinorUnits(total, s.Currency) {
			return rejected("payment amount %s does not match order total %s", intent.Amount, total)
		}
		order.TotalAmount = total

		if err := orders.Create(ctx, order); err != nil {
			if repos.IsUniqueViolation(err) {
				return errDuplicateOrder
			}
			return err
		}
		for i := range items {
			if err := orders.InsertItem(ctx, &items[i]); err != nil {
				return err
			}
		}
		for _, it := range items {
			if err := s.Inventory.DecrementStock(ctx, tx, it.ProductID, it.Size, it.Color, it.Quantity); err != nil {
				return err
			}
		}
		if fromCart {
			if err := carts.Clear(ctx, cart.ID); err != nil {
				return err
			}
		}
		order.Items = items
		return repos.NewOutboxRepo(tx).Insert(ctx, orderCreatedEvent(order))
	})
	if err != nil {
		return nil, err
	}
	if fromCart {
		s.Carts.Invalidate(ctx, userID)
	}
	return s.Orders.load(ctx, order.ID)
}

var errDuplicateOrder = fmt.Errorf("%w: order already exists for this payment", ErrConflict)

// resolveItems validates each line against the live product and snapshots it
// into an order item. Lines for the same variant are checked against stock
// together.
func (s *CheckoutService) resolveItems(ctx context.Context, tx repos.DB, orderID string, lines []domain.OrderLine) ([]domain.OrderItem, decimal.Decimal, error) {
	products := repos.NewProductRepo(tx)
	byID := map[string]domain.Product{}
	wanted := map[string]int{}
	total := decimal.Zero
	items := make([]domain.OrderItem, 0, len(lines))

	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			var err error
			if p, err = products.Get(ctx, l.ProductID); err != nil {
				return nil, total, notFound(err, "product "+l.ProductID)
			}
			byID[p.ID] = p
		}
		if p.Status != domain.ProductActive {
			return nil, total, rejected("product %s is not available", p.Name)
		}
		if len(p.Variants) > 0 {
			i := p.Variants.Find(l.Size, l.Color)
			if i < 0 {
				return nil, total, rejected("product %s has no variant size %d color %q", p.Name, l.Size, l.Color)
			}
			key := fmt.Sprintf("%s|%d", p.ID, i)
			wanted[key] += l.Quantity
			if stock := p.Variants[i].StockQuantity; wanted[key] > stock {
				return nil, total, rejected("insufficient stock for %s (requested %d, available %d)", p.Name, wanted[key], stock)
			}
		} else if l.Size != 0 || l.Color != "" {
			return nil, total, rejected("product %s has no variant size %d color %q", p.Name, l.Size, l.Color)
		}

		it := domain.OrderItem{
			ID:              uuid.NewString(),
			OrderID:         orderID,
			ProductID:       p.ID,
			ProductName:     p.Name,
			ProductImage:    p.FirstImage(),
			Size:            l.Size,
			Color:           l.Color,
			Quantity:        l.Quantity,
			PriceAtPurchase: p.Price,
		}
		total = total.Add(it.Subtotal())
		items = append(items, it)
	}
	return items, total, nil
}

func (s *CheckoutService) resolveAddress(ctx context.Context, userID string, a *domain.DeliveryAddress) (domain.DeliveryAddress, error) {
	if a != nil && !a.IsZero() {
		return checkAddress(*a)
	}
	def, ok, err := s.Addresses.Default(ctx, userID)
	if err != nil {
		return domain.DeliveryAddress{}, err
	}
	if !ok {
		return domain.DeliveryAddress{}, invalid("delivery_address is required")
	}
	return def.Delivery(), nil
}

type orderCreatedPayload struct {
	OrderID         string             `json:"order_id"`
	UserID          string             `json:"user_id"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	PaymentIntentID string             `json:"payment_intent_id"`
	Items           []domain.OrderItem `json:"items"`
	CreatedAt       time.Time          `json:"created_at"`
}

func orderCreatedEvent(o *domain.Order) *domain.OutboxEvent {
	body, _ := json.Marshal(orderCreatedPayload{
		OrderID:         o.ID,
		UserID:          o.UserID,
		TotalAmount:     o.TotalAmount,
		PaymentIntentID: o.PaymentIntentID,
		Items:           o.Items,
		CreatedAt:       o.CreatedAt,
	})
	return &domain.OutboxEvent{
		ID:          uuid.NewString(),
		AggregateID: o.ID,
		EventType:   domain.EventOrderCreated,
		Payload:     body,
		CreatedAt:   o.CreatedAt,
	}
}

// gatewayErr reports provider failures as rejected requests carrying the
// provider's message.
func gatewayErr(err error) error {
	if errors.Is(err, payment.ErrGateway) {
		return fmt.Errorf("%w: %s", ErrBusinessRule, err.Error())
	}
	return err
}
