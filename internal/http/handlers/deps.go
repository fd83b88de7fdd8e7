package handlers

import (
	"github.com/jmoiron/sqlx"

	"babashop/internal/cache"
	"babashop/internal/config"
	"babashop/internal/mail"
	"babashop/internal/payment"
	"babashop/internal/services"
	"babashop/internal/storage"
)

// Externals are the collaborators outside the database. Nil fields fall back
// to in-process implementations.
type Externals struct {
	Gateway payment.Gateway
	Mailer  mail.Sender
	Cache   cache.CartCache
	Store   storage.Store
}

type Deps struct {
	Config config.Config
	Auth   *services.AuthService

	AuthHandler      *AuthHandler
	UserHandler      *UserHandler
	ProductHandler   *ProductHandler
	CategoryHandler  *CategoryHandler
	InventoryHandler *InventoryHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	PaymentHandler   *PaymentHandler
	ReviewHandler    *ReviewHandler
	UploadHandler    *UploadHandler
	AdminHandler     *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, ext Externals) (*Deps, error) {
	if ext.Gateway == nil {
		ext.Gateway = payment.NewMemoryGateway()
	}
	if ext.Mailer == nil {
		ext.Mailer = mail.LogSender{}
	}
	if ext.Store == nil {
		store, err := storage.NewLocalStore(cfg.MediaDir)
		if err != nil {
			return nil, err
		}
		ext.Store = store
	}

	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authSvc := services.NewAuthService(db, tokens, ext.Mailer, cfg.OTPTTL, cfg.OTPResendCooldown)
	userSvc := services.NewUserService(db)
	catalogSvc := services.NewCatalogService(db)
	invSvc := services.NewInventoryService(db)
	cartSvc := services.NewCartService(db, ext.Cache)
	orderSvc := services.NewOrderService(db)
	reviewSvc := services.NewReviewService(db)
	checkoutSvc := services.NewCheckoutService(db, ext.Gateway, cartSvc, invSvc, orderSvc, cfg.PaymentCurrency)

	return &Deps{
		Config:           cfg,
		Auth:             authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc},
		UserHandler:      &UserHandler{Users: userSvc, Auth: authSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc, Reviews: reviewSvc},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler:     &OrderHandler{Orders: orderSvc},
		PaymentHandler:   &PaymentHandler{Checkout: checkoutSvc},
		ReviewHandler:    &ReviewHandler{Reviews: reviewSvc},
		UploadHandler:    &UploadHandler{Store: ext.Store},
		AdminHandler:     &AdminHandler{Users: userSvc, Inv: invSvc},
	}, nil
}
