package handlers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// NewApp builds the fiber application with middleware and every route.
func NewApp(d *Deps) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		AppName:      "babashop",
		BodyLimit:    cfg.UploadMaxBytes,
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(rateLimit(120, time.Minute, "global", func(c *fiber.Ctx) bool {
		p := c.Path()
		return strings.HasPrefix(p, "/media/") || p == "/healthz"
	}))
	app.Use(bodyLimit(cfg.MaxBodyBytes, "/api/upload"))

	// ---------- Static media ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			return deny(c, fiber.StatusNotFound, "file not found", "media.traversal.block", map[string]any{"path": path})
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			return deny(c, fiber.StatusNotFound, "file not found", "media.traversal.block", map[string]any{"path": path})
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	app.Get("/healthz", func(c *fiber.Ctx) error { return ok(c, fiber.Map{"ok": true}) })

	// ---------- API ----------
	api := app.Group("/api")
	user := RequireUser(d.Auth)
	admin := RequireAdmin()

	otpLimiter := rateLimit(10, 10*time.Minute, "otp", nil)
	auth := api.Group("/auth")
	auth.Post("/register", otpLimiter, d.AuthHandler.Register)
	auth.Post("/login", rateLimit(5, 10*time.Minute, "login", nil), d.AuthHandler.Login)
	auth.Post("/verify-otp", otpLimiter, d.AuthHandler.VerifyOTP)
	auth.Post("/resend-otp", otpLimiter, d.AuthHandler.ResendOTP)
	auth.Post("/forgot-password", otpLimiter, d.AuthHandler.ForgotPassword)
	auth.Post("/reset-password", otpLimiter, d.AuthHandler.ResetPassword)

	users := api.Group("/users", user)
	users.Get("/profile", d.UserHandler.Profile)
	users.Put("/profile", d.UserHandler.UpdateProfile)
	users.Post("/change-password", d.UserHandler.ChangePassword)

	products := api.Group("/products")
	products.Get("/", d.ProductHandler.List)
	products.Get("/:id", d.ProductHandler.Get)
	products.Get("/:id/reviews", d.ProductHandler.ListReviews)
	products.Get("/:id/availability", rateLimit(15, 30*time.Second, "availability", nil), d.InventoryHandler.Check)
	products.Post("/", user, admin, d.ProductHandler.Create)
	products.Put("/:id", user, admin, d.ProductHandler.Update)
	products.Delete("/:id", user, admin, d.ProductHandler.Delete)

	brands := api.Group("/brands")
	brands.Get("/", d.CategoryHandler.ListBrands)
	brands.Get("/:id", d.CategoryHandler.GetBrand)
	brands.Post("/", user, admin, d.CategoryHandler.CreateBrand)
	brands.Put("/:id", user, admin, d.CategoryHandler.UpdateBrand)
	brands.Delete("/:id", user, admin, d.CategoryHandler.DeleteBrand)

	categories := api.Group("/categories")
	categories.Get("/", d.CategoryHandler.ListCategories)
	categories.Get("/:id", d.CategoryHandler.GetCategory)
	categories.Post("/", user, admin, d.CategoryHandler.CreateCategory)
	categories.Put("/:id", user, admin, d.CategoryHandler.UpdateCategory)
	categories.Delete("/:id", user, admin, d.CategoryHandler.DeleteCategory)

	cart := api.Group("/cart", user)
	cart.Get("/", d.CartHandler.View)
	cart.Post("/items", d.CartHandler.Add)
	cart.Delete("/items/:id", d.CartHandler.Remove)
	cart.Delete("/", d.CartHandler.Clear)

	orders := api.Group("/orders", user)
	orders.Get("/", d.OrderHandler.History)
	orders.Get("/search/all", admin, d.OrderHandler.Search)
	orders.Get("/admin/by-user/:user_id", admin, d.OrderHandler.ByUser)
	orders.Get("/admin/by-product/:product_id", admin, d.OrderHandler.ByProduct)
	orders.Put("/admin/:id/status", admin, d.OrderHandler.UpdateStatus)
	orders.Get("/:id", d.OrderHandler.View)

	payments := api.Group("/payments", user)
	payments.Post("/create-intent", d.PaymentHandler.CreateIntent)
	payments.Post("/confirm-from-cart", d.PaymentHandler.ConfirmFromCart)
	payments.Post("/confirm-from-products", d.PaymentHandler.ConfirmFromProducts)
	if cfg.PaymentTestMode {
		payments.Post("/test-confirm/:id", d.PaymentHandler.TestConfirm)
	}

	reviews := api.Group("/reviews", user)
	reviews.Post("/", d.ReviewHandler.Create)
	reviews.Get("/me", d.ReviewHandler.Mine)
	reviews.Get("/check-eligibility", d.ReviewHandler.Eligibility)
	reviews.Put("/:id", d.ReviewHandler.Update)
	reviews.Delete("/:id", d.ReviewHandler.Delete)

	upload := api.Group("/upload")
	upload.Post("/", user, admin, d.UploadHandler.Upload)
	upload.Get("/:id", d.UploadHandler.Stat)
	upload.Delete("/:id", user, admin, d.UploadHandler.Delete)

	adm := api.Group("/admin", user, admin)
	adm.Get("/users", d.AdminHandler.ListUsers)
	adm.Delete("/users/:id", d.AdminHandler.DeleteUser)
	adm.Get("/inventory", d.AdminHandler.Inventory)
	adm.Put("/inventory", d.AdminHandler.UpdateInventory)

	// 404
	app.Use(func(c *fiber.Ctx) error {
		return reply(c, fiber.StatusNotFound, "route not found", nil)
	})
	return app
}

// rateLimit throttles per client IP; each name keeps its own counters.
func rateLimit(max int, exp time.Duration, name string, skip func(*fiber.Ctx) bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: exp,
		Next:       skip,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + name
		},
		LimitReached: func(c *fiber.Ctx) error {
			return deny(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon", "rate."+name+".hit", nil)
		},
	})
}

// bodyLimit rejects bodies over max bytes, except under the exempt prefix
// which is bounded by the server-wide limit.
func bodyLimit(max int, exempt string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if max <= 0 || strings.HasPrefix(c.Path(), exempt) {
			return c.Next()
		}
		if len(c.Body()) > max {
			return deny(c, fiber.StatusRequestEntityTooLarge, "request body too large", "request.body.too_large", map[string]any{"bytes": len(c.Body())})
		}
		return c.Next()
	}
}
