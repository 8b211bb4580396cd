package http

import (
	"net/http"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	Products *ProductHandler
	Cart     *CartHandler
	Wishlist *WishlistHandler
	Checkout *CheckoutHandler
	Auth     *AuthHandler
	Provider auth.Provider
	Catalog  CatalogReader
	Log      logrus.FieldLogger
	Timeout  time.Duration
}

type HealthResponse struct {
	Status       string `json:"status"`
	CatalogState string `json:"catalog_state"`
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: cfg.Log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{
			Status:       "ok",
			CatalogState: string(cfg.Catalog.Status().State),
		})
	})

	identity := auth.Middleware(cfg.Provider, cfg.Log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Products.ListProducts)
			r.Post("/refresh", cfg.Products.RefreshProducts)
			r.Get("/{id}", cfg.Products.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(identity)
				r.Post("/", cfg.Products.CreateProduct)
				r.Put("/{id}", cfg.Products.UpdateProduct)
				r.Delete("/{id}", cfg.Products.DeleteProduct)
			})
		})

		r.With(identity).Post("/images", cfg.Products.UploadImage)

		r.Route("/cart", func(r chi.Router) {
			r.Use(identity)
			r.Get("/", cfg.Cart.GetCart)
			r.Delete("/", cfg.Cart.ClearCart)
			r.Post("/items", cfg.Cart.AddItem)
			r.Post("/items/{item_id}/increase", cfg.Cart.IncreaseQuantity)
			r.Post("/items/{item_id}/decrease", cfg.Cart.DecreaseQuantity)
			r.Delete("/items/{item_id}", cfg.Cart.RemoveItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(identity)
			r.Get("/", cfg.Wishlist.GetWishlist)
			r.Post("/{product_id}/toggle", cfg.Wishlist.Toggle)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/payment-methods", cfg.Checkout.PaymentMethods)

			r.Group(func(r chi.Router) {
				r.Use(identity)
				r.Get("/", cfg.Checkout.GetState)
				r.Post("/", cfg.Checkout.Begin)
				r.Delete("/", cfg.Checkout.Abandon)
				r.Put("/address", cfg.Checkout.SubmitAddress)
				r.Put("/payment", cfg.Checkout.SelectPayment)
				r.Post("/confirm", cfg.Checkout.Confirm)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(identity)
			r.Get("/", cfg.Checkout.ListOrders)
			r.Get("/{order_id}", cfg.Checkout.GetOrder)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", cfg.Auth.SignUp)
			r.Post("/signin", cfg.Auth.SignIn)
			r.With(identity).Post("/signout", cfg.Auth.SignOut)
			r.With(identity).Put("/profile", cfg.Auth.UpdateProfile)
		})
	})

	return r
}
