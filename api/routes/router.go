package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartdine/smartdine-backend/api/controllers"
	"github.com/smartdine/smartdine-backend/api/middleware"
	"github.com/smartdine/smartdine-backend/internal/cart"
	"github.com/smartdine/smartdine-backend/internal/dishes"
	"github.com/smartdine/smartdine-backend/internal/orders"
	"github.com/smartdine/smartdine-backend/internal/preferences"
	"github.com/smartdine/smartdine-backend/internal/recommend"
	"github.com/smartdine/smartdine-backend/internal/reviews"
	"github.com/smartdine/smartdine-backend/pkg/config"
	"github.com/smartdine/smartdine-backend/pkg/db"
	"github.com/smartdine/smartdine-backend/pkg/logger"
	"github.com/smartdine/smartdine-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	dishService dishes.Service,
	cartService cart.Service,
	orderService orders.Service,
	reviewService reviews.Service,
	preferenceService preferences.Service,
	recommendService recommend.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// a typed-nil *redis.Client must not reach the readiness check as a
	// non-nil interface
	var cache controllers.RedisPinger
	if redisClient != nil {
		cache = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/dishes", func(r chi.Router) {
			r.Get("/", controllers.DishList(dishService, logg))
			r.Get("/home", controllers.DishHome(dishService, logg))
			r.Get("/{dishId}", controllers.DishDetail(dishService, logg))
			r.Get("/{dishId}/reviews", controllers.ReviewListByDish(reviewService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(orderService, logg))
			r.Get("/", controllers.OrderList(orderService, logg))
			r.Get("/{orderId}", controllers.OrderGet(orderService, logg))
			r.Post("/{orderId}/status", controllers.OrderSetStatus(orderService, logg))
		})

		r.Post("/reviews", controllers.ReviewCreate(reviewService, logg))

		r.Route("/users/preferences", func(r chi.Router) {
			r.Get("/", controllers.PreferencesGet(preferenceService, logg))
			r.Put("/", controllers.PreferencesUpdate(preferenceService, logg))
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/sessions", controllers.ChatSessionCreate(recommendService, logg))
			r.Post("/sessions/{sessionId}/messages", controllers.ChatSendMessage(recommendService, logg))
			r.Post("/sessions/{sessionId}/messages/stream", controllers.ChatStreamMessage(recommendService, logg))
		})
	})

	return r
}
