package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wholesaledesk/ordering-backend/api/controllers"
	cartcontrollers "github.com/wholesaledesk/ordering-backend/api/controllers/cart"
	ordercontrollers "github.com/wholesaledesk/ordering-backend/api/controllers/orders"
	"github.com/wholesaledesk/ordering-backend/api/middleware"
	"github.com/wholesaledesk/ordering-backend/internal/availability"
	"github.com/wholesaledesk/ordering-backend/internal/cart"
	"github.com/wholesaledesk/ordering-backend/internal/orders"
	product "github.com/wholesaledesk/ordering-backend/internal/products"
	"github.com/wholesaledesk/ordering-backend/pkg/auth"
	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
	"github.com/wholesaledesk/ordering-backend/pkg/metrics"
	"github.com/wholesaledesk/ordering-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs. Nil services answer 500 on their routes.
type Dependencies struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        controllers.Pinger
	Idempotency  redis.IdempotencyStore
	Users        middleware.UserGetter
	Catalog      product.Service
	Cart         cart.Service
	Orders       orders.Service
	Availability availability.Service
	HTTPMetrics  *metrics.HTTPMetrics
	// MetricsHandler serves /metrics; defaults to the global registry.
	MetricsHandler http.Handler
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(auth.NewVerifier(cfg.JWT), logg))
		r.Use(middleware.CurrentUser(deps.Users, logg))

		r.Get("/access", controllers.Access(logg))
		r.Get("/catalog/groups/{groupId}/products", controllers.CatalogGroupProducts(deps.Catalog, logg))
		r.Get("/availability/groups/{groupId}", controllers.GroupAvailability(deps.Availability, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
		})
		r.Get("/users/{userId}/cart", cartcontrollers.CartFetchForUser(deps.Cart, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.Idempotency(deps.Idempotency, cfg.App.IdempotencyTTL, logg)).Post("/", ordercontrollers.Create(deps.Orders, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Post("/{orderId}/repeat", ordercontrollers.Repeat(deps.Orders, logg))
		})
	})

	return r
}
