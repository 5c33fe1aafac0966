// Package routes wires nearcart's HTTP surface onto pkg/router.
package routes

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/controllers"
	appgql "github.com/shashiranjanraj/nearcart/app/graphql"
	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/app/services"
	"github.com/shashiranjanraj/nearcart/config"
	"github.com/shashiranjanraj/nearcart/pkg/ctx"
	"github.com/shashiranjanraj/nearcart/pkg/graphql"
	"github.com/shashiranjanraj/nearcart/pkg/metrics"
	"github.com/shashiranjanraj/nearcart/pkg/middleware"
	"github.com/shashiranjanraj/nearcart/pkg/rbac"
	"github.com/shashiranjanraj/nearcart/pkg/reqid"
	"github.com/shashiranjanraj/nearcart/pkg/response"
	"github.com/shashiranjanraj/nearcart/pkg/router"
)

// Services are the business operations behind the routes.
type Services struct {
	Checkout *services.CheckoutService
	Orders   *services.OrderService
	Search   *services.SearchService
}

// NewServices builds every service on db with configured options.
func NewServices(db *gorm.DB) Services {
	return Services{
		Checkout: services.NewCheckoutService(db, services.DefaultCheckoutOptions()),
		Orders:   services.NewOrderService(db),
		Search:   services.NewSearchService(db, services.DefaultSearchOptions()),
	}
}

// New builds the router with the global middleware stack and every route.
func New(s Services) (*router.Router, error) {
	r := router.New()
	r.Use(
		reqid.Middleware(),
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(middleware.DefaultCORSOptions()),
		metrics.Middleware(),
		middleware.RateLimit(config.RateLimitPerMinute(), time.Minute),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { response.MethodNotAllowed(w) })

	if err := Register(r, s); err != nil {
		return nil, err
	}
	return r, nil
}

// Register mounts the API at the root and again under /api.
func Register(r *router.Router, s Services) error {
	schema, err := appgql.NewResolver(s.Search, s.Orders).Schema()
	if err != nil {
		return err
	}

	r.Get("/health", "health", ctx.Wrap(controllers.Health))
	r.Get("/metrics", "metrics", metrics.Handler())

	orders := controllers.NewOrderController(s.Checkout, s.Orders)
	search := controllers.NewSearchController(s.Search)
	gqlHandler := graphql.Handler(schema)

	for _, prefix := range []string{"", "/api"} {
		name := func(n string) string {
			if prefix == "" {
				return n
			}
			return "api." + n
		}
		api := r.Group(prefix, middleware.Auth)

		order := api.Group("/order")
		order.Post("/checkout", name("order.checkout"), ctx.Wrap(orders.Checkout))
		order.Get("/user", name("order.user"), ctx.Wrap(orders.UserOrders))
		order.Get("/shop/{shopId}", name("order.shop"), ctx.Wrap(orders.ShopOrders),
			rbac.HasRole(models.RoleShopOwner))
		order.Get("/{orderId}", name("order.show"), ctx.Wrap(orders.Show))
		order.Put("/{orderId}/status", name("order.status"), ctx.Wrap(orders.UpdateStatus))

		api.Get("/product/search", name("product.search"), ctx.Wrap(search.Products))
		api.Get("/shop/nearby", name("shop.nearby"), ctx.Wrap(search.NearbyShops))

		api.Post("/graphql", name("graphql"), gqlHandler)
	}
	return nil
}
