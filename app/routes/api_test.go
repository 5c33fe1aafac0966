package routes_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nearcart/app/routes"
	"github.com/shashiranjanraj/nearcart/app/services"
	_ "github.com/shashiranjanraj/nearcart/database/migrations"
	"github.com/shashiranjanraj/nearcart/database/seeders"
	"github.com/shashiranjanraj/nearcart/pkg/geo"
	"github.com/shashiranjanraj/nearcart/pkg/router"
	"github.com/shashiranjanraj/nearcart/pkg/testkit"
)

func newRouter(t *testing.T) *router.Router {
	t.Helper()
	db := testkit.NewDB(t)
	require.NoError(t, seeders.RunAll(context.Background(), db, io.Discard))

	r, err := routes.New(routes.Services{
		Checkout: services.NewCheckoutService(db, services.CheckoutOptions{}),
		Orders:   services.NewOrderService(db),
		Search:   services.NewSearchService(db, services.SearchOptions{RadiusKm: 10, Engine: geo.DefaultEngine}),
	})
	require.NoError(t, err)
	return r
}

// The groups share one database and run in file order: checkout creates
// orders 1 and 2 (split cart) and 3 (idempotent), which the later groups
// read and move along.
func TestAPIScenarios(t *testing.T) {
	testkit.RunSuite(t, "testdata/test_scenarios.json", newRouter(t).Handler())
}

func TestRoutesMountedTwice(t *testing.T) {
	r := newRouter(t)

	byName := map[string]router.RouteInfo{}
	for _, info := range r.Routes() {
		byName[info.Name] = info
	}
	assert.Equal(t, router.RouteInfo{Method: http.MethodPut, Path: "/order/{orderId}/status", Name: "order.status"}, byName["order.status"])
	assert.Equal(t, router.RouteInfo{Method: http.MethodPut, Path: "/api/order/{orderId}/status", Name: "api.order.status"}, byName["api.order.status"])

	var checkouts int
	for _, info := range r.Routes() {
		if info.Method == http.MethodPost && (info.Path == "/order/checkout" || info.Path == "/api/order/checkout") {
			checkouts++
		}
	}
	assert.Equal(t, 2, checkouts)
}
