// Package graphql exposes nearcart's read operations as a GraphQL schema:
//
//	{ nearbyShops(radius: 5) { name distanceKm deliveryMinutes } }
//	{ searchProducts(q: "milk") { noShopsNearby results { name price shop { name } } } }
//	{ myOrders(limit: 10) { id orderStatus totalAmount items { productName quantity } } }
package graphql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/app/services"
	"github.com/shashiranjanraj/nearcart/pkg/apperror"
	"github.com/shashiranjanraj/nearcart/pkg/auth"
	gql "github.com/shashiranjanraj/nearcart/pkg/graphql"
	"github.com/shashiranjanraj/nearcart/pkg/logger"
	"github.com/shashiranjanraj/nearcart/pkg/orm"
)

var errUnauthenticated = errors.New("UNAUTHENTICATED: a bearer token is required")

var shopType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Shop",
	Fields: graphql.Fields{
		"id":              &graphql.Field{Type: graphql.Int},
		"name":            &graphql.Field{Type: graphql.String},
		"address":         &graphql.Field{Type: graphql.String},
		"latitude":        &graphql.Field{Type: graphql.Float},
		"longitude":       &graphql.Field{Type: graphql.Float},
		"distanceKm":      &graphql.Field{Type: graphql.Float},
		"deliveryMinutes": &graphql.Field{Type: graphql.Int},
	},
})

var hitType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ProductHit",
	Fields: graphql.Fields{
		"productId":       &graphql.Field{Type: graphql.Int},
		"name":            &graphql.Field{Type: graphql.String},
		"brand":           &graphql.Field{Type: graphql.String},
		"category":        &graphql.Field{Type: graphql.String},
		"description":     &graphql.Field{Type: graphql.String},
		"image":           &graphql.Field{Type: graphql.String},
		"netQuantity":     &graphql.Field{Type: graphql.String},
		"unit":            &graphql.Field{Type: graphql.String},
		"price":           &graphql.Field{Type: graphql.String, Description: "Decimal amount, e.g. \"28.00\""},
		"quantity":        &graphql.Field{Type: graphql.Int},
		"distanceKm":      &graphql.Field{Type: graphql.Float},
		"deliveryMinutes": &graphql.Field{Type: graphql.Int},
		"shop":            &graphql.Field{Type: shopType},
	},
})

var searchResultType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SearchResult",
	Fields: graphql.Fields{
		"query":         &graphql.Field{Type: graphql.String},
		"radiusKm":      &graphql.Field{Type: graphql.Float},
		"noShopsNearby": &graphql.Field{Type: graphql.Boolean},
		"message":       &graphql.Field{Type: graphql.String},
		"results":       &graphql.Field{Type: graphql.NewList(hitType)},
	},
})

var orderItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderItem",
	Fields: graphql.Fields{
		"id":           &graphql.Field{Type: graphql.Int},
		"productId":    &graphql.Field{Type: graphql.Int},
		"productName":  &graphql.Field{Type: graphql.String},
		"quantity":     &graphql.Field{Type: graphql.Int},
		"pricePerUnit": &graphql.Field{Type: graphql.String},
		"lineTotal":    &graphql.Field{Type: graphql.String},
	},
})

var orderType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Order",
	Fields: graphql.Fields{
		"id":            &graphql.Field{Type: graphql.Int},
		"shopId":        &graphql.Field{Type: graphql.Int},
		"shopName":      &graphql.Field{Type: graphql.String},
		"checkoutRef":   &graphql.Field{Type: graphql.String},
		"totalAmount":   &graphql.Field{Type: graphql.String},
		"orderStatus":   &graphql.Field{Type: graphql.String},
		"paymentStatus": &graphql.Field{Type: graphql.String},
		"createdAt":     &graphql.Field{Type: graphql.String},
		"items":         &graphql.Field{Type: graphql.NewList(orderItemType)},
	},
})

// Resolver answers the root query fields from the services.
type Resolver struct {
	search *services.SearchService
	orders *services.OrderService
}

func NewResolver(search *services.SearchService, orders *services.OrderService) *Resolver {
	return &Resolver{search: search, orders: orders}
}

// Schema builds the executable schema.
func (r *Resolver) Schema() (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"nearbyShops": &graphql.Field{
				Type: graphql.NewList(shopType),
				Args: graphql.FieldConfigArgument{
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, Description: "Kilometres, at most 100; defaults to the search radius"},
				},
				Resolve: r.nearbyShops,
			},
			"searchProducts": &graphql.Field{
				Type: searchResultType,
				Args: graphql.FieldConfigArgument{
					"q": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.searchProducts,
			},
			"myOrders": &graphql.Field{
				Type: graphql.NewList(orderType),
				Args: graphql.FieldConfigArgument{
					"page":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: orm.DefaultPageSize},
				},
				Resolve: r.myOrders,
			},
		},
	})
	return gql.NewSchema(query)
}

func (r *Resolver) nearbyShops(p graphql.ResolveParams) (any, error) {
	userID, err := caller(p.Context)
	if err != nil {
		return nil, err
	}
	var radius *float64
	if v, ok := p.Args["radius"].(float64); ok {
		radius = &v
	}
	res, err := r.search.NearbyShops(p.Context, userID, radius)
	if err != nil {
		return nil, resolveErr(p.Context, err)
	}
	out := make([]map[string]any, 0, len(res.Shops))
	for _, s := range res.Shops {
		out = append(out, shopMap(s))
	}
	return out, nil
}

func (r *Resolver) searchProducts(p graphql.ResolveParams) (any, error) {
	userID, err := caller(p.Context)
	if err != nil {
		return nil, err
	}
	q, _ := p.Args["q"].(string)
	res, err := r.search.Search(p.Context, userID, q)
	if err != nil {
		return nil, resolveErr(p.Context, err)
	}

	hits := make([]map[string]any, 0, len(res.Results))
	for _, h := range res.Results {
		hits = append(hits, map[string]any{
			"productId":       h.ProductID,
			"name":            h.Name,
			"brand":           h.Brand,
			"category":        h.Category,
			"description":     h.Description,
			"image":           h.Image,
			"netQuantity":     h.NetQuantity,
			"unit":            h.Unit,
			"price":           h.Price.StringFixed(2),
			"quantity":        h.Quantity,
			"distanceKm":      h.DistanceKm,
			"deliveryMinutes": h.DeliveryMinutes,
			"shop": map[string]any{
				"id":      h.Shop.ID,
				"name":    h.Shop.Name,
				"address": h.Shop.Address,
			},
		})
	}
	return map[string]any{
		"query":         res.Query,
		"radiusKm":      res.RadiusKm,
		"noShopsNearby": res.NoShopsNearby,
		"message":       res.Message,
		"results":       hits,
	}, nil
}

func (r *Resolver) myOrders(p graphql.ResolveParams) (any, error) {
	userID, err := caller(p.Context)
	if err != nil {
		return nil, err
	}
	page, _ := p.Args["page"].(int)
	limit, _ := p.Args["limit"].(int)
	orders, _, err := r.orders.ListForUser(p.Context, userID, orm.NewPagination(page, limit))
	if err != nil {
		return nil, resolveErr(p.Context, err)
	}
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderMap(o))
	}
	return out, nil
}

func shopMap(s services.NearbyShop) map[string]any {
	return map[string]any{
		"id":              s.ID,
		"name":            s.Name,
		"address":         s.Address,
		"latitude":        s.Latitude,
		"longitude":       s.Longitude,
		"distanceKm":      s.DistanceKm,
		"deliveryMinutes": s.DeliveryMinutes,
	}
}

func orderMap(o models.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		name := ""
		if it.Product != nil {
			name = it.Product.Name
		}
		items = append(items, map[string]any{
			"id":           it.ID,
			"productId":    it.ProductID,
			"productName":  name,
			"quantity":     it.Quantity,
			"pricePerUnit": it.PricePerUnit.StringFixed(2),
			"lineTotal":    it.LineTotal().StringFixed(2),
		})
	}
	shopName := ""
	if o.Shop != nil {
		shopName = o.Shop.Name
	}
	return map[string]any{
		"id":            o.ID,
		"shopId":        o.ShopID,
		"shopName":      shopName,
		"checkoutRef":   o.CheckoutRef,
		"totalAmount":   o.TotalAmount.StringFixed(2),
		"orderStatus":   string(o.OrderStatus),
		"paymentStatus": string(o.PaymentStatus),
		"createdAt":     o.CreatedAt.UTC().Format(time.RFC3339),
		"items":         items,
	}
}

func caller(ctx context.Context) (uint, error) {
	id, ok := auth.FromContext(ctx)
	if !ok || id.UserID == 0 {
		return 0, errUnauthenticated
	}
	return id.UserID, nil
}

// resolveErr keeps the stable code in the GraphQL error message and hides
// internal causes.
func resolveErr(ctx context.Context, err error) error {
	ae := apperror.From(err)
	if ae.Kind == apperror.KindInternal {
		logger.WithCtx(ctx).Error("graphql: resolver failed", "error", err)
		ae = apperror.ErrInternal
	}
	return fmt.Errorf("%s: %s", ae.Code, ae.Message)
}
