package controllers

import (
	"github.com/shashiranjanraj/nearcart/app/services"
	"github.com/shashiranjanraj/nearcart/pkg/apperror"
	"github.com/shashiranjanraj/nearcart/pkg/bind"
	"github.com/shashiranjanraj/nearcart/pkg/ctx"
)

// SearchController serves product search and nearby shops, both relative to
// the caller's default address.
type SearchController struct {
	search *services.SearchService
}

func NewSearchController(search *services.SearchService) *SearchController {
	return &SearchController{search: search}
}

// Products handles GET /product/search?q=.
func (sc *SearchController) Products(c *ctx.Context) {
	res, err := sc.search.Search(c.Context(), c.UserID(), c.Query("q"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

// NearbyQuery is the query string of GET /shop/nearby.
type NearbyQuery struct {
	Radius float64 `query:"radius" validate:"nullable,gt=0,lte=100"`
}

// NearbyShops handles GET /shop/nearby?radius=. Without a radius the
// configured search radius applies; an explicit zero is rejected.
func (sc *SearchController) NearbyShops(c *ctx.Context) {
	var q NearbyQuery
	if errs := bind.Query(c.R, &q); len(errs) > 0 {
		c.Fail(apperror.Withf(apperror.ErrInvalidRadius, "%s", errs["radius"]))
		return
	}

	var radius *float64
	if c.HasQuery("radius") {
		radius = &q.Radius
	}
	res, err := sc.search.NearbyShops(c.Context(), c.UserID(), radius)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}
