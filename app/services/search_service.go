package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/app/repositories"
	"github.com/shashiranjanraj/nearcart/config"
	"github.com/shashiranjanraj/nearcart/pkg/apperror"
	"github.com/shashiranjanraj/nearcart/pkg/collection"
	"github.com/shashiranjanraj/nearcart/pkg/geo"
	"github.com/shashiranjanraj/nearcart/pkg/logger"
	"github.com/shashiranjanraj/nearcart/pkg/metrics"
	"github.com/shashiranjanraj/nearcart/pkg/orm"
)

// ShopSummary is the part of a shop shown next to search hits.
type ShopSummary struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// NearbyShop is a shop with its distance from the caller.
type NearbyShop struct {
	ShopSummary
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	DistanceKm      float64 `json:"distanceKm"`
	DeliveryMinutes int     `json:"deliveryMinutes"`
}

// SearchHit is the cheapest nearby offer for one product.
type SearchHit struct {
	ProductID       uint            `json:"productId"`
	Name            string          `json:"name"`
	Brand           string          `json:"brand"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Image           string          `json:"image"`
	NetQuantity     string          `json:"netQuantity"`
	Unit            string          `json:"unit"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	Shop            ShopSummary     `json:"shop"`
	DistanceKm      float64         `json:"distanceKm"`
	DeliveryMinutes int             `json:"deliveryMinutes"`
}

// SearchResult is the outcome of a product search. NoShopsNearby
// distinguishes "nothing within reach" from "nothing matched".
type SearchResult struct {
	Query         string      `json:"query"`
	RadiusKm      float64     `json:"radiusKm"`
	NoShopsNearby bool        `json:"noShopsNearby"`
	Message       string      `json:"message,omitempty"`
	Results       []SearchHit `json:"results"`
}

// SearchOptions tunes SearchService.
type SearchOptions struct {
	RadiusKm float64
	CacheTTL time.Duration // 0 disables caching
	Engine   geo.Engine
}

// DefaultSearchOptions reads the search settings from config.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		RadiusKm: config.SearchRadiusKm(),
		CacheTTL: config.SearchCacheTTL(),
		Engine: geo.Engine{
			DefaultBaseMinutes: config.DeliveryBaseMinutes(),
			SpeedKmph:          config.DeliverySpeedKmph(),
		},
	}
}

// SearchService finds shops and products near the caller's default address.
type SearchService struct {
	addresses *repositories.AddressRepository
	shops     *repositories.ShopRepository
	inventory *repositories.InventoryRepository
	opts      SearchOptions
}

func NewSearchService(db *gorm.DB, opts SearchOptions) *SearchService {
	if opts.RadiusKm <= 0 {
		opts.RadiusKm = 10
	}
	return &SearchService{
		addresses: repositories.NewAddressRepository(db),
		shops:     repositories.NewShopRepository(db),
		inventory: repositories.NewInventoryRepository(db),
		opts:      opts,
	}
}

// RadiusKm is the default search radius.
func (s *SearchService) RadiusKm() float64 { return s.opts.RadiusKm }

// ReferencePoint is the location of the user's default address.
func (s *SearchService) ReferencePoint(ctx context.Context, userID uint) (geo.Coordinate, error) {
	addr, err := s.addresses.DefaultForUser(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return geo.Coordinate{}, apperror.ErrNoDefaultAddress
	}
	if err != nil {
		return geo.Coordinate{}, apperror.Internal(err)
	}
	return addr.Coordinate(), nil
}

// MaxRadiusKm bounds a caller-chosen nearby radius.
const MaxRadiusKm = 100

// NearbyResult is the applied radius and the shops inside it.
type NearbyResult struct {
	RadiusKm float64      `json:"radiusKm"`
	Shops    []NearbyShop `json:"shops"`
}

// NearbyShops lists the shops within radiusKm of the user's default address,
// nearest first. A nil radius means the default; an explicit one must lie in
// (0, MaxRadiusKm].
func (s *SearchService) NearbyShops(ctx context.Context, userID uint, radiusKm *float64) (NearbyResult, error) {
	radius := s.opts.RadiusKm
	if radiusKm != nil {
		radius = *radiusKm
		if math.IsNaN(radius) || radius <= 0 || radius > MaxRadiusKm {
			return NearbyResult{}, apperror.ErrInvalidRadius
		}
	}
	origin, err := s.ReferencePoint(ctx, userID)
	if err != nil {
		return NearbyResult{}, err
	}
	shops, err := s.nearby(ctx, origin, radius)
	if err != nil {
		return NearbyResult{}, err
	}
	return NearbyResult{RadiusKm: radius, Shops: shops}, nil
}

func (s *SearchService) nearby(ctx context.Context, origin geo.Coordinate, radiusKm float64) ([]NearbyShop, error) {
	candidates, err := s.shops.WithinRadius(ctx, origin, radiusKm)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	byID := collection.KeyBy(candidates, func(sh models.Shop) uint { return sh.ID })
	sites := collection.Map(candidates, models.Shop.Site)

	return collection.Map(s.opts.Engine.NearbyShops(origin, sites, radiusKm), func(d geo.ShopDistance) NearbyShop {
		sh := byID[d.ShopID]
		return NearbyShop{
			ShopSummary:     ShopSummary{ID: sh.ID, Name: sh.Name, Address: sh.Address},
			Latitude:        sh.Latitude,
			Longitude:       sh.Longitude,
			DistanceKm:      d.DistanceKm,
			DeliveryMinutes: d.DeliveryMinutes,
		}
	}), nil
}

// Search returns, for every product matching query that is sold nearby,
// the cheapest offer. Equal prices go to the nearer shop, then to the lower
// shop id. An empty query returns no results rather than the whole
// catalogue.
func (s *SearchService) Search(ctx context.Context, userID uint, query string) (SearchResult, error) {
	origin, err := s.ReferencePoint(ctx, userID)
	if err != nil {
		return SearchResult{}, err
	}

	term := strings.TrimSpace(query)
	if term == "" {
		metrics.SearchTotal.WithLabelValues("empty_query").Inc()
		return SearchResult{RadiusKm: s.opts.RadiusKm, Results: []SearchHit{}}, nil
	}

	res, hit, err := s.search(ctx, origin, term)
	if err != nil {
		return SearchResult{}, err
	}

	switch {
	case res.NoShopsNearby:
		metrics.SearchTotal.WithLabelValues("no_shops").Inc()
	case len(res.Results) == 0:
		metrics.SearchTotal.WithLabelValues("no_matches").Inc()
	default:
		metrics.SearchTotal.WithLabelValues("results").Inc()
	}
	logger.WithCtx(ctx).Debug("search", "query", term, "results", len(res.Results), "cached", hit)
	return res, nil
}

// search filters and measures from the caller's exact origin. Only the
// matched inventory rows of a shop set are cached.
func (s *SearchService) search(ctx context.Context, origin geo.Coordinate, term string) (SearchResult, bool, error) {
	res := SearchResult{Query: term, RadiusKm: s.opts.RadiusKm, Results: []SearchHit{}}

	nearby, err := s.nearby(ctx, origin, s.opts.RadiusKm)
	if err != nil {
		return res, false, err
	}
	if len(nearby) == 0 {
		res.NoShopsNearby = true
		res.Message = fmt.Sprintf("No shops found within %g km of your default address", s.opts.RadiusKm)
		return res, false, nil
	}

	shopByID := collection.KeyBy(nearby, func(n NearbyShop) uint { return n.ID })
	rows, hit, err := s.matches(ctx, collection.Map(nearby, func(n NearbyShop) uint { return n.ID }), term)
	if err != nil {
		return res, false, apperror.Internal(err)
	}

	for _, g := range collection.GroupBy(rows, func(r repositories.SearchRow) uint { return r.ProductID }) {
		best, _ := collection.MinBy(g.Items, func(a, b repositories.SearchRow) bool {
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
			distA, distB := shopByID[a.ShopID].DistanceKm, shopByID[b.ShopID].DistanceKm
			if distA != distB {
				return distA < distB
			}
			return a.ShopID < b.ShopID
		})
		res.Results = append(res.Results, hitFrom(best, shopByID[best.ShopID]))
	}

	res.Results = collection.SortBy(res.Results, func(a, b SearchHit) bool {
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.ProductID < b.ProductID
	})
	if len(res.Results) == 0 {
		res.Message = fmt.Sprintf("No products matched %q", term)
	}
	return res, hit, nil
}

func (s *SearchService) matches(ctx context.Context, shopIDs []uint, term string) ([]repositories.SearchRow, bool, error) {
	load := func() ([]repositories.SearchRow, error) { return s.inventory.Search(ctx, shopIDs, term) }
	if s.opts.CacheTTL <= 0 {
		rows, err := load()
		return rows, false, err
	}
	return orm.Remember(ctx, cacheKey(shopIDs, term), s.opts.CacheTTL, load)
}

func hitFrom(r repositories.SearchRow, shop NearbyShop) SearchHit {
	netQty, unit := r.ProductNetQuantity, r.ProductUnit
	if r.NetQuantity != "" {
		netQty, unit = r.NetQuantity, r.Unit
	}
	return SearchHit{
		ProductID:       r.ProductID,
		Name:            r.Name,
		Brand:           r.Brand,
		Category:        r.Category,
		Description:     r.Description,
		Image:           r.Image,
		NetQuantity:     netQty,
		Unit:            unit,
		Price:           r.Price,
		Quantity:        r.Quantity,
		Shop:            shop.ShopSummary,
		DistanceKm:      shop.DistanceKm,
		DeliveryMinutes: shop.DeliveryMinutes,
	}
}

// cacheKey identifies a term over an unordered set of shops.
func cacheKey(shopIDs []uint, term string) string {
	ids := collection.SortBy(append([]uint(nil), shopIDs...), func(a, b uint) bool { return a < b })
	h := sha256.New()
	for _, id := range ids {
		fmt.Fprintf(h, "%d,", id)
	}
	return fmt.Sprintf("search:%x:%s", h.Sum(nil)[:8], strings.ToLower(term))
}
