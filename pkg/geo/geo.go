// Package geo measures great-circle distances between shops and delivery
// addresses and estimates delivery times from them.
package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid reports whether c lies within the usual degree ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180 &&
		!math.IsNaN(c.Lat) && !math.IsNaN(c.Lng)
}

// DistanceKm returns the haversine distance between a and b in kilometres.
func DistanceKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Site is anything with a location that can be ranked by distance.
type Site struct {
	ID          uint
	Location    Coordinate
	BaseMinutes int // the site's own delivery estimate; 0 means use the default
}

// ShopDistance is a site annotated with its distance from the origin.
type ShopDistance struct {
	ShopID          uint    `json:"shopId"`
	DistanceKm      float64 `json:"distanceKm"`
	DeliveryMinutes int     `json:"deliveryMinutes"`
}

// Engine holds the delivery-time parameters.
type Engine struct {
	DefaultBaseMinutes int
	SpeedKmph          float64
}

// DefaultEngine assumes 15 minutes of preparation and 20 km/h in traffic.
var DefaultEngine = Engine{DefaultBaseMinutes: 15, SpeedKmph: 20}

// EstimateDeliveryMinutes returns base + travel time, rounding travel up
// to the next minute. The result never decreases as distance grows.
func (e Engine) EstimateDeliveryMinutes(distanceKm float64, baseMinutes int) int {
	if baseMinutes <= 0 {
		baseMinutes = e.DefaultBaseMinutes
	}
	speed := e.SpeedKmph
	if speed <= 0 {
		speed = DefaultEngine.SpeedKmph
	}
	if distanceKm <= 0 {
		return baseMinutes
	}
	return baseMinutes + int(math.Ceil(distanceKm/speed*60))
}

// NearbyShops keeps the sites within radiusKm of origin (boundary
// included), nearest first. Equal distances are ordered by site id.
func (e Engine) NearbyShops(origin Coordinate, sites []Site, radiusKm float64) []ShopDistance {
	out := make([]ShopDistance, 0, len(sites))
	for _, s := range sites {
		d := DistanceKm(origin, s.Location)
		if d > radiusKm {
			continue
		}
		out = append(out, ShopDistance{
			ShopID:          s.ID,
			DistanceKm:      d,
			DeliveryMinutes: e.EstimateDeliveryMinutes(d, s.BaseMinutes),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].ShopID < out[j].ShopID
	})
	return out
}

// NearbyShops ranks sites with DefaultEngine.
func NearbyShops(origin Coordinate, sites []Site, radiusKm float64) []ShopDistance {
	return DefaultEngine.NearbyShops(origin, sites, radiusKm)
}

// BoundingBox returns the lat/lng window that contains every point within
// radiusKm of c. Repositories use it to narrow the shop scan before the
// exact distance check. A circle that reaches a pole spans every meridian,
// so the window is then 360 degrees wide.
func BoundingBox(c Coordinate, radiusKm float64) (min, max Coordinate) {
	delta := radiusKm / EarthRadiusKm
	dLat := delta * 180 / math.Pi
	min = Coordinate{Lat: c.Lat - dLat, Lng: c.Lng - 180}
	max = Coordinate{Lat: c.Lat + dLat, Lng: c.Lng + 180}
	if min.Lat <= -90 || max.Lat >= 90 {
		min.Lat, max.Lat = math.Max(-90, min.Lat), math.Min(90, max.Lat)
		return min, max
	}

	if ratio := math.Sin(delta) / math.Cos(c.Lat*math.Pi/180); ratio < 1 {
		dLng := math.Asin(ratio) * 180 / math.Pi
		min.Lng, max.Lng = c.Lng-dLng, c.Lng+dLng
	}
	return min, max
}
