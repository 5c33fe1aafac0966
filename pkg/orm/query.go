// Package orm holds query helpers shared by the repositories: pagination
// scopes and read-through caching on top of GORM.
package orm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/pkg/cache"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination clamps page and limit to sane values.
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

// Paginate is a GORM scope applying p's offset and limit.
//
//	db.Scopes(orm.Paginate(p)).Find(&orders)
func Paginate(p Pagination) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

// FindPage counts query's rows, then loads page p of them into dest.
// query must already carry its Model and filters. scopes apply to the page
// load only, which keeps Preload and Order out of the count.
//
//	orm.FindPage(db.Model(&models.Order{}).Where("user_id = ?", id), p, &orders,
//	    func(q *gorm.DB) *gorm.DB { return q.Preload("Items").Order("id DESC") })
func FindPage(query *gorm.DB, p Pagination, dest interface{}, scopes ...func(*gorm.DB) *gorm.DB) (Pagination, error) {
	query = query.Session(&gorm.Session{})
	if err := query.Count(&p.Total).Error; err != nil {
		return p, err
	}
	if p.Limit > 0 {
		p.TotalPages = int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	scopes = append(scopes, Paginate(p))
	if err := query.Scopes(scopes...).Find(dest).Error; err != nil {
		return p, err
	}
	return p, nil
}

// Remember returns the cached value under key, or runs load, caches its
// result for ttl and returns it. hit reports whether the cache answered.
func Remember[T any](ctx context.Context, key string, ttl time.Duration, load func() (T, error)) (val T, hit bool, err error) {
	if cache.Get(ctx, key, &val) {
		return val, true, nil
	}

	val, err = load()
	if err != nil {
		return val, false, err
	}

	_ = cache.Set(ctx, key, val, ttl)
	return val, false, nil
}
