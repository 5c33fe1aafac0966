package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/pkg/geo"
)

// ShopRepository reads shops.
type ShopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

func (r *ShopRepository) WithTx(tx *gorm.DB) *ShopRepository {
	return &ShopRepository{db: tx}
}

func (r *ShopRepository) FindByID(ctx context.Context, id uint) (models.Shop, error) {
	var s models.Shop
	err := r.db.WithContext(ctx).First(&s, id).Error
	return s, notFound(err)
}

// FindByIDs returns the shops keyed by id. Missing ids are simply absent.
func (r *ShopRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Shop, error) {
	out := make(map[uint]models.Shop, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var shops []models.Shop
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&shops).Error; err != nil {
		return nil, err
	}
	for _, s := range shops {
		out[s.ID] = s
	}
	return out, nil
}

// WithinRadius returns the candidate shops inside the bounding box of the
// circle around origin. The box is a superset; callers apply the exact
// distance filter.
func (r *ShopRepository) WithinRadius(ctx context.Context, origin geo.Coordinate, radiusKm float64) ([]models.Shop, error) {
	lo, hi := geo.BoundingBox(origin, radiusKm)

	q := r.db.WithContext(ctx).Where("latitude BETWEEN ? AND ?", lo.Lat, hi.Lat)
	switch {
	case hi.Lng-lo.Lng >= 360:
		// the box spans every meridian
	case lo.Lng < -180:
		q = q.Where("longitude >= ? OR longitude <= ?", lo.Lng+360, hi.Lng)
	case hi.Lng > 180:
		q = q.Where("longitude >= ? OR longitude <= ?", lo.Lng, hi.Lng-360)
	default:
		q = q.Where("longitude BETWEEN ? AND ?", lo.Lng, hi.Lng)
	}

	var shops []models.Shop
	err := q.Order("id").Find(&shops).Error
	return shops, err
}

// OwnedBy lists the shops belonging to userID.
func (r *ShopRepository) OwnedBy(ctx context.Context, userID uint) ([]models.Shop, error) {
	var shops []models.Shop
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&shops).Error
	return shops, err
}
