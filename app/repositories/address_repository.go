package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
)

// AddressRepository reads delivery addresses.
type AddressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) WithTx(tx *gorm.DB) *AddressRepository {
	return &AddressRepository{db: tx}
}

func (r *AddressRepository) FindByID(ctx context.Context, id uint) (models.Address, error) {
	var a models.Address
	err := r.db.WithContext(ctx).First(&a, id).Error
	return a, notFound(err)
}

// DefaultForUser returns the user's default address. If legacy data left
// more than one flagged, the most recently updated wins.
func (r *AddressRepository) DefaultForUser(ctx context.Context, userID uint) (models.Address, error) {
	var a models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		Order("updated_at DESC").Order("id DESC").
		First(&a).Error
	return a, notFound(err)
}

// Create inserts a, clearing the previous default first when a is the new
// default so a user never has two.
func (r *AddressRepository) Create(ctx context.Context, a *models.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default = ?", a.UserID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(a).Error
	})
}
