package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
)

// ErrDuplicateKey reports that another checkout already claimed the
// idempotency key.
var ErrDuplicateKey = errors.New("repositories: idempotency key already recorded")

// CheckoutKeyRepository stores the Idempotency-Key of each checkout.
type CheckoutKeyRepository struct {
	db *gorm.DB
}

func NewCheckoutKeyRepository(db *gorm.DB) *CheckoutKeyRepository {
	return &CheckoutKeyRepository{db: db}
}

func (r *CheckoutKeyRepository) WithTx(tx *gorm.DB) *CheckoutKeyRepository {
	return &CheckoutKeyRepository{db: tx}
}

func (r *CheckoutKeyRepository) Find(ctx context.Context, userID uint, key string) (models.CheckoutKey, error) {
	var k models.CheckoutKey
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&k).Error
	return k, notFound(err)
}

// Create claims the key. A concurrent claim of the same key fails with
// ErrDuplicateKey.
func (r *CheckoutKeyRepository) Create(ctx context.Context, k *models.CheckoutKey) error {
	err := r.db.WithContext(ctx).Create(k).Error
	if isDuplicate(err) {
		return ErrDuplicateKey
	}
	return err
}

// Delete removes a key, used to replace one that expired.
func (r *CheckoutKeyRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.CheckoutKey{}, id).Error
}

// DeleteOlderThan prunes keys created before cutoff.
func (r *CheckoutKeyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&models.CheckoutKey{})
	return res.RowsAffected, res.Error
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
