// Package repositories is nearcart's data access layer. Every repository
// wraps a *gorm.DB and can be rebound to a transaction with WithTx so the
// services can compose several of them atomically.
package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup by identity matches no row.
var ErrNotFound = errors.New("repositories: record not found")

// notFound translates GORM's sentinel into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
