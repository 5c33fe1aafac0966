package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/pkg/migration"
)

func init() {
	migration.Register("20260301000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260301000001_create_addresses_table", &CreateAddressesTable{})
	migration.Register("20260301000002_create_shops_table", &CreateShopsTable{})
	migration.Register("20260301000003_create_products_table", &CreateProductsTable{})
	migration.Register("20260301000004_create_inventory_entries_table", &CreateInventoryEntriesTable{})
}

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.User{})
}

type CreateAddressesTable struct{}

func (m *CreateAddressesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Address{})
}

func (m *CreateAddressesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Address{})
}

type CreateShopsTable struct{}

func (m *CreateShopsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Shop{})
}

func (m *CreateShopsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Shop{})
}

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Product{})
}

// CreateInventoryEntriesTable also installs the quantity >= 0 check, the
// last line of defence behind the conditional decrement.
type CreateInventoryEntriesTable struct{}

func (m *CreateInventoryEntriesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.InventoryEntry{})
}

func (m *CreateInventoryEntriesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.InventoryEntry{})
}
