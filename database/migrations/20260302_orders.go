package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/pkg/migration"
	"github.com/shashiranjanraj/nearcart/pkg/queue"
)

func init() {
	migration.Register("20260302000000_create_orders_table", &CreateOrdersTable{})
	migration.Register("20260302000001_create_order_items_table", &CreateOrderItemsTable{})
	migration.Register("20260302000002_create_checkout_keys_table", &CreateCheckoutKeysTable{})
	migration.Register("20260302000003_create_failed_jobs_table", &CreateFailedJobsTable{})
}

type CreateOrdersTable struct{}

func (m *CreateOrdersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{})
}

func (m *CreateOrdersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Order{})
}

type CreateOrderItemsTable struct{}

func (m *CreateOrderItemsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.OrderItem{})
}

func (m *CreateOrderItemsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.OrderItem{})
}

type CreateCheckoutKeysTable struct{}

func (m *CreateCheckoutKeysTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.CheckoutKey{})
}

func (m *CreateCheckoutKeysTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.CheckoutKey{})
}

type CreateFailedJobsTable struct{}

func (m *CreateFailedJobsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&queue.FailedJobRecord{})
}

func (m *CreateFailedJobsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&queue.FailedJobRecord{})
}
