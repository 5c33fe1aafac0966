package seeders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/nearcart/app/models"
	"github.com/shashiranjanraj/nearcart/pkg/auth"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password"

func init() {
	Register("users", seedUsers)
	Register("addresses", seedAddresses)
	Register("shops", seedShops)
	Register("products", seedProducts)
	Register("inventory", seedInventory)
}

// The demo world: Asha lives in Indiranagar, Bengaluru. Fresh Mart is under a
// kilometre from her and Daily Needs about 2 km; both stock milk at the same
// price, and a cart with bread from one and eggs from the other checks out
// as two orders.
var demoUsers = []models.User{
	{ID: 1, Name: "Asha Rao", Email: "asha@example.com", Role: models.RoleCustomer},
	{ID: 2, Name: "Ravi Kumar", Email: "ravi@example.com", Role: models.RoleShopOwner},
	{ID: 3, Name: "Meera Iyer", Email: "meera@example.com", Role: models.RoleShopOwner},
}

func seedUsers(ctx context.Context, db *gorm.DB) error {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}
	for _, u := range demoUsers {
		u.Password = hash
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&u).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedAddresses(ctx context.Context, db *gorm.DB) error {
	addrs := []models.Address{
		{ID: 1, UserID: 1, Label: "home", Line: "12th Main, Indiranagar", Latitude: 12.9719, Longitude: 77.6412, IsDefault: true},
		{ID: 2, UserID: 1, Label: "work", Line: "MG Road", Latitude: 12.9756, Longitude: 77.6050},
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&addrs).Error
}

func seedShops(ctx context.Context, db *gorm.DB) error {
	shops := []models.Shop{
		{ID: 1, UserID: 2, Name: "Fresh Mart", Address: "100 Feet Road", Latitude: 12.9784, Longitude: 77.6408, DeliveryMinutes: 10},
		{ID: 2, UserID: 3, Name: "Daily Needs", Address: "CMH Road", Latitude: 12.9620, Longitude: 77.6250, DeliveryMinutes: 20},
	}
	return db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&shops).Error
}

func seedProducts(ctx context.Context, db *gorm.DB) error {
	products := []models.Product{
		{ID: 1, Category: "dairy", Name: "Toned Milk", Brand: "Nandini", Description: "Pasteurised toned milk", NetQuantity: "500", Unit: "ml"},
		{ID: 2, Category: "bakery", Name: "Whole Wheat Bread", Brand: "Modern", Description: "Sliced brown bread", NetQuantity: "400", Unit: "g"},
		{ID: 3, Category: "eggs", Name: "Farm Eggs", Brand: "Eggoz", Description: "Pack of six brown eggs", NetQuantity: "6", Unit: "pcs"},
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func seedInventory(ctx context.Context, db *gorm.DB) error {
	price := decimal.RequireFromString
	entries := []models.InventoryEntry{
		{ShopID: 1, ProductID: 1, Price: price("28.00"), Quantity: 40, IsAvailable: true},
		{ShopID: 1, ProductID: 2, Price: price("45.00"), Quantity: 15, IsAvailable: true},
		{ShopID: 2, ProductID: 1, Price: price("28.00"), Quantity: 25, IsAvailable: true},
		{ShopID: 2, ProductID: 3, Price: price("72.00"), Quantity: 10, IsAvailable: true},
	}
	return db.WithContext(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).Create(&entries).Error
}
