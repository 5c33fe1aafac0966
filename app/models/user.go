package models

import "time"

const (
	RoleCustomer  = "customer"
	RoleShopOwner = "shop_owner"
	RoleAdmin     = "admin"
)

// User is a customer or shop owner. Authentication happens elsewhere; the
// marketplace only needs identity and role.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Role      string    `gorm:"size:50;not null;default:customer" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Address is a delivery location owned by one user. At most one address per
// user is the default; search uses it as the reference point.
type Address struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Label     string    `gorm:"size:64" json:"label"`
	Line      string    `gorm:"size:512;not null" json:"line"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	IsDefault bool      `gorm:"not null;index" json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
