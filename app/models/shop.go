package models

import (
	"time"

	"github.com/shashiranjanraj/nearcart/pkg/geo"
)

// Shop is a physical store owned by a single user.
type Shop struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"ownerId"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Address         string    `gorm:"size:512" json:"address"`
	Latitude        float64   `gorm:"not null;index:idx_shops_location" json:"latitude"`
	Longitude       float64   `gorm:"not null;index:idx_shops_location" json:"longitude"`
	DeliveryMinutes int       `gorm:"not null;default:0" json:"deliveryMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (s Shop) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: s.Latitude, Lng: s.Longitude}
}

func (s Shop) Site() geo.Site {
	return geo.Site{ID: s.ID, Location: s.Coordinate(), BaseMinutes: s.DeliveryMinutes}
}

func (a Address) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: a.Latitude, Lng: a.Longitude}
}
