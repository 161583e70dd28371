package domain

import "time"

// Hotel carries only what the booking core consumes: an owner, a mutable
// commission rate, and the accumulated commission ledger total.
type Hotel struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"type:varchar(255);not null" json:"name"`
	OwnerID          int64     `gorm:"index;not null" json:"owner_id"`
	CommissionRate   float64   `gorm:"not null;default:0" json:"commission_rate"`
	CommissionEarned float64   `gorm:"not null;default:0" json:"commission_earned"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Hotel) TableName() string { return "hotels" }

type RoomType struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	HotelID       int64     `gorm:"index;not null" json:"hotel_id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	MaxOccupancy  int       `gorm:"not null" json:"max_occupancy"`
	TotalRooms    int       `gorm:"not null" json:"total_rooms"`
	PricePerNight float64   `gorm:"not null" json:"price_per_night"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (RoomType) TableName() string { return "room_types" }
