package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

type VoucherStatus string

const (
	VoucherActive   VoucherStatus = "ACTIVE"
	VoucherInactive VoucherStatus = "INACTIVE"
	VoucherExpired  VoucherStatus = "EXPIRED"
	VoucherUsedUp   VoucherStatus = "USED_UP"
)

type VoucherScope string

const (
	ScopeAllHotels      VoucherScope = "ALL_HOTELS"
	ScopeSpecificHotels VoucherScope = "SPECIFIC_HOTELS"
)

type Voucher struct {
	ID              int64          `gorm:"primaryKey" json:"id"`
	Code            string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	DiscountType    DiscountType   `gorm:"type:varchar(16);not null" json:"discount_type"`
	DiscountValue   float64        `gorm:"not null" json:"discount_value"`
	MaxDiscount     *float64       `json:"max_discount,omitempty"`
	MinBookingValue *float64       `json:"min_booking_value,omitempty"`
	StartDate       time.Time      `gorm:"not null" json:"start_date"`
	EndDate         time.Time      `gorm:"not null" json:"end_date"`
	UsageLimit      *int           `json:"usage_limit,omitempty"`
	UsageCount      int            `gorm:"not null;default:0" json:"usage_count"`
	Scope           VoucherScope   `gorm:"type:varchar(20);default:'ALL_HOTELS'" json:"scope"`
	HotelIDs        datatypes.JSON `json:"hotel_ids,omitempty"`
	Status          VoucherStatus  `gorm:"type:varchar(16);default:'ACTIVE';index" json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (Voucher) TableName() string { return "vouchers" }

// IsUsableNow reports whether the voucher can still be redeemed: ACTIVE,
// inside its validity window, and under its usage limit.
func (v *Voucher) IsUsableNow(now time.Time) bool {
	if v.Status != VoucherActive {
		return false
	}
	if now.Before(v.StartDate) || now.After(v.EndDate) {
		return false
	}
	if v.UsageLimit != nil && v.UsageCount >= *v.UsageLimit {
		return false
	}
	return true
}

// AppliesToHotel checks the voucher's scope against a hotel.
func (v *Voucher) AppliesToHotel(hotelID int64) bool {
	if v.Scope == ScopeAllHotels {
		return true
	}
	var ids []int64
	if err := json.Unmarshal(v.HotelIDs, &ids); err != nil {
		return false
	}
	for _, id := range ids {
		if id == hotelID {
			return true
		}
	}
	return false
}

// VoucherUsage freezes the discount actually granted for one booking;
// later voucher edits do not touch it.
type VoucherUsage struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	VoucherID      int64     `gorm:"not null;index;uniqueIndex:idx_voucher_user" json:"voucher_id"`
	UserID         int64     `gorm:"not null;uniqueIndex:idx_voucher_user" json:"user_id"`
	BookingID      int64     `gorm:"not null;uniqueIndex" json:"booking_id"`
	DiscountAmount float64   `gorm:"not null" json:"discount_amount"`
	CreatedAt      time.Time `json:"created_at"`
}

func (VoucherUsage) TableName() string { return "voucher_usages" }
