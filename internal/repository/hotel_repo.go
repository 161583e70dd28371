package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
)

type HotelRepository struct {
	db *gorm.DB
}

func NewHotelRepository(db *gorm.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

func (r *HotelRepository) GetHotel(ctx context.Context, id int64) (*domain.Hotel, error) {
	var h domain.Hotel
	if err := r.db.WithContext(ctx).First(&h, id).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HotelRepository) GetRoomType(ctx context.Context, id int64) (*domain.RoomType, error) {
	var rt domain.RoomType
	if err := r.db.WithContext(ctx).First(&rt, id).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// AddCommission accumulates into the hotel's commission ledger total with a
// single atomic read-modify-write in the database.
func (r *HotelRepository) AddCommission(ctx context.Context, hotelID int64, delta float64) error {
	res := r.db.WithContext(ctx).Model(&domain.Hotel{}).
		Where("id = ?", hotelID).
		Update("commission_earned", gorm.Expr("commission_earned + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCommissionEarned overwrites the ledger total; used by the full rebuild.
func (r *HotelRepository) SetCommissionEarned(ctx context.Context, hotelID int64, total float64) error {
	res := r.db.WithContext(ctx).Model(&domain.Hotel{}).
		Where("id = ?", hotelID).
		Update("commission_earned", total)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
