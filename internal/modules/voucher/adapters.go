package voucher

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
)

// The methods below are the surface the booking flow consumes. They keep
// the booking module decoupled from voucher DTOs.

// PreviewDiscount returns the discount the code would grant right now, or
// a sentinel error explaining why it would not.
func (s *Service) PreviewDiscount(ctx context.Context, code string, hotelID int64, amount float64) (float64, error) {
	v, err := s.GetByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if !v.IsUsableNow(s.now()) {
		return 0, ErrNotUsable
	}
	if !v.AppliesToHotel(hotelID) {
		return 0, ErrNotApplicable
	}
	if v.MinBookingValue != nil && amount < *v.MinBookingValue {
		return 0, ErrBelowMinAmount
	}
	return computeDiscount(v, amount), nil
}

// ApplyToBooking consumes the voucher for the booking and returns the
// discount frozen into the usage row.
func (s *Service) ApplyToBooking(ctx context.Context, code string, userID, bookingID, hotelID int64, amount float64) (float64, error) {
	usage, err := s.Apply(ctx, code, userID, bookingID, amount, hotelID)
	if err != nil {
		return 0, err
	}
	return usage.DiscountAmount, nil
}

// DiscountByBooking reports the discount a booking consumed, if any. The
// bool is false when the booking used no voucher.
func (s *Service) DiscountByBooking(ctx context.Context, bookingID int64) (float64, bool, error) {
	var usage domain.VoucherUsage
	if err := s.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&usage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return usage.DiscountAmount, true, nil
}
