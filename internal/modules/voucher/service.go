package voucher

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
	"github.com/vuchungbt/hotel-booking-sub000/internal/repository"
)

// Service owns voucher validation, at-most-once-per-user consumption and
// the status sweep. Multi-row updates run inside one transaction with the
// voucher row locked, so usage counting never races.
type Service struct {
	db      *gorm.DB
	loggerf func(format string, args ...interface{})
	now     func() time.Time
}

func NewService(db *gorm.DB, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{db: db, loggerf: loggerf, now: time.Now}
}

// Validate checks a voucher against a prospective booking without touching
// anything. Checks short-circuit in order: existence, usable-now, scope,
// minimum amount.
func (s *Service) Validate(ctx context.Context, code string, hotelID int64, bookingAmount float64) (*ValidationResult, error) {
	v, err := s.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &ValidationResult{Valid: false, Message: "voucher not found", FinalAmount: bookingAmount}, nil
		}
		return nil, err
	}
	if !v.IsUsableNow(s.now()) {
		return &ValidationResult{Valid: false, Message: "voucher is not usable", FinalAmount: bookingAmount}, nil
	}
	if !v.AppliesToHotel(hotelID) {
		return &ValidationResult{Valid: false, Message: "voucher does not apply to this hotel", FinalAmount: bookingAmount}, nil
	}
	if v.MinBookingValue != nil && bookingAmount < *v.MinBookingValue {
		return &ValidationResult{Valid: false, Message: "booking amount below voucher minimum", FinalAmount: bookingAmount}, nil
	}

	discount := computeDiscount(v, bookingAmount)
	return &ValidationResult{
		Valid:          true,
		DiscountAmount: discount,
		FinalAmount:    round2(bookingAmount - discount),
	}, nil
}

// Apply consumes the voucher for one booking, at most once per
// (voucher, user). The voucher row stays locked from the usable-now
// re-check through the counter increment.
func (s *Service) Apply(ctx context.Context, code string, userID, bookingID int64, originalAmount float64, hotelID int64) (*domain.VoucherUsage, error) {
	var usage domain.VoucherUsage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v domain.Voucher
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).First(&v).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !v.IsUsableNow(s.now()) {
			return ErrNotUsable
		}
		if !v.AppliesToHotel(hotelID) {
			return ErrNotApplicable
		}
		if v.MinBookingValue != nil && originalAmount < *v.MinBookingValue {
			return ErrBelowMinAmount
		}

		var prior int64
		if err := tx.Model(&domain.VoucherUsage{}).Where("voucher_id = ? AND user_id = ?", v.ID, userID).Count(&prior).Error; err != nil {
			return err
		}
		if prior > 0 {
			return ErrAlreadyUsed
		}

		usage = domain.VoucherUsage{
			VoucherID:      v.ID,
			UserID:         userID,
			BookingID:      bookingID,
			DiscountAmount: computeDiscount(&v, originalAmount),
		}
		if err := tx.Create(&usage).Error; err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrAlreadyUsed
			}
			return err
		}

		updates := map[string]interface{}{"usage_count": v.UsageCount + 1}
		if v.UsageLimit != nil && v.UsageCount+1 >= *v.UsageLimit {
			updates["status"] = domain.VoucherUsedUp
		}
		return tx.Model(&domain.Voucher{}).Where("id = ?", v.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// RemoveUsageByBooking is the soft reversal used by cancellation and
// update flows: it decrements the usage counter and revives a voucher that
// the counter alone had exhausted. Missing usage is not an error.
func (s *Service) RemoveUsageByBooking(ctx context.Context, bookingID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var usage domain.VoucherUsage
		if err := tx.Where("booking_id = ?", bookingID).First(&usage).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var v domain.Voucher
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, usage.VoucherID).Error; err != nil {
			return err
		}

		if err := tx.Delete(&domain.VoucherUsage{}, usage.ID).Error; err != nil {
			return err
		}

		count := v.UsageCount - 1
		if count < 0 {
			count = 0
		}
		updates := map[string]interface{}{"usage_count": count}
		if v.Status == domain.VoucherUsedUp && (v.UsageLimit == nil || count < *v.UsageLimit) {
			updates["status"] = domain.VoucherActive
		}
		return tx.Model(&domain.Voucher{}).Where("id = ?", v.ID).Updates(updates).Error
	})
}

// DeleteUsageByBookingID purges the usage record without touching the
// voucher's counter or status. Reserved for hard administrative deletes;
// cancellation flows use RemoveUsageByBooking instead.
func (s *Service) DeleteUsageByBookingID(ctx context.Context, bookingID int64) error {
	res := s.db.WithContext(ctx).Where("booking_id = ?", bookingID).Delete(&domain.VoucherUsage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUsageNotFound
	}
	return nil
}

// UpdateVoucherStatuses is the periodic sweep and the only writer of the
// EXPIRED and USED_UP statuses outside Apply.
func (s *Service) UpdateVoucherStatuses(ctx context.Context) (expired int64, usedUp int64, err error) {
	now := s.now()

	res := s.db.WithContext(ctx).Model(&domain.Voucher{}).
		Where("status = ? AND end_date < ?", domain.VoucherActive, now).
		Update("status", domain.VoucherExpired)
	if res.Error != nil {
		return 0, 0, res.Error
	}
	expired = res.RowsAffected

	res = s.db.WithContext(ctx).Model(&domain.Voucher{}).
		Where("status = ? AND usage_limit IS NOT NULL AND usage_count >= usage_limit", domain.VoucherActive).
		Update("status", domain.VoucherUsedUp)
	if res.Error != nil {
		return expired, 0, res.Error
	}
	return expired, res.RowsAffected, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	var v domain.Voucher
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Voucher, error) {
	var out []domain.Voucher
	q := s.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, req CreateVoucherRequest) (*domain.Voucher, error) {
	dt := domain.DiscountType(req.DiscountType)
	if dt != domain.DiscountPercentage && dt != domain.DiscountFixed {
		return nil, ErrValidation
	}
	if req.DiscountValue <= 0 {
		return nil, ErrValidation
	}
	// percentage vouchers must cap their discount
	if dt == domain.DiscountPercentage && (req.MaxDiscount == nil || req.DiscountValue > 100) {
		return nil, ErrValidation
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrValidation
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, ErrValidation
	}
	if end.Before(start) {
		return nil, ErrValidation
	}

	scope := domain.VoucherScope(req.Scope)
	if scope == "" {
		scope = domain.ScopeAllHotels
	}
	var hotelIDs datatypes.JSON
	if scope == domain.ScopeSpecificHotels {
		if len(req.HotelIDs) == 0 {
			return nil, ErrValidation
		}
		raw, err := json.Marshal(req.HotelIDs)
		if err != nil {
			return nil, err
		}
		hotelIDs = datatypes.JSON(raw)
	}

	v := &domain.Voucher{
		Code:            req.Code,
		DiscountType:    dt,
		DiscountValue:   req.DiscountValue,
		MaxDiscount:     req.MaxDiscount,
		MinBookingValue: req.MinBookingValue,
		StartDate:       start,
		EndDate:         end.Add(24*time.Hour - time.Second),
		UsageLimit:      req.UsageLimit,
		Scope:           scope,
		HotelIDs:        hotelIDs,
		Status:          domain.VoucherActive,
	}
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return v, nil
}

// computeDiscount never goes below zero or above the booking amount, and a
// percentage discount also respects its cap.
func computeDiscount(v *domain.Voucher, amount float64) float64 {
	var discount float64
	switch v.DiscountType {
	case domain.DiscountPercentage:
		discount = amount * v.DiscountValue / 100
		if v.MaxDiscount != nil && discount > *v.MaxDiscount {
			discount = *v.MaxDiscount
		}
	case domain.DiscountFixed:
		discount = v.DiscountValue
	}
	if discount > amount {
		discount = amount
	}
	if discount < 0 {
		discount = 0
	}
	return round2(discount)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
