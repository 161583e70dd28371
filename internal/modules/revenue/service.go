package revenue

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
)

var (
	ErrNotFound  = errors.New("hotel not found")
	ErrForbidden = errors.New("not allowed")
)

// BookingLedger is the slice of booking persistence the revenue math reads.
type BookingLedger interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	SumPaidGross(ctx context.Context, hotelID int64) (float64, error)
	ListPaidByHotel(ctx context.Context, hotelID int64) ([]domain.Booking, error)
}

// HotelLedger owns the commission accumulator on the hotel row.
type HotelLedger interface {
	GetHotel(ctx context.Context, id int64) (*domain.Hotel, error)
	AddCommission(ctx context.Context, hotelID int64, delta float64) error
	SetCommissionEarned(ctx context.Context, hotelID int64, total float64) error
}

// Summary is the per-hotel revenue picture: gross paid bookings, the
// platform's cut, and what the host keeps.
type Summary struct {
	HotelID    int64   `json:"hotel_id"`
	Gross      float64 `json:"gross"`
	Commission float64 `json:"commission"`
	Net        float64 `json:"net"`
}

type Service struct {
	bookings BookingLedger
	hotels   HotelLedger
	loggerf  func(format string, args ...interface{})
}

func NewService(bookings BookingLedger, hotels HotelLedger, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{bookings: bookings, hotels: hotels, loggerf: loggerf}
}

// UpdateHotelRevenue credits the hotel's commission for one booking that
// became PAID, using the commission rate frozen into the booking at
// creation time. A booking in any other payment state is a no-op. This is
// the standalone form for out-of-band corrections; payment settlement uses
// CreditBookingCommission inside its own transaction. The caller guards
// exactly-once; this method just does the arithmetic.
func (s *Service) UpdateHotelRevenue(ctx context.Context, bookingID int64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.PaymentStatus != domain.PaymentPaid {
		return nil
	}
	commission := round2(b.TotalAmount * b.CommissionRate / 100)
	if err := s.hotels.AddCommission(ctx, b.HotelID, commission); err != nil {
		return err
	}
	s.loggerf("level=info msg=commission credited hotel_id=%d booking_id=%d commission=%.2f", b.HotelID, bookingID, commission)
	return nil
}

// CreditBookingCommission credits the booking's frozen-rate commission to
// its hotel inside the caller's transaction, so the credit commits or rolls
// back together with whatever marked the booking PAID. A booking in any
// other payment state is a no-op.
func (s *Service) CreditBookingCommission(tx *gorm.DB, b *domain.Booking) error {
	if b.PaymentStatus != domain.PaymentPaid {
		return nil
	}
	commission := round2(b.TotalAmount * b.CommissionRate / 100)
	res := tx.Model(&domain.Hotel{}).
		Where("id = ?", b.HotelID).
		Update("commission_earned", gorm.Expr("commission_earned + ?", commission))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.loggerf("level=info msg=commission credited hotel_id=%d booking_id=%d commission=%.2f", b.HotelID, b.ID, commission)
	return nil
}

// RecalculateHotelRevenue rebuilds the commission accumulator from the paid
// bookings. With useFrozenRate the rebuild honors each booking's frozen
// rate, reproducing what the incremental path accumulated; without it the
// hotel's current rate reprices history after a rate change.
func (s *Service) RecalculateHotelRevenue(ctx context.Context, hotelID int64, useFrozenRate bool) (*Summary, error) {
	hotel, err := s.hotels.GetHotel(ctx, hotelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var gross, commission float64
	if useFrozenRate {
		bookings, err := s.bookings.ListPaidByHotel(ctx, hotelID)
		if err != nil {
			return nil, err
		}
		for _, b := range bookings {
			gross += b.TotalAmount
			commission += round2(b.TotalAmount * b.CommissionRate / 100)
		}
		gross = round2(gross)
		commission = round2(commission)
	} else {
		if gross, err = s.bookings.SumPaidGross(ctx, hotelID); err != nil {
			return nil, err
		}
		commission = round2(gross * hotel.CommissionRate / 100)
	}

	if err := s.hotels.SetCommissionEarned(ctx, hotelID, commission); err != nil {
		return nil, err
	}
	return &Summary{HotelID: hotelID, Gross: gross, Commission: commission, Net: round2(gross - commission)}, nil
}

// HotelSummary reports revenue without touching the accumulator. Hosts see
// only their own hotels.
func (s *Service) HotelSummary(ctx context.Context, hotelID, actorID int64, actorRole string) (*Summary, error) {
	hotel, err := s.hotels.GetHotel(ctx, hotelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if actorRole != domain.RoleAdmin && hotel.OwnerID != actorID {
		return nil, ErrForbidden
	}
	gross, err := s.bookings.SumPaidGross(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		HotelID:    hotelID,
		Gross:      gross,
		Commission: hotel.CommissionEarned,
		Net:        round2(gross - hotel.CommissionEarned),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
