package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
	"github.com/vuchungbt/hotel-booking-sub000/internal/repository"
)

const (
	dateLayout          = "2006-01-02"
	referenceMaxRetries = 5
)

// Stay dates are calendar days on Vietnam time, matching the hotels and
// the payment gateway; the server's own zone must not shift them.
var businessLocation = time.FixedZone("ICT", 7*60*60)

type Service struct {
	bookings BookingRepository
	hotels   HotelDirectory
	vouchers VoucherEngine
	wallet   RefundSink
	events   EventPublisher
	loggerf  func(format string, args ...interface{})

	staleAfter time.Duration
	now        func() time.Time
}

func NewService(bookings BookingRepository, hotels HotelDirectory, vouchers VoucherEngine, wallet RefundSink, events EventPublisher, staleAfter time.Duration, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		bookings:   bookings,
		hotels:     hotels,
		vouchers:   vouchers,
		wallet:     wallet,
		events:     events,
		loggerf:    loggerf,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// CreateBooking validates the request, checks availability under the
// room-type lock, freezes the hotel's current commission rate into the
// booking and, when a voucher code is supplied, consumes it against the
// new booking.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest, actorID *int64) (*domain.Booking, error) {
	checkIn, checkOut, err := s.parseStayDates(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, err
	}

	rt, err := s.hotels.GetRoomType(ctx, req.RoomTypeID)
	if err != nil {
		return nil, fmt.Errorf("room type lookup: %w", err)
	}
	if rt.HotelID != req.HotelID {
		return nil, ErrValidation
	}
	if req.Guests < 1 || req.Guests > rt.MaxOccupancy {
		return nil, ErrValidation
	}

	hotel, err := s.hotels.GetHotel(ctx, req.HotelID)
	if err != nil {
		return nil, fmt.Errorf("hotel lookup: %w", err)
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	total := round2(rt.PricePerNight * float64(nights))

	var discount float64
	if req.VoucherCode != "" {
		if actorID == nil {
			return nil, ErrVoucherRequiresUser
		}
		discount, err = s.vouchers.PreviewDiscount(ctx, req.VoucherCode, req.HotelID, total)
		if err != nil {
			return nil, err
		}
	}

	b := &domain.Booking{
		HotelID:        req.HotelID,
		RoomTypeID:     req.RoomTypeID,
		UserID:         actorID,
		GuestName:      req.GuestName,
		GuestEmail:     req.GuestEmail,
		GuestPhone:     req.GuestPhone,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		Guests:         req.Guests,
		TotalAmount:    round2(total - discount),
		Status:         domain.BookingPending,
		PaymentStatus:  domain.PaymentPending,
		PaymentMethod:  req.PaymentMethod,
		CommissionRate: hotel.CommissionRate,
		CreatedBy:      actorID,
		UpdatedBy:      actorID,
	}

	if err := s.createWithUniqueReference(ctx, b); err != nil {
		return nil, err
	}

	if req.VoucherCode != "" {
		if _, err := s.vouchers.ApplyToBooking(ctx, req.VoucherCode, *actorID, b.ID, req.HotelID, total); err != nil {
			// the voucher slipped away between preview and apply; the
			// booking must not keep the discounted price
			if derr := s.bookings.Delete(ctx, b.ID); derr != nil {
				s.loggerf("level=error msg=failed to roll back booking after voucher apply failure booking_id=%d err=%v", b.ID, derr)
			}
			return nil, err
		}
	}

	s.publish("booking.created", b)
	return b, nil
}

func (s *Service) createWithUniqueReference(ctx context.Context, b *domain.Booking) error {
	for attempt := 0; attempt < referenceMaxRetries; attempt++ {
		b.BookingReference = generateBookingReference(s.now())
		err := s.bookings.CreateIfAvailable(ctx, b)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrUnavailable) {
			return ErrNotAvailable
		}
		if repository.IsUniqueViolation(err) {
			continue
		}
		return err
	}
	return fmt.Errorf("could not generate a unique booking reference after %d attempts", referenceMaxRetries)
}

// CheckAvailability is the public read-only probe; creation re-checks
// under the lock.
func (s *Service) CheckAvailability(ctx context.Context, roomTypeID int64, checkInStr, checkOutStr string) (bool, error) {
	checkIn, err := time.Parse(dateLayout, checkInStr)
	if err != nil {
		return false, ErrValidation
	}
	checkOut, err := time.Parse(dateLayout, checkOutStr)
	if err != nil {
		return false, ErrValidation
	}
	if !checkOut.After(checkIn) {
		return false, ErrValidation
	}
	ok, err := s.bookings.IsAvailable(ctx, roomTypeID, checkIn, checkOut, nil)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrNotFound
	}
	return ok, err
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *Service) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	b, err := s.bookings.GetByReference(ctx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *Service) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) ListByHotel(ctx context.Context, hotelID int64, actorID int64, actorRole string, limit, offset int) ([]domain.Booking, error) {
	if actorRole != domain.RoleAdmin {
		hotel, err := s.hotels.GetHotel(ctx, hotelID)
		if err != nil {
			return nil, err
		}
		if hotel.OwnerID != actorID {
			return nil, ErrForbidden
		}
	}
	return s.bookings.ListByHotel(ctx, hotelID, limit, offset)
}

// ListStalePayments surfaces bookings stuck in PENDING/FAILED payment for
// manual review. Nothing here cancels them.
func (s *Service) ListStalePayments(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.ListStalePayments(ctx, s.now().Add(-s.staleAfter))
}

// UpdateByGuest lets the booking's owner adjust dates, guest count and
// contact details while the booking is still PENDING.
func (s *Service) UpdateByGuest(ctx context.Context, bookingID int64, actorID int64, req UpdateBookingRequest) (*domain.Booking, error) {
	b, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID == nil || *b.UserID != actorID {
		return nil, ErrForbidden
	}
	if b.Status != domain.BookingPending {
		return nil, ErrInvalidStatusTransition
	}

	updates := map[string]interface{}{"updated_by": actorID}
	if req.GuestName != nil {
		updates["guest_name"] = *req.GuestName
	}
	if req.GuestEmail != nil {
		updates["guest_email"] = *req.GuestEmail
	}
	if req.GuestPhone != nil {
		updates["guest_phone"] = *req.GuestPhone
	}

	checkIn, checkOut := b.CheckInDate, b.CheckOutDate
	datesChanged := false
	if req.CheckInDate != nil || req.CheckOutDate != nil {
		inStr := b.CheckInDate.Format(dateLayout)
		outStr := b.CheckOutDate.Format(dateLayout)
		if req.CheckInDate != nil {
			inStr = *req.CheckInDate
		}
		if req.CheckOutDate != nil {
			outStr = *req.CheckOutDate
		}
		checkIn, checkOut, err = s.parseStayDates(inStr, outStr)
		if err != nil {
			return nil, err
		}
		datesChanged = true
	}

	guests := b.Guests
	if req.Guests != nil {
		guests = *req.Guests
	}

	rt, err := s.hotels.GetRoomType(ctx, b.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if guests < 1 || guests > rt.MaxOccupancy {
		return nil, ErrValidation
	}
	updates["guests"] = guests

	if datesChanged {
		nights := int(checkOut.Sub(checkIn).Hours() / 24)
		total := round2(rt.PricePerNight * float64(nights))
		if discount, ok, derr := s.vouchers.DiscountByBooking(ctx, bookingID); derr == nil && ok {
			total = round2(total - discount)
			if total < 0 {
				total = 0
			}
		}
		updates["check_in_date"] = checkIn
		updates["check_out_date"] = checkOut
		updates["total_amount"] = total

		if err := s.bookings.RescheduleIfAvailable(ctx, b, updates); err != nil {
			if errors.Is(err, repository.ErrUnavailable) {
				return nil, ErrNotAvailable
			}
			return nil, err
		}
	} else if err := s.bookings.Update(ctx, bookingID, updates); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, bookingID)
}

// Confirm moves PENDING to CONFIRMED. Host or admin only; the handler
// enforces the role, the service enforces ownership and the transition.
func (s *Service) Confirm(ctx context.Context, bookingID int64, actorID int64, actorRole string) (*domain.Booking, error) {
	b, err := s.authorizeHostAction(ctx, bookingID, actorID, actorRole)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(domain.BookingConfirmed) {
		return nil, ErrInvalidStatusTransition
	}
	err = s.bookings.Update(ctx, bookingID, map[string]interface{}{
		"status":     domain.BookingConfirmed,
		"updated_by": actorID,
	})
	if err != nil {
		return nil, err
	}
	b, err = s.GetByID(ctx, bookingID)
	if err == nil {
		s.publish("booking.confirmed", b)
	}
	return b, err
}

// Cancel moves PENDING or CONFIRMED to CANCELLED, reverses any voucher
// usage, and optionally refunds a paid booking to the guest's wallet.
func (s *Service) Cancel(ctx context.Context, bookingID int64, actorID int64, actorRole string, req CancelBookingRequest) (*domain.Booking, error) {
	b, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorRole == domain.RoleGuest && (b.UserID == nil || *b.UserID != actorID) {
		return nil, ErrForbidden
	}
	if actorRole == domain.RoleHost {
		if _, err := s.authorizeHostAction(ctx, bookingID, actorID, actorRole); err != nil {
			return nil, err
		}
	}
	if !b.Status.CanTransitionTo(domain.BookingCancelled) {
		return nil, ErrInvalidStatusTransition
	}

	updates := map[string]interface{}{
		"status":              domain.BookingCancelled,
		"cancellation_reason": req.Reason,
		"updated_by":          actorID,
	}

	if req.RefundToWallet && b.PaymentStatus == domain.PaymentPaid {
		if b.UserID == nil {
			return nil, ErrValidation
		}
		amount := b.TotalAmount
		if req.RefundAmount != nil {
			amount = *req.RefundAmount
		}
		if amount <= 0 || amount > b.TotalAmount {
			return nil, ErrValidation
		}
		note := fmt.Sprintf("Refund for booking %s: %s", b.BookingReference, req.Reason)
		if _, err := s.wallet.AddRefund(ctx, *b.UserID, amount, &b.ID, note); err != nil {
			return nil, err
		}
		target := domain.PaymentRefunded
		if amount < b.TotalAmount {
			target = domain.PaymentPartiallyRefunded
		}
		if _, err := s.bookings.TransitionPaymentStatus(ctx, bookingID, target); err != nil {
			return nil, err
		}
		updates["refund_amount"] = amount
	}

	if err := s.bookings.Update(ctx, bookingID, updates); err != nil {
		return nil, err
	}

	if err := s.vouchers.RemoveUsageByBooking(ctx, bookingID); err != nil {
		s.loggerf("level=error msg=failed to reverse voucher usage booking_id=%d err=%v", bookingID, err)
	}

	b, err = s.GetByID(ctx, bookingID)
	if err == nil {
		s.publish("booking.cancelled", b)
	}
	return b, err
}

// Complete marks a CONFIRMED stay as checked out.
func (s *Service) Complete(ctx context.Context, bookingID int64, actorID int64, actorRole string) (*domain.Booking, error) {
	b, err := s.authorizeHostAction(ctx, bookingID, actorID, actorRole)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(domain.BookingCompleted) {
		return nil, ErrInvalidStatusTransition
	}
	err = s.bookings.Update(ctx, bookingID, map[string]interface{}{
		"status":     domain.BookingCompleted,
		"updated_by": actorID,
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, bookingID)
}

func (s *Service) authorizeHostAction(ctx context.Context, bookingID int64, actorID int64, actorRole string) (*domain.Booking, error) {
	b, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorRole == domain.RoleAdmin {
		return b, nil
	}
	hotel, err := s.hotels.GetHotel(ctx, b.HotelID)
	if err != nil {
		return nil, err
	}
	if hotel.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) parseStayDates(checkInStr, checkOutStr string) (time.Time, time.Time, error) {
	checkIn, err := time.Parse(dateLayout, checkInStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrValidation
	}
	checkOut, err := time.Parse(dateLayout, checkOutStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrValidation
	}
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, ErrValidation
	}
	now := s.now().In(businessLocation)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if checkIn.Before(today) {
		return time.Time{}, time.Time{}, ErrValidation
	}
	return checkIn, checkOut, nil
}

func (s *Service) publish(event string, b *domain.Booking) {
	if s.events == nil {
		return
	}
	s.events.Publish(event, map[string]interface{}{
		"booking_id":        b.ID,
		"booking_reference": b.BookingReference,
		"hotel_id":          b.HotelID,
		"status":            b.Status,
		"payment_status":    b.PaymentStatus,
		"total_amount":      b.TotalAmount,
	})
}

func generateBookingReference(now time.Time) string {
	return fmt.Sprintf("BK%s%04d", now.Format("20060102"), rand.Intn(10000))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
