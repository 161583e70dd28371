package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).Where("booking_reference = ?", ref).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	var out []domain.Booking
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingRepository) ListByHotel(ctx context.Context, hotelID int64, limit, offset int) ([]domain.Booking, error) {
	var out []domain.Booking
	q := r.db.WithContext(ctx).Where("hotel_id = ?", hotelID).Order("check_in_date desc")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListStalePayments returns bookings whose payment is still PENDING or
// FAILED and that were created before the cutoff. Used for manual admin
// review only; nothing cancels them automatically.
func (r *BookingRepository) ListStalePayments(ctx context.Context, before time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("payment_status IN ? AND created_at < ?", []domain.PaymentStatus{domain.PaymentPending, domain.PaymentFailed}, before).
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// countOverlapping counts non-cancelled bookings for the room type whose
// half-open interval [check_in, check_out) overlaps the requested one.
func countOverlapping(tx *gorm.DB, roomTypeID int64, checkIn, checkOut time.Time, excludeBookingID *int64) (int64, error) {
	q := tx.Model(&domain.Booking{}).
		Where("room_type_id = ? AND status <> ?", roomTypeID, domain.BookingCancelled).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn)
	if excludeBookingID != nil {
		q = q.Where("id <> ?", *excludeBookingID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// IsAvailable is the read-only availability probe. It takes no lock, so a
// positive answer is advisory; CreateIfAvailable re-checks under the
// room-type row lock.
func (r *BookingRepository) IsAvailable(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, excludeBookingID *int64) (bool, error) {
	var rt domain.RoomType
	if err := r.db.WithContext(ctx).First(&rt, roomTypeID).Error; err != nil {
		return false, err
	}
	n, err := countOverlapping(r.db.WithContext(ctx), roomTypeID, checkIn, checkOut, excludeBookingID)
	if err != nil {
		return false, err
	}
	return n < int64(rt.TotalRooms), nil
}

// CreateIfAvailable holds the room-type row lock across the overlap count
// and the insert, so two concurrent creations for the same room type
// serialize instead of both passing the check.
func (r *BookingRepository) CreateIfAvailable(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt domain.RoomType
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rt, b.RoomTypeID).Error; err != nil {
			return err
		}
		n, err := countOverlapping(tx, b.RoomTypeID, b.CheckInDate, b.CheckOutDate, nil)
		if err != nil {
			return err
		}
		if n >= int64(rt.TotalRooms) {
			return ErrUnavailable
		}
		return tx.Create(b).Error
	})
}

// RescheduleIfAvailable applies a guest-side date/guest change under the
// same room-type lock, excluding the booking itself from the overlap count.
func (r *BookingRepository) RescheduleIfAvailable(ctx context.Context, b *domain.Booking, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt domain.RoomType
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rt, b.RoomTypeID).Error; err != nil {
			return err
		}
		checkIn, _ := updates["check_in_date"].(time.Time)
		checkOut, _ := updates["check_out_date"].(time.Time)
		n, err := countOverlapping(tx, b.RoomTypeID, checkIn, checkOut, &b.ID)
		if err != nil {
			return err
		}
		if n >= int64(rt.TotalRooms) {
			return ErrUnavailable
		}
		return tx.Model(&domain.Booking{}).Where("id = ?", b.ID).Updates(updates).Error
	})
}

// Delete removes a booking row outright. Only the create flow uses it, to
// roll back a booking whose voucher could not be consumed.
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Booking{}, id).Error
}

func (r *BookingRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&domain.Booking{}).Where("id = ?", id).Updates(updates).Error
}

// TransitionPaymentStatus moves the booking's payment status under a row
// lock, honoring the transition table. Returns false without error when the
// move is a no-op or not legal from the current state; the caller decides
// whether that is an idempotent skip or an ErrInvalidStatusTransition.
func (r *BookingRepository) TransitionPaymentStatus(ctx context.Context, bookingID int64, to domain.PaymentStatus) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		_, changed, err = r.TransitionPaymentStatusTx(tx, bookingID, to)
		return err
	})
	return changed, err
}

// TransitionPaymentStatusTx is the form for callers that already hold a
// transaction; it returns the booking as it stands after the transition.
func (r *BookingRepository) TransitionPaymentStatusTx(tx *gorm.DB, bookingID int64, to domain.PaymentStatus) (*domain.Booking, bool, error) {
	var b domain.Booking
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, bookingID).Error; err != nil {
		return nil, false, err
	}
	if !b.PaymentStatus.CanTransitionTo(to) {
		return &b, false, nil
	}
	if err := tx.Model(&domain.Booking{}).Where("id = ?", bookingID).Update("payment_status", to).Error; err != nil {
		return nil, false, err
	}
	b.PaymentStatus = to
	return &b, true, nil
}

// SumPaidGross returns the gross revenue of all paid bookings for a hotel.
func (r *BookingRepository) SumPaidGross(ctx context.Context, hotelID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("hotel_id = ? AND payment_status = ?", hotelID, domain.PaymentPaid).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *BookingRepository) ListPaidByHotel(ctx context.Context, hotelID int64) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("hotel_id = ? AND payment_status = ?", hotelID, domain.PaymentPaid).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
