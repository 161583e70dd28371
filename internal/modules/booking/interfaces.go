package booking

import (
	"context"
	"time"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
)

// BookingRepository defines the persistence contract the service needs.
type BookingRepository interface {
	CreateIfAvailable(ctx context.Context, b *domain.Booking) error
	RescheduleIfAvailable(ctx context.Context, b *domain.Booking, updates map[string]interface{}) error
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, ref string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
	ListByHotel(ctx context.Context, hotelID int64, limit, offset int) ([]domain.Booking, error)
	ListStalePayments(ctx context.Context, before time.Time) ([]domain.Booking, error)
	IsAvailable(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, excludeBookingID *int64) (bool, error)
	TransitionPaymentStatus(ctx context.Context, bookingID int64, to domain.PaymentStatus) (bool, error)
}

// HotelDirectory resolves the hotel/room-type collaborators this core
// consumes but does not own.
type HotelDirectory interface {
	GetHotel(ctx context.Context, id int64) (*domain.Hotel, error)
	GetRoomType(ctx context.Context, id int64) (*domain.RoomType, error)
}

// VoucherEngine is the slice of the voucher module the booking flow uses.
type VoucherEngine interface {
	PreviewDiscount(ctx context.Context, code string, hotelID int64, amount float64) (float64, error)
	ApplyToBooking(ctx context.Context, code string, userID, bookingID, hotelID int64, amount float64) (float64, error)
	RemoveUsageByBooking(ctx context.Context, bookingID int64) error
	DiscountByBooking(ctx context.Context, bookingID int64) (float64, bool, error)
}

// RefundSink credits a cancelled paid booking back to the guest's wallet.
type RefundSink interface {
	AddRefund(ctx context.Context, userID int64, amount float64, bookingID *int64, note string) (*domain.WalletTransaction, error)
}

// EventPublisher is fire-and-forget; implementations must never block the
// request path.
type EventPublisher interface {
	Publish(event string, payload map[string]interface{})
}
