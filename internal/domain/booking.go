package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// bookingTransitions is the single source of truth for legal booking
// status moves. Anything not listed is an illegal transition.
var bookingTransitions = map[BookingStatus]map[BookingStatus]bool{
	BookingPending: {
		BookingConfirmed: true,
		BookingCancelled: true,
	},
	BookingConfirmed: {
		BookingCancelled: true,
		BookingCompleted: true,
	},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return bookingTransitions[s][next]
}

// paymentTransitions: PAID never reverts to PENDING or FAILED. A retried
// payment attempt carries a fresh transaction reference, so FAILED may
// still move to PAID when a later attempt succeeds.
var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {
		PaymentPaid:   true,
		PaymentFailed: true,
	},
	PaymentFailed: {
		PaymentPaid: true,
	},
	PaymentPaid: {
		PaymentRefunded:          true,
		PaymentPartiallyRefunded: true,
	},
	PaymentPartiallyRefunded: {
		PaymentRefunded: true,
	},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return paymentTransitions[s][next]
}

type Booking struct {
	ID               int64         `gorm:"primaryKey" json:"id"`
	BookingReference string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"booking_reference"`
	HotelID          int64         `gorm:"index;not null" json:"hotel_id"`
	RoomTypeID       int64         `gorm:"index;not null" json:"room_type_id"`
	UserID           *int64        `gorm:"index" json:"user_id,omitempty"`
	GuestName        string        `gorm:"type:varchar(255)" json:"guest_name,omitempty"`
	GuestEmail       string        `gorm:"type:varchar(255)" json:"guest_email,omitempty"`
	GuestPhone       string        `gorm:"type:varchar(32)" json:"guest_phone,omitempty"`
	CheckInDate      time.Time     `gorm:"index;not null" json:"check_in_date"`
	CheckOutDate     time.Time     `gorm:"index;not null" json:"check_out_date"`
	Guests           int           `gorm:"not null" json:"guests"`
	TotalAmount      float64       `gorm:"not null" json:"total_amount"`
	Status           BookingStatus `gorm:"type:varchar(20);index;default:'PENDING'" json:"status"`
	PaymentStatus    PaymentStatus `gorm:"type:varchar(20);index;default:'PENDING'" json:"payment_status"`
	PaymentMethod    string        `gorm:"type:varchar(32)" json:"payment_method,omitempty"`

	// CommissionRate is captured from the hotel at creation and never
	// follows later rate changes.
	CommissionRate float64 `gorm:"not null" json:"commission_rate"`

	CancellationReason string   `gorm:"type:text" json:"cancellation_reason,omitempty"`
	RefundAmount       *float64 `json:"refund_amount,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy *int64    `json:"created_by,omitempty"`
	UpdatedBy *int64    `json:"updated_by,omitempty"`
}

func (Booking) TableName() string { return "bookings" }

// Nights returns the length of stay; the check-out day itself is not occupied.
func (b *Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
}
