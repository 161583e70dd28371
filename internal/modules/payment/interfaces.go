package payment

import (
	"context"

	"gorm.io/gorm"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
	"github.com/vuchungbt/hotel-booking-sub000/internal/repository"
)

// PaymentStore persists gateway transactions and owns the claim-and-apply
// merge of the two notification channels. The settle func runs inside the
// claim transaction; its error rolls the claim back.
type PaymentStore interface {
	Create(ctx context.Context, p *domain.PaymentTransaction) error
	GetByTxnRef(ctx context.Context, txnRef string) (*domain.PaymentTransaction, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentTransaction, error)
	Apply(ctx context.Context, txnRef string, target domain.TransactionStatus, res repository.GatewayResult, ch repository.NotifyChannel, settle repository.SettleFunc) (bool, *domain.PaymentTransaction, error)
}

// BookingStore is the slice of booking persistence the reconciliation
// needs: lookups plus the guarded payment-status transition, which runs
// inside the claim transaction.
type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	TransitionPaymentStatusTx(tx *gorm.DB, bookingID int64, to domain.PaymentStatus) (*domain.Booking, bool, error)
}

// RevenueRecorder credits the hotel's commission for a booking that just
// became PAID, inside the caller's transaction so the credit is atomic with
// the payment-status transition.
type RevenueRecorder interface {
	CreditBookingCommission(tx *gorm.DB, b *domain.Booking) error
}

type EventPublisher interface {
	Publish(event string, payload map[string]interface{})
}
