package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByTxnRef(ctx context.Context, txnRef string) (*domain.PaymentTransaction, error) {
	var p domain.PaymentTransaction
	if err := r.db.WithContext(ctx).Where("txn_ref = ?", txnRef).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentTransaction, error) {
	var out []domain.PaymentTransaction
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GatewayResult carries the fields a verified gateway notification reports.
type GatewayResult struct {
	ResponseCode  string
	TransactionNo string
	BankCode      string
	CardType      string
	PayDate       string
	RawQuery      string
}

type NotifyChannel string

const (
	ChannelIPN    NotifyChannel = "ipn"
	ChannelReturn NotifyChannel = "return"
)

// SettleFunc runs inside the claim transaction of Apply, after the channel
// flag and status transition have been staged. An error rolls the whole
// claim back, channel flag included, so the gateway's retry repeats the
// full claim-and-settle instead of finding a half-settled transaction.
type SettleFunc func(tx *gorm.DB, p *domain.PaymentTransaction) error

// Apply is the claim-and-apply merge point for the two gateway channels.
// Under a row lock keyed by the transaction reference it marks the channel
// flag and, only if the transaction is still PENDING, applies the PAID or
// FAILED transition and runs settle in the same transaction. Whichever
// channel loses the race gets applied=false and must not re-run side
// effects.
func (r *PaymentRepository) Apply(ctx context.Context, txnRef string, target domain.TransactionStatus, res GatewayResult, ch NotifyChannel, settle SettleFunc) (bool, *domain.PaymentTransaction, error) {
	var (
		applied bool
		p       domain.PaymentTransaction
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("txn_ref = ?", txnRef).First(&p).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		switch ch {
		case ChannelIPN:
			updates["ipn_received"] = true
			updates["ipn_raw_query"] = res.RawQuery
		case ChannelReturn:
			updates["return_processed"] = true
			updates["return_raw_query"] = res.RawQuery
		}

		if p.Status == domain.TransactionPending {
			applied = true
			updates["status"] = target
			updates["response_code"] = res.ResponseCode
			updates["transaction_no"] = res.TransactionNo
			updates["bank_code"] = res.BankCode
			updates["card_type"] = res.CardType
			updates["pay_date"] = res.PayDate
			if target == domain.TransactionPaid {
				updates["paid_at"] = time.Now().UTC()
			}
		}

		if err := tx.Model(&domain.PaymentTransaction{}).Where("txn_ref = ?", txnRef).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("txn_ref = ?", txnRef).First(&p).Error; err != nil {
			return err
		}
		if applied && settle != nil {
			return settle(tx, &p)
		}
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return applied, &p, nil
}
