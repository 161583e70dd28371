package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WalletTransactionType string

const (
	WalletRefund     WalletTransactionType = "REFUND"
	WalletWithdrawal WalletTransactionType = "WITHDRAWAL"
)

type WalletTransactionStatus string

const (
	WalletTxnPending   WalletTransactionStatus = "PENDING"
	WalletTxnCompleted WalletTransactionStatus = "COMPLETED"
	WalletTxnFailed    WalletTransactionStatus = "FAILED"
)

// WalletTransaction is an append-only ledger entry. A user's balance is the
// signed sum of COMPLETED entries: refunds add, completed withdrawals
// subtract. PENDING withdrawals do not affect the balance.
type WalletTransaction struct {
	ID          uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      int64                   `gorm:"index;not null" json:"user_id"`
	Type        WalletTransactionType   `gorm:"type:varchar(16);not null;index" json:"type"`
	Amount      float64                 `gorm:"not null" json:"amount"`
	Status      WalletTransactionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	BookingID   *int64                  `gorm:"index" json:"booking_id,omitempty"`
	Note        string                  `gorm:"type:text" json:"note,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	ProcessedAt *time.Time              `json:"processed_at,omitempty"`
	ProcessedBy *int64                  `json:"processed_by,omitempty"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }

func (t *WalletTransaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
