package domain

import "time"

type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "PENDING"
	TransactionPaid     TransactionStatus = "PAID"
	TransactionFailed   TransactionStatus = "FAILED"
	TransactionRefunded TransactionStatus = "REFUNDED"
)

// PaymentTransaction is one attempted charge against the gateway. Retries
// create new rows with fresh transaction references; the reference, not the
// booking, keys the reconciliation.
type PaymentTransaction struct {
	ID            int64             `gorm:"primaryKey" json:"id"`
	TxnRef        string            `gorm:"type:varchar(64);uniqueIndex;not null" json:"txn_ref"`
	BookingID     int64             `gorm:"index;not null" json:"booking_id"`
	Amount        float64           `gorm:"not null" json:"amount"`
	OrderInfo     string            `gorm:"type:text" json:"order_info"`
	Status        TransactionStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`
	ResponseCode  string            `gorm:"type:varchar(8)" json:"response_code,omitempty"`
	TransactionNo string            `gorm:"type:varchar(64)" json:"transaction_no,omitempty"`
	BankCode      string            `gorm:"type:varchar(32)" json:"bank_code,omitempty"`
	CardType      string            `gorm:"type:varchar(32)" json:"card_type,omitempty"`
	PayDate       string            `gorm:"type:varchar(14)" json:"pay_date,omitempty"`
	PaymentURL    string            `gorm:"type:text" json:"payment_url,omitempty"`

	// Which of the two gateway channels has been applied to this row.
	IPNReceived     bool `gorm:"not null;default:false" json:"ipn_received"`
	ReturnProcessed bool `gorm:"not null;default:false" json:"return_processed"`

	IPNRawQuery    string     `gorm:"type:text" json:"-"`
	ReturnRawQuery string     `gorm:"type:text" json:"-"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (PaymentTransaction) TableName() string { return "payment_transactions" }
