package domain

import "time"

const (
	RoleGuest = "guest"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

// User is consumed here only as an identity with a payout destination;
// registration and authentication live elsewhere.
type User struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255)" json:"name"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role        string    `gorm:"type:varchar(16);default:'guest'" json:"role"`
	BankAccount string    `gorm:"type:varchar(64)" json:"bank_account,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
