package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
)

// UserDirectory resolves the payout destination for withdrawals.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Service works against the ledger directly. Withdrawal flows serialize on
// the user row, so the available-balance check and the ledger write cannot
// interleave with a concurrent withdrawal for the same user.
type Service struct {
	db      *gorm.DB
	users   UserDirectory
	loggerf func(format string, args ...interface{})
	now     func() time.Time
}

func NewService(db *gorm.DB, users UserDirectory, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{db: db, users: users, loggerf: loggerf, now: time.Now}
}

// Balance is the signed sum of COMPLETED entries. PENDING withdrawals do
// not reduce it; availableBalance does that for the request path.
func (s *Service) Balance(ctx context.Context, userID int64) (float64, error) {
	return completedBalance(s.db.WithContext(ctx), userID)
}

func completedBalance(tx *gorm.DB, userID int64) (float64, error) {
	var balance float64
	err := tx.Model(&domain.WalletTransaction{}).
		Where("user_id = ? AND status = ?", userID, domain.WalletTxnCompleted).
		Select("COALESCE(SUM(CASE WHEN type = 'REFUND' THEN amount ELSE -amount END), 0)").
		Scan(&balance).Error
	return balance, err
}

// availableBalance subtracts withdrawals still awaiting approval, so two
// pending requests cannot both claim the same funds.
func availableBalance(tx *gorm.DB, userID int64) (float64, error) {
	balance, err := completedBalance(tx, userID)
	if err != nil {
		return 0, err
	}
	var pending float64
	err = tx.Model(&domain.WalletTransaction{}).
		Where("user_id = ? AND type = ? AND status = ?", userID, domain.WalletWithdrawal, domain.WalletTxnPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&pending).Error
	if err != nil {
		return 0, err
	}
	return balance - pending, nil
}

// AddRefund credits a cancellation refund as an immediately COMPLETED
// ledger entry.
func (s *Service) AddRefund(ctx context.Context, userID int64, amount float64, bookingID *int64, note string) (*domain.WalletTransaction, error) {
	if amount <= 0 {
		return nil, ErrValidation
	}
	now := s.now()
	txn := &domain.WalletTransaction{
		UserID:      userID,
		Type:        domain.WalletRefund,
		Amount:      amount,
		Status:      domain.WalletTxnCompleted,
		BookingID:   bookingID,
		Note:        note,
		ProcessedAt: &now,
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	s.loggerf("level=info msg=refund credited user_id=%d amount=%.2f", userID, amount)
	return txn, nil
}

// RequestWithdrawal records a PENDING withdrawal after verifying the user
// has a payout destination and enough available balance. Nothing is written
// when either check fails.
func (s *Service) RequestWithdrawal(ctx context.Context, userID int64, req WithdrawalRequest) (*domain.WalletTransaction, error) {
	if req.Amount <= 0 {
		return nil, ErrValidation
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.BankAccount == "" {
		return nil, ErrNoBankAccount
	}

	var txn *domain.WalletTransaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lockUser domain.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&lockUser, userID).Error; err != nil {
			return err
		}
		available, err := availableBalance(tx, userID)
		if err != nil {
			return err
		}
		if req.Amount > available {
			return ErrInsufficientBalance
		}
		txn = &domain.WalletTransaction{
			UserID: userID,
			Type:   domain.WalletWithdrawal,
			Amount: req.Amount,
			Status: domain.WalletTxnPending,
			Note:   req.Note,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ProcessWithdrawal is the admin decision on a PENDING withdrawal. Approval
// re-checks the balance under the lock before the entry turns COMPLETED; an
// entry that would overdraw stays PENDING and the call fails.
func (s *Service) ProcessWithdrawal(ctx context.Context, txnID uuid.UUID, adminID int64, req ProcessWithdrawalRequest) (*domain.WalletTransaction, error) {
	var txn domain.WalletTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", txnID).First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if txn.Type != domain.WalletWithdrawal || txn.Status != domain.WalletTxnPending {
			return ErrNotPending
		}

		status := domain.WalletTxnFailed
		if req.Approve {
			balance, err := completedBalance(tx, txn.UserID)
			if err != nil {
				return err
			}
			if txn.Amount > balance {
				return ErrInsufficientBalance
			}
			status = domain.WalletTxnCompleted
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":       status,
			"processed_at": now,
			"processed_by": adminID,
		}
		if req.Note != "" {
			updates["note"] = req.Note
		}
		if err := tx.Model(&domain.WalletTransaction{}).Where("id = ?", txnID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", txnID).First(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *Service) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]domain.WalletTransaction, error) {
	var out []domain.WalletTransaction
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListPendingWithdrawals feeds the admin approval queue.
func (s *Service) ListPendingWithdrawals(ctx context.Context) ([]domain.WalletTransaction, error) {
	var out []domain.WalletTransaction
	err := s.db.WithContext(ctx).
		Where("type = ? AND status = ?", domain.WalletWithdrawal, domain.WalletTxnPending).
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
