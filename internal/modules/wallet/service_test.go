package wallet

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vuchungbt/hotel-booking-sub000/internal/database"
	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
	"github.com/vuchungbt/hotel-booking-sub000/internal/repository"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, repository.NewUserRepository(db), nil), db
}

func seedUser(t *testing.T, db *gorm.DB, id int64, bankAccount string) {
	t.Helper()
	u := &domain.User{ID: id, Name: "Test User", Email: fmt.Sprintf("u%d@example.com", id), BankAccount: bankAccount}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestBalanceIgnoresPendingAndFailed(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddRefund(ctx, 7, 150000, nil, "refund a"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if _, err := svc.AddRefund(ctx, 7, 50000, nil, "refund b"); err != nil {
		t.Fatalf("refund: %v", err)
	}

	// neither a pending nor a failed withdrawal moves the balance
	seed := []domain.WalletTransaction{
		{UserID: 7, Type: domain.WalletWithdrawal, Amount: 30000, Status: domain.WalletTxnPending},
		{UserID: 7, Type: domain.WalletWithdrawal, Amount: 40000, Status: domain.WalletTxnFailed},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed withdrawal: %v", err)
		}
	}

	balance, err := svc.Balance(ctx, 7)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 200000 {
		t.Fatalf("balance = %v, want 200000", balance)
	}

	// someone else's refund never leaks in
	if _, err := svc.AddRefund(ctx, 8, 999999, nil, "other user"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	balance, _ = svc.Balance(ctx, 7)
	if balance != 200000 {
		t.Fatalf("balance = %v, want 200000", balance)
	}
}

func TestRequestWithdrawalChecksBalanceBeforeWriting(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedUser(t, db, 7, "970436-0123456789")

	if _, err := svc.AddRefund(ctx, 7, 150000, nil, "refund"); err != nil {
		t.Fatalf("refund: %v", err)
	}

	// asking for more than the balance must not leave any row behind
	_, err := svc.RequestWithdrawal(ctx, 7, WithdrawalRequest{Amount: 200000})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("over-withdrawal: got %v, want ErrInsufficientBalance", err)
	}
	var count int64
	db.Model(&domain.WalletTransaction{}).Where("type = ?", domain.WalletWithdrawal).Count(&count)
	if count != 0 {
		t.Fatalf("rejected withdrawal left %d rows", count)
	}

	txn, err := svc.RequestWithdrawal(ctx, 7, WithdrawalRequest{Amount: 100000})
	if err != nil {
		t.Fatalf("withdrawal: %v", err)
	}
	if txn.Status != domain.WalletTxnPending {
		t.Fatalf("status = %s, want PENDING", txn.Status)
	}

	// PENDING withdrawal leaves the balance untouched
	balance, _ := svc.Balance(ctx, 7)
	if balance != 150000 {
		t.Fatalf("balance = %v, want 150000 while withdrawal pending", balance)
	}

	// but it reserves funds against further requests
	if _, err := svc.RequestWithdrawal(ctx, 7, WithdrawalRequest{Amount: 100000}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("second withdrawal over available: got %v, want ErrInsufficientBalance", err)
	}
}

func TestRequestWithdrawalNeedsBankAccount(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedUser(t, db, 7, "")

	if _, err := svc.AddRefund(ctx, 7, 150000, nil, "refund"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if _, err := svc.RequestWithdrawal(ctx, 7, WithdrawalRequest{Amount: 50000}); !errors.Is(err, ErrNoBankAccount) {
		t.Fatalf("got %v, want ErrNoBankAccount", err)
	}
}

func TestProcessWithdrawalApprove(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	db := svc.db
	seedUser(t, db, 7, "970436-0123456789")
	if _, err := svc.AddRefund(ctx, 7, 150000, nil, "refund"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	txn, err := svc.RequestWithdrawal(ctx, 7, WithdrawalRequest{Amount: 100000})
	if err != nil {
		t.Fatalf("withdrawal: %v", err)
	}

	processed, err := svc.ProcessWithdrawal(ctx, txn.ID, 99, ProcessWithdrawalRequest{Approve: true, Note: "sent via bank"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if processed.Status != domain.WalletTxnCompleted {
		t.Fatalf("status = %s, want COMPLETED", processed.Status)
	}
	if processed.ProcessedBy == nil || *processed.ProcessedBy != 99 {
		t.Fatalf("processed_by = %v, want 99", processed.ProcessedBy)
	}

	balance, _ := svc.Balance(ctx, 7)
	if balance != 50000 {
		t.Fatalf("balance after approval = %v, want 50000", balance)
	}

	// a processed withdrawal cannot be processed again
	if _, err := svc.ProcessWithdrawal(ctx, txn.ID, 99, ProcessWithdrawalRequest{Approve: true}); !errors.Is(err, ErrNotPending) {
		t.Fatalf("reprocess: got %v, want ErrNotPending", err)
	}
}

func TestProcessWithdrawalReject(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedUser(t, db, 7, "970436-0123456789")

	if _, err := svc.AddRefund(ctx, 7, 150000, nil, "refund"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	txn, err := svc.RequestWithdrawal(ctx, 7, WithdrawalRequest{Amount: 100000})
	if err != nil {
		t.Fatalf("withdrawal: %v", err)
	}

	processed, err := svc.ProcessWithdrawal(ctx, txn.ID, 99, ProcessWithdrawalRequest{Approve: false, Note: "account mismatch"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if processed.Status != domain.WalletTxnFailed {
		t.Fatalf("status = %s, want FAILED", processed.Status)
	}

	// rejected withdrawal releases the reserved funds
	balance, _ := svc.Balance(ctx, 7)
	if balance != 150000 {
		t.Fatalf("balance after rejection = %v, want 150000", balance)
	}
	if _, err := svc.RequestWithdrawal(ctx, 7, WithdrawalRequest{Amount: 150000}); err != nil {
		t.Fatalf("withdrawal after rejection: %v", err)
	}
}

func TestProcessWithdrawalUnknownID(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.ProcessWithdrawal(context.Background(), uuid.New(), 99, ProcessWithdrawalRequest{Approve: true}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
