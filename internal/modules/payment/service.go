package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"gorm.io/gorm"

	"github.com/vuchungbt/hotel-booking-sub000/internal/config"
	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
	"github.com/vuchungbt/hotel-booking-sub000/internal/repository"
)

type Service struct {
	cfg      config.VNPayConfig
	payments PaymentStore
	bookings BookingStore
	revenue  RevenueRecorder
	events   EventPublisher
	loggerf  func(format string, args ...interface{})
	now      func() time.Time
}

func NewService(cfg config.VNPayConfig, payments PaymentStore, bookings BookingStore, revenue RevenueRecorder, events EventPublisher, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		cfg:      cfg,
		payments: payments,
		bookings: bookings,
		revenue:  revenue,
		events:   events,
		loggerf:  loggerf,
		now:      time.Now,
	}
}

// CreatePaymentURL issues a fresh gateway transaction for a booking that is
// still awaiting payment. Each call mints a new transaction reference, so a
// retry after a FAILED attempt gets a clean row at the gateway.
func (s *Service) CreatePaymentURL(ctx context.Context, req CreatePaymentURLRequest, clientIP string) (*CreatePaymentURLResponse, error) {
	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.Status == domain.BookingCancelled {
		return nil, ErrBookingNotPayable
	}
	if b.PaymentStatus != domain.PaymentPending && b.PaymentStatus != domain.PaymentFailed {
		return nil, ErrBookingNotPayable
	}

	now := s.now()
	txn := &domain.PaymentTransaction{
		TxnRef:    fmt.Sprintf("%d-%d", b.ID, now.UnixNano()),
		BookingID: b.ID,
		Amount:    b.TotalAmount,
		OrderInfo: fmt.Sprintf("Payment for booking %s", b.BookingReference),
		Status:    domain.TransactionPending,
	}

	paymentURL, expiresAt := buildPaymentURL(s.cfg, txn.TxnRef, txn.OrderInfo, clientIP, req.BankCode, req.Locale, txn.Amount, now)
	txn.PaymentURL = paymentURL

	if err := s.payments.Create(ctx, txn); err != nil {
		return nil, err
	}

	return &CreatePaymentURLResponse{
		PaymentURL: paymentURL,
		TxnRef:     txn.TxnRef,
		Amount:     txn.Amount,
		ExpiresAt:  expiresAt.Format(time.RFC3339),
	}, nil
}

// HandleIPN processes the server-to-server notification. It always answers
// in the gateway's fixed response vocabulary; failures are reported through
// RspCode, never through HTTP errors.
func (s *Service) HandleIPN(ctx context.Context, query url.Values) IPNResponse {
	params := flattenQuery(query)

	if !verifySignature(params, s.cfg.HashSecret) {
		return IPNResponse{RspCode: "97", Message: "Invalid signature"}
	}

	txn, err := s.payments.GetByTxnRef(ctx, params["vnp_TxnRef"])
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return IPNResponse{RspCode: "01", Message: "Order not found"}
		}
		s.loggerf("level=error msg=ipn transaction lookup failed txn_ref=%s err=%v", params["vnp_TxnRef"], err)
		return IPNResponse{RspCode: "99", Message: "Unknown error"}
	}

	amount, ok := callbackAmount(params)
	if !ok || !amountsEqual(amount, txn.Amount) {
		return IPNResponse{RspCode: "04", Message: "Invalid amount"}
	}

	if txn.IPNReceived {
		return IPNResponse{RspCode: "02", Message: "Order already confirmed"}
	}

	success := callbackSucceeded(params)
	target := domain.TransactionFailed
	if success {
		target = domain.TransactionPaid
	}

	txnRef := txn.TxnRef
	applied, txn, err := s.payments.Apply(ctx, txnRef, target, gatewayResult(params, query), repository.ChannelIPN, s.settleFn(success))
	if err != nil {
		s.loggerf("level=error msg=ipn settlement failed txn_ref=%s err=%v", txnRef, err)
		return IPNResponse{RspCode: "99", Message: "Unknown error"}
	}
	if applied {
		s.publishSettled(txn, success)
	}
	return IPNResponse{RspCode: "00", Message: "Confirm success"}
}

// HandleReturn processes the browser redirect. When the IPN already applied
// the transaction, this only marks the return channel and reports the
// stored outcome; side effects never run twice.
func (s *Service) HandleReturn(ctx context.Context, query url.Values) (*ReturnOutcome, error) {
	params := flattenQuery(query)

	if !verifySignature(params, s.cfg.HashSecret) {
		return nil, ErrInvalidSignature
	}

	txn, err := s.payments.GetByTxnRef(ctx, params["vnp_TxnRef"])
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	amount, ok := callbackAmount(params)
	if !ok || !amountsEqual(amount, txn.Amount) {
		return nil, ErrAmountMismatch
	}

	if txn.ReturnProcessed {
		return s.outcome(ctx, txn), nil
	}

	success := callbackSucceeded(params)
	target := domain.TransactionFailed
	if success {
		target = domain.TransactionPaid
	}

	applied, txn, err := s.payments.Apply(ctx, txn.TxnRef, target, gatewayResult(params, query), repository.ChannelReturn, s.settleFn(success))
	if err != nil {
		return nil, err
	}
	if applied {
		s.publishSettled(txn, success)
	}
	return s.outcome(ctx, txn), nil
}

func (s *Service) GetByTxnRef(ctx context.Context, txnRef string) (*domain.PaymentTransaction, error) {
	txn, err := s.payments.GetByTxnRef(ctx, txnRef)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return txn, err
}

func (s *Service) ListByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentTransaction, error) {
	return s.payments.ListByBooking(ctx, bookingID)
}

// settleFn builds the settlement step that runs inside the claim
// transaction: the booking's payment-status transition plus, when the
// booking newly moved to PAID, the commission credit. Everything commits or
// rolls back with the claim itself, so a settlement failure leaves the
// claim unconsumed and the gateway's retry repeats the whole thing. The
// commission is credited only when the booking actually changed state, so
// a second successful attempt against an already-paid booking credits
// nothing.
func (s *Service) settleFn(success bool) repository.SettleFunc {
	return func(tx *gorm.DB, txn *domain.PaymentTransaction) error {
		target := domain.PaymentFailed
		if success {
			target = domain.PaymentPaid
		}
		b, changed, err := s.bookings.TransitionPaymentStatusTx(tx, txn.BookingID, target)
		if err != nil {
			return err
		}
		if success && changed {
			return s.revenue.CreditBookingCommission(tx, b)
		}
		return nil
	}
}

// publishSettled fires after the claim transaction has committed.
func (s *Service) publishSettled(txn *domain.PaymentTransaction, success bool) {
	if success {
		s.publish("payment.succeeded", txn)
	} else {
		s.publish("payment.failed", txn)
	}
}

func (s *Service) outcome(ctx context.Context, txn *domain.PaymentTransaction) *ReturnOutcome {
	out := &ReturnOutcome{
		Success:      txn.Status == domain.TransactionPaid,
		TxnRef:       txn.TxnRef,
		BookingID:    txn.BookingID,
		Amount:       txn.Amount,
		ResponseCode: txn.ResponseCode,
	}
	if out.Success {
		out.Message = "Payment successful"
	} else {
		out.Message = "Payment was not completed"
	}
	if b, err := s.bookings.GetByID(ctx, txn.BookingID); err == nil {
		out.BookingReference = b.BookingReference
	}
	return out
}

func (s *Service) publish(event string, txn *domain.PaymentTransaction) {
	if s.events == nil {
		return
	}
	s.events.Publish(event, map[string]interface{}{
		"txn_ref":    txn.TxnRef,
		"booking_id": txn.BookingID,
		"amount":     txn.Amount,
		"status":     txn.Status,
	})
}

func gatewayResult(params map[string]string, query url.Values) repository.GatewayResult {
	return repository.GatewayResult{
		ResponseCode:  params["vnp_ResponseCode"],
		TransactionNo: params["vnp_TransactionNo"],
		BankCode:      params["vnp_BankCode"],
		CardType:      params["vnp_CardType"],
		PayDate:       params["vnp_PayDate"],
		RawQuery:      query.Encode(),
	}
}

// amountsEqual compares monetary values with a half-cent tolerance so the
// round trip through minor units never produces a false mismatch.
func amountsEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}
