package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/vuchungbt/hotel-booking-sub000/internal/config"
	"github.com/vuchungbt/hotel-booking-sub000/internal/database"
	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
	"github.com/vuchungbt/hotel-booking-sub000/internal/modules/revenue"
	"github.com/vuchungbt/hotel-booking-sub000/internal/repository"
)

const testSecret = "testhashsecret"

type testEnv struct {
	db       *gorm.DB
	svc      *Service
	bookings *repository.BookingRepository
	hotels   *repository.HotelRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	hotelRepo := repository.NewHotelRepository(db)
	revenueSvc := revenue.NewService(bookingRepo, hotelRepo, nil)

	cfg := config.VNPayConfig{
		TmnCode:    "TESTCODE",
		HashSecret: testSecret,
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/api/v1/payments/vnpay/return",
		Expiry:     15 * time.Minute,
	}
	svc := NewService(cfg, paymentRepo, bookingRepo, revenueSvc, nil, nil)

	return &testEnv{db: db, svc: svc, bookings: bookingRepo, hotels: hotelRepo}
}

func (e *testEnv) seedBooking(t *testing.T, amount, commissionRate float64) *domain.Booking {
	t.Helper()
	if err := e.db.FirstOrCreate(&domain.Hotel{ID: 1, Name: "Riverside", OwnerID: 9, CommissionRate: commissionRate}).Error; err != nil {
		t.Fatalf("seed hotel: %v", err)
	}
	b := &domain.Booking{
		BookingReference: fmt.Sprintf("BK%d", time.Now().UnixNano()),
		HotelID:          1,
		RoomTypeID:       1,
		GuestName:        "Guest",
		CheckInDate:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOutDate:     time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Guests:           2,
		TotalAmount:      amount,
		Status:           domain.BookingPending,
		PaymentStatus:    domain.PaymentPending,
		CommissionRate:   commissionRate,
	}
	if err := e.db.Create(b).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}

func (e *testEnv) commissionEarned(t *testing.T) float64 {
	t.Helper()
	h, err := e.hotels.GetHotel(context.Background(), 1)
	if err != nil {
		t.Fatalf("reload hotel: %v", err)
	}
	return h.CommissionEarned
}

// signedCallback builds a gateway callback query with a valid signature.
func signedCallback(txnRef string, amount float64, responseCode string) url.Values {
	params := map[string]string{
		"vnp_TmnCode":           "TESTCODE",
		"vnp_TxnRef":            txnRef,
		"vnp_Amount":            fmt.Sprintf("%d", minorUnits(amount)),
		"vnp_ResponseCode":      responseCode,
		"vnp_TransactionStatus": responseCode,
		"vnp_TransactionNo":     "14422574",
		"vnp_BankCode":          "NCB",
		"vnp_CardType":          "ATM",
		"vnp_PayDate":           "20260830120000",
		"vnp_OrderInfo":         "test payment",
	}
	hash := signParams(params, testSecret)

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("vnp_SecureHash", hash)
	return q
}

func TestMinorUnitsRoundsNotTruncates(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{19.99, 1999},
		{0.29, 29},
		{500000, 50000000},
		{2500000.29, 250000029},
	}
	for _, c := range cases {
		if got := minorUnits(c.amount); got != c.want {
			t.Errorf("minorUnits(%v) = %d, want %d", c.amount, got, c.want)
		}
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	params := map[string]string{
		"vnp_TxnRef": "1-123",
		"vnp_Amount": "50000000",
	}
	params["vnp_SecureHash"] = signParams(params, testSecret)

	if !verifySignature(params, testSecret) {
		t.Fatal("valid signature rejected")
	}

	params["vnp_Amount"] = "99999999"
	if verifySignature(params, testSecret) {
		t.Fatal("tampered params accepted")
	}

	delete(params, "vnp_SecureHash")
	if verifySignature(params, testSecret) {
		t.Fatal("missing signature accepted")
	}
}

func TestCreatePaymentURL(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, 500000, 15)

	out, err := env.svc.CreatePaymentURL(context.Background(), CreatePaymentURLRequest{BookingID: b.ID}, "203.0.113.7")
	if err != nil {
		t.Fatalf("CreatePaymentURL: %v", err)
	}
	if !strings.Contains(out.PaymentURL, "vnp_SecureHash=") {
		t.Fatal("payment URL is unsigned")
	}
	if !strings.Contains(out.PaymentURL, "vnp_Amount=50000000") {
		t.Fatalf("amount not in minor units: %s", out.PaymentURL)
	}

	txn, err := env.svc.GetByTxnRef(context.Background(), out.TxnRef)
	if err != nil {
		t.Fatalf("transaction not persisted: %v", err)
	}
	if txn.Status != domain.TransactionPending {
		t.Fatalf("new transaction status = %s, want PENDING", txn.Status)
	}
	if txn.Amount != 500000 {
		t.Fatalf("transaction amount = %v, want 500000", txn.Amount)
	}
}

func TestCreatePaymentURLRejectsUnpayableBooking(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, 500000, 15)

	env.db.Model(&domain.Booking{}).Where("id = ?", b.ID).Update("payment_status", domain.PaymentPaid)
	if _, err := env.svc.CreatePaymentURL(context.Background(), CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4"); !errors.Is(err, ErrBookingNotPayable) {
		t.Fatalf("paid booking: got %v, want ErrBookingNotPayable", err)
	}

	env.db.Model(&domain.Booking{}).Where("id = ?", b.ID).
		Updates(map[string]interface{}{"payment_status": domain.PaymentPending, "status": domain.BookingCancelled})
	if _, err := env.svc.CreatePaymentURL(context.Background(), CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4"); !errors.Is(err, ErrBookingNotPayable) {
		t.Fatalf("cancelled booking: got %v, want ErrBookingNotPayable", err)
	}

	if _, err := env.svc.CreatePaymentURL(context.Background(), CreatePaymentURLRequest{BookingID: 9999}, "1.2.3.4"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("missing booking: got %v, want ErrBookingNotFound", err)
	}
}

func TestIPNThenReturnCreditsCommissionOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.seedBooking(t, 500000, 15)

	out, err := env.svc.CreatePaymentURL(ctx, CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4")
	if err != nil {
		t.Fatalf("CreatePaymentURL: %v", err)
	}

	resp := env.svc.HandleIPN(ctx, signedCallback(out.TxnRef, 500000, "00"))
	if resp.RspCode != "00" {
		t.Fatalf("IPN RspCode = %s (%s), want 00", resp.RspCode, resp.Message)
	}

	got, _ := env.bookings.GetByID(ctx, b.ID)
	if got.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("booking payment status = %s, want PAID", got.PaymentStatus)
	}
	if c := env.commissionEarned(t); c != 75000 {
		t.Fatalf("commission after IPN = %v, want 75000", c)
	}

	outcome, err := env.svc.HandleReturn(ctx, signedCallback(out.TxnRef, 500000, "00"))
	if err != nil {
		t.Fatalf("HandleReturn: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("return outcome not successful: %+v", outcome)
	}
	if c := env.commissionEarned(t); c != 75000 {
		t.Fatalf("commission after return = %v, want 75000 (credited twice)", c)
	}

	// duplicate IPN is acknowledged as already confirmed, no side effects
	resp = env.svc.HandleIPN(ctx, signedCallback(out.TxnRef, 500000, "00"))
	if resp.RspCode != "02" {
		t.Fatalf("duplicate IPN RspCode = %s, want 02", resp.RspCode)
	}
	if c := env.commissionEarned(t); c != 75000 {
		t.Fatalf("commission after duplicate IPN = %v, want 75000", c)
	}
}

func TestReturnThenIPN(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.seedBooking(t, 500000, 15)

	out, err := env.svc.CreatePaymentURL(ctx, CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4")
	if err != nil {
		t.Fatalf("CreatePaymentURL: %v", err)
	}

	outcome, err := env.svc.HandleReturn(ctx, signedCallback(out.TxnRef, 500000, "00"))
	if err != nil {
		t.Fatalf("HandleReturn: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("return outcome not successful: %+v", outcome)
	}
	if c := env.commissionEarned(t); c != 75000 {
		t.Fatalf("commission after return = %v, want 75000", c)
	}

	// the IPN arriving second records its channel but credits nothing
	resp := env.svc.HandleIPN(ctx, signedCallback(out.TxnRef, 500000, "00"))
	if resp.RspCode != "00" {
		t.Fatalf("IPN after return RspCode = %s, want 00", resp.RspCode)
	}
	if c := env.commissionEarned(t); c != 75000 {
		t.Fatalf("commission after both channels = %v, want 75000", c)
	}

	txn, _ := env.svc.GetByTxnRef(ctx, out.TxnRef)
	if !txn.IPNReceived || !txn.ReturnProcessed {
		t.Fatalf("channel flags: ipn=%v return=%v", txn.IPNReceived, txn.ReturnProcessed)
	}
}

func TestIPNErrorCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.seedBooking(t, 500000, 15)

	out, err := env.svc.CreatePaymentURL(ctx, CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4")
	if err != nil {
		t.Fatalf("CreatePaymentURL: %v", err)
	}

	// tampered signature
	q := signedCallback(out.TxnRef, 500000, "00")
	q.Set("vnp_Amount", "1")
	if resp := env.svc.HandleIPN(ctx, q); resp.RspCode != "97" {
		t.Fatalf("tampered query RspCode = %s, want 97", resp.RspCode)
	}

	// unknown transaction reference
	if resp := env.svc.HandleIPN(ctx, signedCallback("no-such-ref", 500000, "00")); resp.RspCode != "01" {
		t.Fatalf("unknown ref RspCode = %s, want 01", resp.RspCode)
	}

	// correctly signed but wrong amount
	if resp := env.svc.HandleIPN(ctx, signedCallback(out.TxnRef, 123456, "00")); resp.RspCode != "04" {
		t.Fatalf("wrong amount RspCode = %s, want 04", resp.RspCode)
	}

	// none of those may have touched the booking
	got, _ := env.bookings.GetByID(ctx, b.ID)
	if got.PaymentStatus != domain.PaymentPending {
		t.Fatalf("booking payment status = %s, want PENDING", got.PaymentStatus)
	}
}

func TestFailedAttemptThenRetrySucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.seedBooking(t, 500000, 15)

	first, err := env.svc.CreatePaymentURL(ctx, CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4")
	if err != nil {
		t.Fatalf("first URL: %v", err)
	}
	if resp := env.svc.HandleIPN(ctx, signedCallback(first.TxnRef, 500000, "24")); resp.RspCode != "00" {
		t.Fatalf("failed-payment IPN RspCode = %s, want 00", resp.RspCode)
	}

	got, _ := env.bookings.GetByID(ctx, b.ID)
	if got.PaymentStatus != domain.PaymentFailed {
		t.Fatalf("booking payment status = %s, want FAILED", got.PaymentStatus)
	}
	if c := env.commissionEarned(t); c != 0 {
		t.Fatalf("commission after failed attempt = %v, want 0", c)
	}

	// a FAILED booking can be retried with a fresh transaction reference
	second, err := env.svc.CreatePaymentURL(ctx, CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4")
	if err != nil {
		t.Fatalf("retry URL: %v", err)
	}
	if second.TxnRef == first.TxnRef {
		t.Fatal("retry reused the transaction reference")
	}
	if resp := env.svc.HandleIPN(ctx, signedCallback(second.TxnRef, 500000, "00")); resp.RspCode != "00" {
		t.Fatalf("retry IPN RspCode = %s, want 00", resp.RspCode)
	}

	got, _ = env.bookings.GetByID(ctx, b.ID)
	if got.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("booking payment status = %s, want PAID", got.PaymentStatus)
	}
	if c := env.commissionEarned(t); c != 75000 {
		t.Fatalf("commission after retry = %v, want 75000", c)
	}
}

func TestTwoSuccessfulAttemptsCreditOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.seedBooking(t, 500000, 15)

	first, _ := env.svc.CreatePaymentURL(ctx, CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4")
	second, _ := env.svc.CreatePaymentURL(ctx, CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4")

	if resp := env.svc.HandleIPN(ctx, signedCallback(first.TxnRef, 500000, "00")); resp.RspCode != "00" {
		t.Fatalf("first IPN RspCode = %s", resp.RspCode)
	}
	// the second attempt settles its own row, but the booking already left
	// PENDING, so no second commission
	if resp := env.svc.HandleIPN(ctx, signedCallback(second.TxnRef, 500000, "00")); resp.RspCode != "00" {
		t.Fatalf("second IPN RspCode = %s", resp.RspCode)
	}

	if c := env.commissionEarned(t); c != 75000 {
		t.Fatalf("commission = %v, want 75000 exactly once", c)
	}
}

func TestFractionalAmountReconciles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.seedBooking(t, 2500000.29, 15)

	out, err := env.svc.CreatePaymentURL(ctx, CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4")
	if err != nil {
		t.Fatalf("CreatePaymentURL: %v", err)
	}

	u, err := url.Parse(out.PaymentURL)
	if err != nil {
		t.Fatalf("parse payment URL: %v", err)
	}
	// 2500000.29*100 is 250000028.999... in float64; a truncating encoding
	// would send an amount the booking can never reconcile against
	if got := u.Query().Get("vnp_Amount"); got != "250000029" {
		t.Fatalf("vnp_Amount = %s, want 250000029", got)
	}

	if resp := env.svc.HandleIPN(ctx, signedCallback(out.TxnRef, 2500000.29, "00")); resp.RspCode != "00" {
		t.Fatalf("fractional IPN RspCode = %s (%s), want 00", resp.RspCode, resp.Message)
	}
	got, _ := env.bookings.GetByID(ctx, b.ID)
	if got.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("booking payment status = %s, want PAID", got.PaymentStatus)
	}
	if c := env.commissionEarned(t); c != 375000.04 {
		t.Fatalf("commission = %v, want 375000.04", c)
	}
}

func TestIPNRetriesAfterSettlementFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// the booking references a hotel that does not exist yet, so the
	// commission credit inside settlement fails
	b := &domain.Booking{
		BookingReference: fmt.Sprintf("BK%d", time.Now().UnixNano()),
		HotelID:          2,
		RoomTypeID:       1,
		GuestName:        "Guest",
		CheckInDate:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOutDate:     time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Guests:           2,
		TotalAmount:      500000,
		Status:           domain.BookingPending,
		PaymentStatus:    domain.PaymentPending,
		CommissionRate:   15,
	}
	if err := env.db.Create(b).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	out, err := env.svc.CreatePaymentURL(ctx, CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4")
	if err != nil {
		t.Fatalf("CreatePaymentURL: %v", err)
	}

	if resp := env.svc.HandleIPN(ctx, signedCallback(out.TxnRef, 500000, "00")); resp.RspCode != "99" {
		t.Fatalf("IPN with failing settlement RspCode = %s, want 99", resp.RspCode)
	}

	// the failed settlement must not consume the claim or move the booking
	txn, _ := env.svc.GetByTxnRef(ctx, out.TxnRef)
	if txn.IPNReceived || txn.Status != domain.TransactionPending {
		t.Fatalf("claim consumed despite settlement failure: ipn=%v status=%s", txn.IPNReceived, txn.Status)
	}
	got, _ := env.bookings.GetByID(ctx, b.ID)
	if got.PaymentStatus != domain.PaymentPending {
		t.Fatalf("booking payment status = %s, want PENDING", got.PaymentStatus)
	}

	// once the hotel exists, the gateway's retry settles everything
	if err := env.db.Create(&domain.Hotel{ID: 2, Name: "Hillside", OwnerID: 9, CommissionRate: 15}).Error; err != nil {
		t.Fatalf("seed hotel: %v", err)
	}
	if resp := env.svc.HandleIPN(ctx, signedCallback(out.TxnRef, 500000, "00")); resp.RspCode != "00" {
		t.Fatalf("retry IPN RspCode = %s (%s), want 00", resp.RspCode, resp.Message)
	}
	got, _ = env.bookings.GetByID(ctx, b.ID)
	if got.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("booking payment status after retry = %s, want PAID", got.PaymentStatus)
	}
	h, err := env.hotels.GetHotel(ctx, 2)
	if err != nil {
		t.Fatalf("reload hotel: %v", err)
	}
	if h.CommissionEarned != 75000 {
		t.Fatalf("commission after retry = %v, want 75000", h.CommissionEarned)
	}
}

func TestReturnSignatureAndAmountErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.seedBooking(t, 500000, 15)

	out, _ := env.svc.CreatePaymentURL(ctx, CreatePaymentURLRequest{BookingID: b.ID}, "1.2.3.4")

	q := signedCallback(out.TxnRef, 500000, "00")
	q.Set("vnp_SecureHash", "deadbeef")
	if _, err := env.svc.HandleReturn(ctx, q); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("bad signature: got %v, want ErrInvalidSignature", err)
	}

	if _, err := env.svc.HandleReturn(ctx, signedCallback("no-such-ref", 500000, "00")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown ref: got %v, want ErrNotFound", err)
	}

	if _, err := env.svc.HandleReturn(ctx, signedCallback(out.TxnRef, 1, "00")); !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("wrong amount: got %v, want ErrAmountMismatch", err)
	}
}
