package payment

// CreatePaymentURLRequest asks for a fresh gateway URL for a booking. A
// retry after a failed attempt issues a new transaction reference.
type CreatePaymentURLRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	BankCode  string `json:"bank_code"`
	Locale    string `json:"locale"`
}

type CreatePaymentURLResponse struct {
	PaymentURL string  `json:"payment_url"`
	TxnRef     string  `json:"txn_ref"`
	Amount     float64 `json:"amount"`
	ExpiresAt  string  `json:"expires_at"`
}

// IPNResponse is the fixed-vocabulary body the gateway expects back from
// the server-to-server notification. Always returned with HTTP 200.
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// ReturnOutcome is what the browser-facing return handler reports to the
// frontend after verifying the redirect.
type ReturnOutcome struct {
	Success          bool    `json:"success"`
	TxnRef           string  `json:"txn_ref"`
	BookingID        int64   `json:"booking_id"`
	BookingReference string  `json:"booking_reference,omitempty"`
	Amount           float64 `json:"amount"`
	ResponseCode     string  `json:"response_code"`
	Message          string  `json:"message"`
}
