package payment

import "errors"

var (
	ErrNotFound          = errors.New("payment transaction not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingNotPayable = errors.New("booking is not awaiting payment")
	ErrInvalidSignature  = errors.New("invalid gateway signature")
	ErrAmountMismatch    = errors.New("amount does not match transaction")
	ErrValidation        = errors.New("validation error")
)
