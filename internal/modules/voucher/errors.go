package voucher

import "errors"

var (
	ErrNotFound       = errors.New("voucher not found")
	ErrNotUsable      = errors.New("voucher is not usable")
	ErrNotApplicable  = errors.New("voucher does not apply to this hotel")
	ErrBelowMinAmount = errors.New("booking amount below voucher minimum")
	ErrAlreadyUsed    = errors.New("voucher already used by this user")
	ErrValidation     = errors.New("validation error")
	ErrDuplicateCode  = errors.New("voucher code already exists")
	ErrUsageNotFound  = errors.New("voucher usage not found")
)
