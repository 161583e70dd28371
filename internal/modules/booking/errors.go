package booking

import "errors"

var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("booking not found")
	ErrForbidden               = errors.New("forbidden")
	ErrNotAvailable            = errors.New("room type not available for the requested dates")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrVoucherRequiresUser     = errors.New("voucher can only be applied by a registered user")
)
