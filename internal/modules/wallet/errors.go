package wallet

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("wallet transaction not found")
	ErrNoBankAccount       = errors.New("no bank account on file")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrNotPending          = errors.New("withdrawal is not pending")
)
