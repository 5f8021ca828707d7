package errors

import "errors"

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInvalidWalletInput  = errors.New("invalid wallet input")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNegativeBalance     = errors.New("wallet balance cannot be negative")
	ErrConflict            = errors.New("conflict")
)
