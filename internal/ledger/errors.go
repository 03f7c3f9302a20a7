package ledger

import (
	"errors"

	"github.com/kislikjeka/wizmoney/internal/platform/currency"
)

// Transaction errors
var (
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAmount          = errors.New("amount must be a positive number")
	ErrMissingAccount         = errors.New("transaction must reference an account")
	ErrSameAccountTransfer    = errors.New("transfer source and destination must differ")
	ErrMissingCategory        = errors.New("category is required")
	ErrInvalidDate            = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidTime            = errors.New("time must be formatted as HH:MM")
	ErrTransactionNotFound    = errors.New("transaction not found")
)

// Account errors
var (
	ErrMissingAccountName = errors.New("account name is required")
	ErrAccountNotFound    = errors.New("account not found")
)

// Template errors
var (
	ErrTemplateNotFound = errors.New("template not found")
)

// Settings errors
var (
	ErrInvalidRate     = currency.ErrInvalidRate
	ErrInvalidCurrency = currency.ErrInvalidCurrency
)

// Snapshot errors
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
