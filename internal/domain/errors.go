package domain

import "errors"

// Domain errors
var (
	ErrAlreadyExists        = errors.New("resource already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already in use")
	ErrInvalidEmail         = errors.New("invalid email")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrPasswordTooLong      = errors.New("password too long")
	ErrPasswordUnchanged    = errors.New("new password must differ from the current one")
	ErrInvalidRecoveryToken = errors.New("invalid or expired recovery token")
	ErrCompanyNotFound      = errors.New("company not found")
	ErrInvalidTaxID         = errors.New("invalid tax id")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryKindMismatch = errors.New("transaction kind does not match category kind")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrDescriptionRequired  = errors.New("description is required")
	ErrDescriptionTooLong   = errors.New("description exceeds maximum length")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidKind          = errors.New("invalid transaction kind")
	ErrInvalidStatus        = errors.New("invalid transaction status")
	ErrDateRequired         = errors.New("date is required")
	ErrNameRequired         = errors.New("name is required")
	ErrNameTooLong          = errors.New("name exceeds maximum length")
	ErrEmptyPatch           = errors.New("no fields to update")
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 255
	MinPasswordLength    = 8
	MaxPasswordLength    = 72 // bcrypt input limit in bytes
)
