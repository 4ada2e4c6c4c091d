package domain

import "errors"

var (
	// ErrInvalidInput is returned for missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserNotFound is returned when an operation requires an existing user.
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientFunds is returned when the balance cannot cover a floor purchase.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidFloorNumber is returned when a purchase is not for the next sequential floor.
	ErrInvalidFloorNumber = errors.New("invalid floor number")

	// ErrStoreUnavailable is returned when the persistent store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)
