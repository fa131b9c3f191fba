package models

import "errors"

// Sentinel errors shared by both services. Handlers translate these into
// transport status codes; everything else is treated as an internal error.
var (
	// ErrNotFound is returned by single-entity lookups that miss.
	ErrNotFound = errors.New("not found")

	// ErrEmailExists is returned when creating a user with an email that is
	// already registered.
	ErrEmailExists = errors.New("user with this email already exists")

	// ErrUserInactive is returned when creating an order for a deactivated user.
	ErrUserInactive = errors.New("cannot create order for inactive user")

	// ErrInvalidAmount is returned when an order amount is zero or negative.
	ErrInvalidAmount = errors.New("order amount must be greater than zero")

	// ErrInvalidStatus is returned for a status string outside the closed
	// five-value set.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrPeerUnavailable is returned when the peer service cannot be reached
	// or answers with a server error.
	ErrPeerUnavailable = errors.New("external service unavailable")
)
