package services

import "errors"

// Sentinel errors for the business states the handlers translate into
// HTTP statuses. Store-layer failures are wrapped and surfaced as generic
// internal errors instead.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrTokenExpired       = errors.New("token has expired")
	ErrNotOrderOwner      = errors.New("order belongs to another user")
	ErrInvalidTransition  = errors.New("illegal order status transition")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
