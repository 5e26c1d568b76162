package secp256k1

import "errors"

// Sentinel errors - key construction and use
var (
	// ErrInvalidKey is returned for malformed or out-of-range key input.
	ErrInvalidKey = errors.New("secp256k1: invalid key")

	// ErrMissingPrivateKey is returned when an operation requiring a
	// private scalar is invoked on a public-key-only instance. This is
	// a programming-contract violation, not a recoverable condition.
	ErrMissingPrivateKey = errors.New("secp256k1: key pair has no private key")

	// ErrInvalidScalar is returned when a scalar multiplication operand
	// is absent or congruent to zero modulo the curve order.
	ErrInvalidScalar = errors.New("secp256k1: invalid scalar")

	// ErrInvalidPayload is returned when Decrypt is called with an
	// incomplete or malformed encrypted payload.
	ErrInvalidPayload = errors.New("secp256k1: invalid encrypted payload")
)
