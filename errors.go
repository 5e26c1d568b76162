package stealth

import (
	"errors"
	"fmt"
)

// Sentinel errors - protocol inputs
var (
	// ErrSignatureFormat is returned when the key-derivation signature
	// is not exactly 65 bytes of hex or does not survive the split and
	// reassembly check. The input is deterministically wrong; retrying
	// with the same signature cannot succeed.
	ErrSignatureFormat = errors.New("stealth: malformed signature")

	// ErrInvalidAnnouncement is returned when an announcement field has
	// the wrong width or is not valid hex.
	ErrInvalidAnnouncement = errors.New("stealth: malformed announcement")
)

// Sentinel errors - registry
var (
	// ErrRecipientNotRegistered is returned when the registry holds no
	// published stealth keys for the recipient. The sender should
	// prompt the recipient to register before retrying.
	ErrRecipientNotRegistered = errors.New("stealth: recipient has not registered stealth keys")

	// ErrRegistryUnavailable is returned when the registry collaborator
	// cannot be reached. Retry with backoff is the caller's decision;
	// nothing is retried internally.
	ErrRegistryUnavailable = errors.New("stealth: key registry unavailable")
)

// RegistryError wraps a registry failure with operation context.
type RegistryError struct {
	Identity string
	Op       string
	Err      error
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	return fmt.Sprintf("%s stealth keys for %q: %v", e.Op, e.Identity, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chaining.
func (e *RegistryError) Unwrap() error {
	return e.Err
}

// WrapRegistryError wraps an error with registry operation context.
// Returns nil if the provided error is nil.
func WrapRegistryError(op, identity string, err error) error {
	if err == nil {
		return nil
	}
	return &RegistryError{Identity: identity, Op: op, Err: err}
}
