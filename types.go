// Package stealth implements an EIP-5564-style stealth-address
// protocol: a payer derives a one-time receiving address for a payee
// from the payee's published public keys, and the payee later
// recognizes and proves ownership of funds sent there using a private
// viewing key.
//
// The package composes the secp256k1 key-pair engine with a KeyRegistry
// collaborator. It holds no key custody beyond in-memory key pairs:
// private scalars live only on the call stack unless the caller chooses
// to persist them.
package stealth

import (
	"context"
	"math/big"

	"github.com/shakesco/shakesco-private/secp256k1"
)

// StealthKeys is the registry read result: the recipient's published
// spending and viewing public keys, each a 65-byte uncompressed key in
// hex. A zero value for either key means the identity has not
// registered.
type StealthKeys struct {
	SpendingPublicKey string `json:"spendingPublicKey"`
	ViewingPublicKey  string `json:"viewingPublicKey"`
}

// Registered reports whether both keys are present and non-zero.
func (k *StealthKeys) Registered() bool {
	return !isZeroKey(k.SpendingPublicKey) && !isZeroKey(k.ViewingPublicKey)
}

// RegistrationKeys is the compressed-form argument set for a registry
// write: sign prefixes (2 or 3) and 32-byte x-coordinates for the
// spending and viewing keys. The core produces these values; submitting
// the registration transaction is the caller's responsibility.
type RegistrationKeys struct {
	SpendingPrefix  byte   `json:"spendingPrefix"`
	SpendingPubKeyX string `json:"spendingPubKeyX"`
	ViewingPrefix   byte   `json:"viewingPrefix"`
	ViewingPubKeyX  string `json:"viewingPubKeyX"`
}

// KeyPairs bundles the two key pairs that make up one stealth identity.
type KeyPairs struct {
	// Spending authorizes spending funds at derived stealth addresses.
	Spending *secp256k1.KeyPair
	// Viewing only decrypts announcements and detects incoming funds;
	// it cannot spend.
	Viewing *secp256k1.KeyPair
}

// Announcement is the external event record published alongside a
// stealth transfer. It is consumed, never produced, by this package and
// is immutable once observed.
type Announcement struct {
	// EphemeralPubKeyX is the 32-byte x-coordinate of the sender's
	// ephemeral public key. The sign prefix is discarded by design.
	EphemeralPubKeyX string `json:"ephemeralPubKeyX"`
	// Ciphertext is the 32-byte encrypted random number.
	Ciphertext string `json:"ciphertext"`
	// ReceiverAddress is the 20-byte stealth address funds went to.
	ReceiverAddress string `json:"receiverAddress"`
	// TokenAddress identifies the transferred asset.
	TokenAddress string `json:"tokenAddress"`
	// AmountOrID is the token amount, or the token ID for NFTs.
	AmountOrID *big.Int `json:"amountOrId"`
}

// SendOutput is the result of PrepareSend. The caller transfers funds
// to the stealth key pair's address and publishes EphemeralPubKeyX and
// the payload ciphertext alongside the transfer.
type SendOutput struct {
	// StealthKeyPair is the public-key-only pair for the one-time
	// receiving address.
	StealthKeyPair *secp256k1.KeyPair
	// EphemeralPubKeyX is the compressed x-coordinate to announce.
	EphemeralPubKeyX string
	// Payload is the encrypted random number; its ciphertext is
	// announced with the transfer.
	Payload *secp256k1.EncryptedPayload
}

// ScanResult is the outcome of checking one announcement. Verification
// failures are folded into a non-match with a reason instead of an
// error so a scan over many announcements never aborts on an unrelated
// or malformed one.
type ScanResult struct {
	// Match is true when the announcement pays the scanning user.
	Match bool `json:"match"`
	// Reason explains a non-match; empty on a match.
	Reason string `json:"reason,omitempty"`

	// StealthAddress is the candidate address recomputed during the
	// scan; on a match it equals the announcement's receiver address.
	StealthAddress string `json:"stealthAddress,omitempty"`
	// RandomNumber is the decrypted random number hex on a match; it is
	// the scalar needed to compute the stealth private key.
	RandomNumber string `json:"randomNumber,omitempty"`

	// Passthrough announcement fields for caller convenience.
	TokenAddress     string   `json:"tokenAddress,omitempty"`
	AmountOrID       *big.Int `json:"amountOrId,omitempty"`
	EphemeralPubKeyX string   `json:"ephemeralPubKeyX,omitempty"`
}

// KeyRegistry is the external collaborator storing published stealth
// public keys per identity. Implementations are expected to be safe for
// concurrent use.
type KeyRegistry interface {
	// GetStealthKeys returns the published keys for an identity. A
	// result with zero-valued keys means the identity never registered.
	GetStealthKeys(ctx context.Context, identity string) (*StealthKeys, error)

	// SetStealthKeys publishes compressed-form keys for the calling
	// identity (externally-owned accounts only; smart accounts build
	// their own call from PrepareRegistrationKeys output).
	SetStealthKeys(ctx context.Context, keys *RegistrationKeys) error
}

// isZeroKey reports whether a hex-encoded key is absent or all zeros.
func isZeroKey(s string) bool {
	if s == "" || s == "0x" {
		return true
	}
	for _, c := range s {
		switch c {
		case '0', 'x', 'X':
		default:
			return false
		}
	}
	return true
}
