package stealth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shakesco/shakesco-private/internal/hexutil"
	"github.com/shakesco/shakesco-private/secp256k1"
)

// Client orchestrates the stealth protocol operations against a key
// registry. It holds no mutable state of its own: every operation is a
// pure function of its inputs plus one registry read, so a Client is
// safe for concurrent use.
type Client struct {
	registry KeyRegistry
}

// NewClient creates a protocol client backed by the given registry.
func NewClient(registry KeyRegistry) *Client {
	return &Client{registry: registry}
}

// GenerateKeyPairs deterministically derives a spending and a viewing
// key pair from one 65-byte r||s||v ECDSA signature. Re-signing the
// same fixed message regenerates the same keys on demand, so nothing
// needs to be stored.
//
// r and s are computationally unrelated outputs of the signing
// algorithm, so hashing them separately yields two independent scalars.
// The recovery byte v contributes nothing and is discarded.
func GenerateKeyPairs(signature string) (*KeyPairs, error) {
	if !hexutil.Has0xPrefix(signature) || len(signature) != 2+2*hexutil.SignatureLen {
		return nil, fmt.Errorf("%w: want 65 bytes of 0x-prefixed hex, got %d characters",
			ErrSignatureFormat, len(signature))
	}
	sig, err := hexutil.DecodeFixed(signature, hexutil.SignatureLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureFormat, err)
	}

	r := sig[0:32]
	s := sig[32:64]
	v := sig[64]

	// Reassemble the pieces and require an exact match with the input.
	// This catches off-by-one slicing and confirms the signature
	// encodes exactly 65 bytes.
	reassembled := "0x" + hex.EncodeToString(r) + hex.EncodeToString(s) + hex.EncodeToString([]byte{v})
	if !strings.EqualFold(reassembled, signature) {
		return nil, fmt.Errorf("%w: signature does not reassemble from its parts", ErrSignatureFormat)
	}

	spendingSeed := sha256.Sum256(r)
	viewingSeed := sha256.Sum256(s)

	spending, err := secp256k1.NewFromPrivate(hexutil.Encode(spendingSeed[:]))
	if err != nil {
		return nil, fmt.Errorf("derive spending key: %w", err)
	}
	viewing, err := secp256k1.NewFromPrivate(hexutil.Encode(viewingSeed[:]))
	if err != nil {
		return nil, fmt.Errorf("derive viewing key: %w", err)
	}

	return &KeyPairs{Spending: spending, Viewing: viewing}, nil
}

// PrepareRegistrationKeys splits two uncompressed public keys into the
// compressed-form arguments a registry write takes. Pure transform, no
// network effect: smart-account callers use the result to build an
// arbitrary on-chain call themselves.
func PrepareRegistrationKeys(spendingPublicKey, viewingPublicKey string) (*RegistrationKeys, error) {
	spending, err := secp256k1.NewFromPublic(spendingPublicKey)
	if err != nil {
		return nil, fmt.Errorf("spending public key: %w", err)
	}
	viewing, err := secp256k1.NewFromPublic(viewingPublicKey)
	if err != nil {
		return nil, fmt.Errorf("viewing public key: %w", err)
	}

	spendingPrefix, spendingX := spending.Compressed()
	viewingPrefix, viewingX := viewing.Compressed()
	return &RegistrationKeys{
		SpendingPrefix:  spendingPrefix,
		SpendingPubKeyX: spendingX,
		ViewingPrefix:   viewingPrefix,
		ViewingPubKeyX:  viewingX,
	}, nil
}

// PrepareSend derives everything a sender needs for one stealth
// transfer to a registered recipient: the one-time stealth key pair to
// pay, and the ephemeral x-coordinate plus ciphertext to announce.
func (c *Client) PrepareSend(ctx context.Context, recipient string) (*SendOutput, error) {
	keys, err := c.registry.GetStealthKeys(ctx, recipient)
	if err != nil {
		return nil, WrapRegistryError("fetch", recipient, err)
	}
	if keys == nil || !keys.Registered() {
		return nil, fmt.Errorf("%w: %s", ErrRecipientNotRegistered, recipient)
	}

	viewingPub, err := secp256k1.NewFromPublic(keys.ViewingPublicKey)
	if err != nil {
		return nil, fmt.Errorf("registered viewing key: %w", err)
	}
	spendingPub, err := secp256k1.NewFromPublic(keys.SpendingPublicKey)
	if err != nil {
		return nil, fmt.Errorf("registered spending key: %w", err)
	}

	rn, err := secp256k1.NewRandomNumber()
	if err != nil {
		return nil, err
	}

	payload, err := viewingPub.Encrypt(rn)
	if err != nil {
		return nil, err
	}

	// Only the x-coordinate of the ephemeral key is announced; the sign
	// prefix is discarded by design and reconstructed under an even-y
	// assumption on the scanning side.
	ephemeral, err := secp256k1.NewFromPublic(payload.EphemeralPublicKey)
	if err != nil {
		return nil, err
	}
	_, ephemeralX := ephemeral.Compressed()

	stealthPair, err := spendingPub.MulPublicKey(rn.Big())
	if err != nil {
		return nil, err
	}

	return &SendOutput{
		StealthKeyPair:   stealthPair,
		EphemeralPubKeyX: ephemeralX,
		Payload:          payload,
	}, nil
}

// VerifyAnnouncement checks whether one announcement pays the user
// holding viewingPrivateKey. The recipient argument is the registry
// identity whose published spending key the transfer would have been
// derived against — the scanning user's own registered identity. Any
// other identity's keys cannot reproduce the receiver address and yield
// a non-match.
//
// Any failure in lookup, decryption, or input parsing is converted into
// a non-match result rather than an error: this operation runs
// unattended over streams of announcements, most of which are not for
// the caller, and a single malformed or unrelated announcement must not
// abort the scan.
func (c *Client) VerifyAnnouncement(ctx context.Context, ann *Announcement, viewingPrivateKey, recipient string) ScanResult {
	noMatch := func(format string, args ...any) ScanResult {
		return ScanResult{
			Match:            false,
			Reason:           fmt.Sprintf(format, args...),
			TokenAddress:     ann.TokenAddress,
			AmountOrID:       ann.AmountOrID,
			EphemeralPubKeyX: ann.EphemeralPubKeyX,
		}
	}

	viewing, err := secp256k1.NewFromPrivate(viewingPrivateKey)
	if err != nil {
		return noMatch("viewing key: %v", err)
	}

	// Reconstruct the ephemeral key from x alone. The even-y default is
	// sound here because the shared secret ignores the sign prefix.
	ephemeral, err := secp256k1.NewFromX(ann.EphemeralPubKeyX)
	if err != nil {
		return noMatch("ephemeral key: %v", err)
	}

	rn, err := viewing.Decrypt(&secp256k1.EncryptedPayload{
		EphemeralPublicKey: ephemeral.PublicKeyHex(),
		Ciphertext:         ann.Ciphertext,
	})
	if err != nil {
		return noMatch("decrypt: %v", err)
	}

	keys, err := c.registry.GetStealthKeys(ctx, recipient)
	if err != nil {
		return noMatch("registry: %v", err)
	}
	if keys == nil || !keys.Registered() {
		return noMatch("%s has no registered stealth keys", recipient)
	}

	spendingPub, err := secp256k1.NewFromPublic(keys.SpendingPublicKey)
	if err != nil {
		return noMatch("registered spending key: %v", err)
	}
	candidate, err := spendingPub.MulPublicKey(rn.Big())
	if err != nil {
		return noMatch("derive candidate address: %v", err)
	}

	candidateAddr := candidate.Address()
	if !strings.EqualFold(candidateAddr, ann.ReceiverAddress) {
		return noMatch("announcement is not for this user")
	}

	return ScanResult{
		Match:            true,
		StealthAddress:   candidateAddr,
		RandomNumber:     rn.Hex(),
		TokenAddress:     ann.TokenAddress,
		AmountOrID:       ann.AmountOrID,
		EphemeralPubKeyX: ann.EphemeralPubKeyX,
	}
}

// ComputeStealthKey derives the private key that spends funds at a
// stealth address, given the owner's spending private key and the
// random number recovered from the matching announcement.
func ComputeStealthKey(spendingPrivateKey string, randomNumber *secp256k1.RandomNumber) (*secp256k1.KeyPair, error) {
	if randomNumber == nil {
		return nil, secp256k1.ErrInvalidScalar
	}
	spending, err := secp256k1.NewFromPrivate(spendingPrivateKey)
	if err != nil {
		return nil, err
	}
	return spending.MulPrivateKey(randomNumber.Big())
}
