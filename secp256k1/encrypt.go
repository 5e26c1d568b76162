package secp256k1

import (
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/shakesco/shakesco-private/internal/hexutil"
)

// EncryptedPayload carries an ECDH-encrypted random number: the
// sender's one-time ephemeral public key (65-byte uncompressed hex) and
// the 32-byte XOR ciphertext.
type EncryptedPayload struct {
	EphemeralPublicKey string `json:"ephemeralPublicKey"`
	Ciphertext         string `json:"ciphertext"`
}

// Encrypt encrypts a random number under this instance's public point.
// It generates an ephemeral key pair, computes the ECDH shared secret
// against the public point, and XORs the random number with it. Only a
// public point is required, so a sender can encrypt to a recipient
// whose private key they do not hold.
func (k *KeyPair) Encrypt(rn *RandomNumber) (*EncryptedPayload, error) {
	if rn == nil {
		return nil, fmt.Errorf("%w: random number is required", ErrInvalidPayload)
	}
	ephemeral, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}

	secret, err := sharedSecret(new(big.Int).SetBytes(ephemeral.Serialize()), k.pub)
	if err != nil {
		return nil, err
	}

	ciphertext := make([]byte, hexutil.CiphertextLen)
	subtle.XORBytes(ciphertext, rn.Bytes(), secret)

	return &EncryptedPayload{
		EphemeralPublicKey: hexutil.Encode(ephemeral.PubKey().SerializeUncompressed()),
		Ciphertext:         hexutil.Encode(ciphertext),
	}, nil
}

// Decrypt recovers the random number from a payload encrypted under
// this instance's public point. It requires the private scalar: the
// ECDH shared secret is recomputed from the payload's ephemeral public
// key and XORed with the ciphertext.
func (k *KeyPair) Decrypt(payload *EncryptedPayload) (*RandomNumber, error) {
	if k.priv == nil {
		return nil, ErrMissingPrivateKey
	}
	if payload == nil || payload.EphemeralPublicKey == "" || payload.Ciphertext == "" {
		return nil, fmt.Errorf("%w: ephemeral public key and ciphertext are required", ErrInvalidPayload)
	}

	ephBytes, err := hexutil.DecodeFixed(payload.EphemeralPublicKey, hexutil.UncompressedKeyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	ephemeral, err := btcec.ParsePubKey(ephBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	ciphertext, err := hexutil.DecodeFixed(payload.Ciphertext, hexutil.CiphertextLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	secret, err := sharedSecret(k.priv, ephemeral)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, hexutil.ScalarLen)
	subtle.XORBytes(plaintext, ciphertext, secret)
	return &RandomNumber{value: new(big.Int).SetBytes(plaintext)}, nil
}

// sharedSecret derives the 32-byte symmetric secret from one party's
// private scalar and the other party's public point.
//
// Protocol invariant: the secret depends only on the x-coordinate of
// the ECDH point. The hashed encoding is an uncompressed-style prefix
// byte (0x04) followed by the 32-byte x-coordinate; the y sign bit is
// deliberately dropped. Announcements publish only the x-coordinate of
// the ephemeral key, so the scanning side reconstructs the point under
// an assumed even-y prefix — both possible y values must map to the
// same secret or decryption silently produces garbage. Changing this
// encoding breaks interoperability with every published announcement.
func sharedSecret(priv *big.Int, pub *btcec.PublicKey) ([]byte, error) {
	x, _ := btcec.S256().ScalarMult(pub.X(), pub.Y(), priv.Bytes())
	xb, err := hexutil.PadBytes(x.Bytes(), 32)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, hexutil.CompressedKeyLen)
	buf[0] = 0x04
	copy(buf[1:], xb)
	return hashSHA256(buf), nil
}
