// Package secp256k1 implements the stealth key-pair engine: key pairs
// over the secp256k1 curve with ECDH-based payload encryption and the
// scalar/point multiplications that stealth address derivation is built
// on. It is the only package in this module that touches raw
// elliptic-curve primitives.
package secp256k1

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/shakesco/shakesco-private/internal/hexutil"
)

// KeyPair wraps either a full secp256k1 key pair or a public-key-only
// view. When a private scalar is present the public point is always
// derived from it, never stored independently. Instances are immutable
// after construction; all derived forms (address, compressed and
// uncompressed coordinates) are recomputed on demand.
type KeyPair struct {
	priv *big.Int // nil for public-key-only instances
	pub  *btcec.PublicKey
}

// NewFromPrivate constructs a KeyPair from a 32-byte private scalar in
// hex (with or without 0x prefix). The scalar must be in [1, n-1] where
// n is the curve order.
func NewFromPrivate(privateKeyHex string) (*KeyPair, error) {
	b, err := hexutil.DecodeFixed(privateKeyHex, hexutil.ScalarLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	d := new(big.Int).SetBytes(b)
	if d.Sign() == 0 || d.Cmp(curveN()) >= 0 {
		return nil, fmt.Errorf("%w: private scalar out of range", ErrInvalidKey)
	}
	privKey, _ := btcec.PrivKeyFromBytes(b)
	return &KeyPair{priv: d, pub: privKey.PubKey()}, nil
}

// NewFromPublic constructs a public-key-only KeyPair from a 65-byte
// uncompressed public key in hex (0x04 prefix byte). No operation that
// requires a private scalar is available on the result.
func NewFromPublic(publicKeyHex string) (*KeyPair, error) {
	b, err := hexutil.DecodeFixed(publicKeyHex, hexutil.UncompressedKeyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if b[0] != 0x04 {
		return nil, fmt.Errorf("%w: uncompressed key must start with 0x04", ErrInvalidKey)
	}
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &KeyPair{pub: pub}, nil
}

// NewFromCompressed constructs a public-key-only KeyPair from a
// compressed coordinate: a sign prefix (2 for even y, 3 for odd y) and
// the 32-byte x-coordinate in hex.
func NewFromCompressed(prefix byte, xHex string) (*KeyPair, error) {
	if prefix != 2 && prefix != 3 {
		return nil, fmt.Errorf("%w: sign prefix must be 2 or 3, got %d", ErrInvalidKey, prefix)
	}
	xb, err := hexutil.DecodeFixed(xHex, hexutil.ScalarLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	buf := make([]byte, hexutil.CompressedKeyLen)
	buf[0] = prefix
	copy(buf[1:], xb)
	pub, err := btcec.ParsePubKey(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &KeyPair{pub: pub}, nil
}

// NewFromX reconstructs a public key from only its x-coordinate,
// assuming an even y (sign prefix 2).
//
// This narrowing is safe only in the announcement-scanning path, where
// the result feeds ECDH whose shared secret is independent of the sign
// prefix (see SharedSecret). A caller that needs the canonical point,
// such as one verifying a key against a registered value, must know the
// true prefix and use NewFromCompressed instead.
func NewFromX(xHex string) (*KeyPair, error) {
	return NewFromCompressed(2, xHex)
}

// HasPrivateKey reports whether this instance holds a private scalar.
func (k *KeyPair) HasPrivateKey() bool {
	return k.priv != nil
}

// PrivateKeyHex returns the private scalar as a zero-padded 32-byte hex
// string with 0x prefix, or ErrMissingPrivateKey on a public-only
// instance.
func (k *KeyPair) PrivateKeyHex() (string, error) {
	if k.priv == nil {
		return "", ErrMissingPrivateKey
	}
	return hexutil.PadBig(k.priv, hexutil.ScalarLen)
}

// PrivateBig returns a copy of the private scalar, or
// ErrMissingPrivateKey on a public-only instance.
func (k *KeyPair) PrivateBig() (*big.Int, error) {
	if k.priv == nil {
		return nil, ErrMissingPrivateKey
	}
	return new(big.Int).Set(k.priv), nil
}

// PublicKeyHex returns the 65-byte uncompressed public key as hex with
// 0x prefix.
func (k *KeyPair) PublicKeyHex() string {
	return hexutil.Encode(k.pub.SerializeUncompressed())
}

// CompressedPublicKeyHex returns the 33-byte compressed public key as
// hex with 0x prefix.
func (k *KeyPair) CompressedPublicKeyHex() string {
	return hexutil.Encode(k.pub.SerializeCompressed())
}

// Compressed returns the compressed form of the public key split into
// its sign prefix (2 or 3) and 32-byte x-coordinate hex. Inverse of
// NewFromCompressed.
func (k *KeyPair) Compressed() (prefix byte, xHex string) {
	b := k.pub.SerializeCompressed()
	return b[0], hexutil.Encode(b[1:])
}

// Address returns the EIP-55 checksummed Ethereum address derived from
// the uncompressed public key coordinates.
func (k *KeyPair) Address() string {
	return checksumAddress(deriveAddress(k.pub))
}

// MulPublicKey returns a new public-key-only KeyPair whose point is
// scalar times this instance's point. This is the sender-side half of
// stealth address derivation.
func (k *KeyPair) MulPublicKey(scalar *big.Int) (*KeyPair, error) {
	reduced, err := reduceScalar(scalar)
	if err != nil {
		return nil, err
	}
	x, y := btcec.S256().ScalarMult(k.pub.X(), k.pub.Y(), reduced.Bytes())
	pub, err := pubKeyFromCoords(x, y)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &KeyPair{pub: pub}, nil
}

// MulPrivateKey returns a new KeyPair whose private scalar is this
// instance's scalar times the argument, modulo the curve order. This is
// the owner-side half of stealth address derivation: it must land on
// the same address as MulPublicKey with the same scalar.
func (k *KeyPair) MulPrivateKey(scalar *big.Int) (*KeyPair, error) {
	if k.priv == nil {
		return nil, ErrMissingPrivateKey
	}
	reduced, err := reduceScalar(scalar)
	if err != nil {
		return nil, err
	}
	d := new(big.Int).Mul(k.priv, reduced)
	d.Mod(d, curveN())
	if d.Sign() == 0 {
		return nil, ErrInvalidScalar
	}
	db, err := hexutil.PadBytes(d.Bytes(), hexutil.ScalarLen)
	if err != nil {
		return nil, err
	}
	privKey, _ := btcec.PrivKeyFromBytes(db)
	return &KeyPair{priv: d, pub: privKey.PubKey()}, nil
}

// reduceScalar validates a multiplication operand and reduces it modulo
// the curve order. Random numbers are not order-reduced at generation
// time, so the reduction happens here.
func reduceScalar(scalar *big.Int) (*big.Int, error) {
	if scalar == nil {
		return nil, ErrInvalidScalar
	}
	reduced := new(big.Int).Mod(scalar, curveN())
	if reduced.Sign() == 0 {
		return nil, ErrInvalidScalar
	}
	return reduced, nil
}
