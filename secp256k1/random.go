package secp256k1

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/shakesco/shakesco-private/internal/hexutil"
)

// RandomNumber is a single 32-byte value drawn from a cryptographically
// secure source. It is used both as an EC scalar (stealth address
// derivation) and as a one-time XOR pad operand, so it is deliberately
// not reduced modulo the curve order.
//
// A RandomNumber is generated fresh per send and must never be reused
// across two stealth-address derivations.
type RandomNumber struct {
	value *big.Int
}

// NewRandomNumber draws a fresh 32-byte random value. Failure of the
// system randomness source is propagated, never papered over.
func NewRandomNumber() (*RandomNumber, error) {
	buf := make([]byte, hexutil.ScalarLen)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	return &RandomNumber{value: new(big.Int).SetBytes(buf)}, nil
}

// RandomNumberFromHex reconstructs a RandomNumber from its 32-byte hex
// representation, as recovered by Decrypt on the receiving side.
func RandomNumberFromHex(s string) (*RandomNumber, error) {
	b, err := hexutil.DecodeFixed(s, hexutil.ScalarLen)
	if err != nil {
		return nil, fmt.Errorf("invalid random number: %w", err)
	}
	return &RandomNumber{value: new(big.Int).SetBytes(b)}, nil
}

// Big returns the value as a big integer for scalar arithmetic.
func (r *RandomNumber) Big() *big.Int {
	return new(big.Int).Set(r.value)
}

// Bytes returns the value as exactly 32 big-endian bytes.
func (r *RandomNumber) Bytes() []byte {
	out, _ := hexutil.PadBytes(r.value.Bytes(), hexutil.ScalarLen)
	return out
}

// Hex returns the value as a zero-padded 32-byte hex string with 0x
// prefix.
func (r *RandomNumber) Hex() string {
	return hexutil.Encode(r.Bytes())
}
