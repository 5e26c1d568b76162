// Package hexutil provides fixed-width hex encoding helpers.
//
// Curve libraries strip leading zero bytes from big-integer outputs,
// which silently shortens fixed-width fields (private keys, coordinates,
// random numbers) and corrupts byte-exact protocols downstream. Every
// hex value that crosses a package boundary in this module goes through
// the padding and length validation here.
package hexutil

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Field widths in bytes.
const (
	AddressLen         = 20
	HashLen            = 32
	ScalarLen          = 32
	CiphertextLen      = 32
	CompressedKeyLen   = 33
	UncompressedKeyLen = 65
	SignatureLen       = 65
)

// Pad left-pads hex digits with zeros to exactly 2*byteLen characters.
// The input must be bare hex digits: a 0x prefix or any non-hex
// character is rejected, as is input longer than the target width.
func Pad(s string, byteLen int) (string, error) {
	if Has0xPrefix(s) {
		return "", fmt.Errorf("hex input must not carry a 0x prefix: %q", s)
	}
	if !isHex(s) {
		return "", fmt.Errorf("invalid hex digits: %q", s)
	}
	width := 2 * byteLen
	if len(s) > width {
		return "", fmt.Errorf("hex input longer than %d bytes: %d digits", byteLen, len(s))
	}
	return strings.Repeat("0", width-len(s)) + s, nil
}

// PadBig encodes a big integer as a zero-padded fixed-width hex string
// with 0x prefix.
func PadBig(v *big.Int, byteLen int) (string, error) {
	if v == nil || v.Sign() < 0 {
		return "", fmt.Errorf("value must be a non-negative integer")
	}
	padded, err := Pad(v.Text(16), byteLen)
	if err != nil {
		return "", err
	}
	return "0x" + padded, nil
}

// PadBytes left-pads b with zero bytes to exactly byteLen.
func PadBytes(b []byte, byteLen int) ([]byte, error) {
	if len(b) > byteLen {
		return nil, fmt.Errorf("input longer than %d bytes: %d", byteLen, len(b))
	}
	out := make([]byte, byteLen)
	copy(out[byteLen-len(b):], b)
	return out, nil
}

// DecodeFixed decodes a hex string (with or without 0x prefix) and
// requires the result to be exactly byteLen bytes.
func DecodeFixed(s string, byteLen int) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*byteLen {
		return nil, fmt.Errorf("invalid hex length: want %d digits, got %d", 2*byteLen, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

// Encode encodes bytes as a hex string with 0x prefix.
func Encode(b []byte) string {
	return fmt.Sprintf("0x%x", b)
}

// Has0xPrefix returns true if the string has a 0x prefix.
func Has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isHex(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		switch {
		case '0' <= c && c <= '9':
		case 'a' <= c && c <= 'f':
		case 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}
