package secp256k1

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/sha3"

	"github.com/shakesco/shakesco-private/internal/hexutil"
)

// hashSHA256 computes SHA-256.
func hashSHA256(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// hashKeccak256 computes Keccak-256 (Ethereum).
func hashKeccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// deriveAddress derives a 20-byte Ethereum address from a public key.
// Formula: Keccak256(uncompressed_pubkey[1:])[12:32]. The uncompressed
// public key is 65 bytes (0x04 prefix + 64 bytes X,Y); the prefix byte
// is not hashed.
func deriveAddress(pubKey *btcec.PublicKey) []byte {
	uncompressed := pubKey.SerializeUncompressed()
	hash := hashKeccak256(uncompressed[1:])
	return hash[12:]
}

// checksumAddress formats a 20-byte address as an EIP-55 checksummed
// hex string.
func checksumAddress(addr []byte) string {
	hexAddr := hex.EncodeToString(addr)
	hash := hashKeccak256([]byte(hexAddr))

	// Uppercase a hex letter when the matching nibble of the hash is >= 8.
	result := make([]byte, 40)
	for i := 0; i < 40; i++ {
		hashNibble := hash[i/2]
		if i%2 == 0 {
			hashNibble = hashNibble >> 4
		} else {
			hashNibble = hashNibble & 0x0f
		}

		if hashNibble >= 8 && hexAddr[i] >= 'a' && hexAddr[i] <= 'f' {
			result[i] = hexAddr[i] - 32
		} else {
			result[i] = hexAddr[i]
		}
	}

	return "0x" + string(result)
}

// pubKeyFromCoords builds a public key from affine coordinates by
// round-tripping through the uncompressed serialization, which also
// validates that the point is on the curve.
func pubKeyFromCoords(x, y *big.Int) (*btcec.PublicKey, error) {
	xb, err := hexutil.PadBytes(x.Bytes(), 32)
	if err != nil {
		return nil, err
	}
	yb, err := hexutil.PadBytes(y.Bytes(), 32)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, hexutil.UncompressedKeyLen)
	buf[0] = 0x04
	copy(buf[1:33], xb)
	copy(buf[33:], yb)
	return btcec.ParsePubKey(buf)
}

// curveN is the order of the secp256k1 group.
func curveN() *big.Int {
	return btcec.S256().N
}
