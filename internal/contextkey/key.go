package contextkey

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Derivation parameters. Both are part of the stored key format.
const (
	// Domain separates context keys from any other SHA-256 use.
	Domain = "slipstream/context/v1"

	// KeyLength is the number of hex characters kept from the digest.
	KeyLength = 16
)

// Key is a derived context identifier: KeyLength lowercase hex characters.
type Key string

// String returns the key as a plain string.
func (k Key) String() string {
	return string(k)
}

// Valid reports whether k has the shape Derive produces.
func (k Key) Valid() bool {
	if len(k) != KeyLength {
		return false
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Parse converts s to a Key, rejecting anything Derive could not have produced.
func Parse(s string) (Key, error) {
	k := Key(s)
	if !k.Valid() {
		return "", fmt.Errorf("invalid context key %q: want %d lowercase hex characters", s, KeyLength)
	}
	return k, nil
}

// Derive maps a (path, device) pair to its context key.
//
// Hashed input: Domain + 0x00 + uint64 big-endian len(path) + path + device.
// The length prefix keeps the boundary between path and device unambiguous,
// so distinct pairs never hash the same bytes.
func Derive(path, device string) Key {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(path)))

	h := sha256.New()
	h.Write([]byte(Domain))
	h.Write([]byte{0x00})
	h.Write(size[:])
	h.Write([]byte(path))
	h.Write([]byte(device))

	return Key(hex.EncodeToString(h.Sum(nil))[:KeyLength])
}
