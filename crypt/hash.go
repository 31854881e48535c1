package crypt

import "crypto/sha256"

// HashSHA256 is the hash-identifier tag carried in the first two bytes of a
// block header. It is the only identifier currently accepted on the wire.
const HashSHA256 uint16 = 1

// SHA256Length is the digest length, which also fixes the routing key size.
const SHA256Length = sha256.Size

// SHA256 returns the SHA-256 digest of the concatenation of parts.
func SHA256(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return h.Sum(nil)
}
