// Package checksum computes the salted fingerprint the game appends to
// every savegame.
package checksum

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
)

// Salt is appended to the payload before the first hashing round.
const Salt = "s*al!t"

// Size is the length of a checksum in hex characters.
const Size = 32

// Sum returns the 32 lowercase hex character checksum of payload:
// sha1(payload + sha1(payload + Salt)) with the first four characters dropped.
func Sum(payload string) string {
	first := hexSHA1(payload + Salt)
	second := hexSHA1(payload + first)
	return second[4 : 4+Size]
}

// Verify reports whether sum is the checksum of payload.
func Verify(payload, sum string) bool {
	return subtle.ConstantTimeCompare([]byte(Sum(payload)), []byte(sum)) == 1
}

func hexSHA1(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}
