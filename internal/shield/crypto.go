// crypto.go - Randomness helpers for note secrets.
//
// All protocol randomness comes from crypto/rand.

package shield

import "crypto/rand"

// randomBytes32 draws a fresh 32-byte secret from crypto/rand.
func randomBytes32() [32]byte {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the process has no usable entropy
		// source; nothing sensible can continue.
		panic("shield: entropy source unavailable: " + err.Error())
	}
	return b
}

// RandomBytes32 is the public wrapper for randomBytes32.
// Use this for all protocol randomness (blinding factors, pool ids).
func RandomBytes32() [32]byte {
	return randomBytes32()
}
