package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex returns n random bytes as a 2n-character hex string, used
// for server-assigned room ids and private session tokens.
func RandomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err) // the kernel CSPRNG does not fail
	}
	return hex.EncodeToString(b)
}
