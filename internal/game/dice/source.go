package dice

import (
	"crypto/rand"
	"math/big"
)

// cryptoSource draws uniform values from crypto/rand. A crypto-backed
// source keeps table rolls unpredictable even to someone who can observe
// long roll sequences.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by the operating system's CSPRNG.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn returns a uniform int in [0, n).
//
// Precondition: n > 0; smaller values panic. A crypto/rand read failure
// also panics, since no roll can be produced without entropy.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: reading entropy: " + err.Error())
	}
	return int(val.Int64())
}
