package response

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	responseIDPrefix = "enh_"
)

var responseIDPattern = regexp.MustCompile(`^enh_[a-zA-Z0-9]{24}$`)

// NewID generates a new response ID with the "enh_" prefix followed by
// 24 cryptographically random alphanumeric characters.
func NewID() string {
	return responseIDPrefix + randomAlphanumeric(idLength)
}

// ValidateID checks whether the given string is a valid response ID
// (matches "enh_" + 24 alphanumeric characters).
func ValidateID(id string) bool {
	return responseIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
