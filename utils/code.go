package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

var codeSpace = big.NewInt(1000000)

// GenerateVerificationCode returns a uniformly distributed six-digit
// numeric code, leading zeros included.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// CodeExpired reports whether a code issued at sentAt is past its TTL.
// The TTL comes from configuration; nothing here hardcodes it.
func CodeExpired(sentAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(sentAt) > ttl
}
