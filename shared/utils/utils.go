package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, randomString(idCharset, 10))
}

// GenerateTransactionID derives a transaction ID from the creation time. The
// random suffix keeps IDs unique within the same millisecond.
func GenerateTransactionID(at time.Time) string {
	return fmt.Sprintf("tx-%d-%s", at.UnixMilli(), randomString(idCharset, 6))
}

// GenerateHexAddress returns a random 0x-prefixed 40 hex digit address.
func GenerateHexAddress() string {
	return "0x" + randomString("0123456789abcdef", 40)
}

// ShortenAddress keeps the first 6 and last 4 characters of an address.
func ShortenAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// HashPassword hashes a password using bcrypt. The password is reduced to
// its hex SHA-256 digest first, so inputs past bcrypt's 72 byte limit are
// accepted and never truncated.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

// ContainsFold reports whether substr is within s, ignoring case.
// An empty substr always matches.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func randomString(charset string, length int) string {
	result := make([]byte, length)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[num.Int64()]
	}
	return string(result)
}
