package utils

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordLongInput(t *testing.T) {
	long := strings.Repeat("a", 80)
	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("expected long password to hash, got %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), prehash(long)); err != nil {
		t.Errorf("hash does not match its password: %v", err)
	}
	// Same first 72 bytes, different tail.
	other := strings.Repeat("a", 72) + "bbbbbbbb"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), prehash(other)); err == nil {
		t.Errorf("passwords differing after byte 72 must not share a hash")
	}
}

func TestGenerateTransactionID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	a := GenerateTransactionID(at)
	b := GenerateTransactionID(at)
	if !strings.HasPrefix(a, "tx-1700000000123-") {
		t.Errorf("unexpected id %q", a)
	}
	if a == b {
		t.Errorf("expected distinct ids for the same instant, got %q twice", a)
	}
}

func TestGenerateHexAddress(t *testing.T) {
	addr := GenerateHexAddress()
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		t.Fatalf("bad address %q", addr)
	}
	if strings.Trim(addr[2:], "0123456789abcdef") != "" {
		t.Errorf("address %q is not hex", addr)
	}
}

func TestShortenAddress(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0x1234567890abcdef", "0x1234...cdef"},
		{"short", "short"},
	}
	for _, tt := range tests {
		if got := ShortenAddress(tt.in); got != tt.want {
			t.Errorf("ShortenAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Jane Smith", "smi") {
		t.Error("expected case-insensitive match")
	}
	if !ContainsFold("anything", "") {
		t.Error("empty needle should match")
	}
	if ContainsFold("John", "jane") {
		t.Error("unexpected match")
	}
}
