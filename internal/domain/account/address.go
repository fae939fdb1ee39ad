package account

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddress reports whether s has the shape of a 20-byte hex wallet address.
// Case is not checked; mixed-case input is accepted.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// NormalizeAddress lowercases a wallet address. Addresses are compared and
// stored in lowercase throughout the system.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ChecksumAddress renders an address with EIP-55 mixed-case checksum encoding
// for display. Input that is not address-shaped is returned unchanged.
func ChecksumAddress(s string) string {
	if !IsAddress(s) {
		return s
	}
	lower := strings.ToLower(s[2:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := make([]byte, 0, 42)
	out = append(out, '0', 'x')
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
