package account

import (
	"strings"
)

// InputKind classifies free-form identifier text.
type InputKind string

const (
	InputEmpty   InputKind = "empty"
	InputAddress InputKind = "address"
	InputNumeric InputKind = "numeric"
	InputENS     InputKind = "ens"
	InputName    InputKind = "name"
)

// Classify determines how an identifier should be resolved. Address shape is
// tested before the numeric check so hex strings never parse as ids.
func Classify(input string) InputKind {
	s := strings.TrimSpace(input)
	switch {
	case s == "":
		return InputEmpty
	case IsAddress(s):
		return InputAddress
	case IsNumeric(s):
		return InputNumeric
	case IsENSName(s):
		return InputENS
	default:
		return InputName
	}
}

// IsNumeric reports whether s is a non-empty run of ASCII decimal digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsENSName reports whether s looks like an ENS name such as "vitalik.eth".
func IsENSName(s string) bool {
	s = strings.ToLower(s)
	if !strings.HasSuffix(s, ".eth") || len(s) <= len(".eth") {
		return false
	}
	label := strings.TrimSuffix(s, ".eth")
	return !strings.HasPrefix(label, ".") && !strings.ContainsAny(label, " @/")
}

// StripHandle removes one leading "@" from a display name.
func StripHandle(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "@")
}
