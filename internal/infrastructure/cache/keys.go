package cache

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key joins parts with "_" after sanitizing each one.
func Key(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = SanitizeKey(p); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, "_")
}

// SetKey derives a key from an unordered set of members. Members are
// lowercased, de-duplicated and sorted before hashing, so equivalent sets
// map to the same entry regardless of order or case.
func SetKey(prefix string, members []string) string {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			set[m] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(set))
	for m := range set {
		sorted = append(sorted, m)
	}
	sort.Strings(sorted)

	h := xxhash.New()
	for _, m := range sorted {
		h.WriteString(m)
		h.WriteString("\x00")
	}
	return Key(prefix, strconv.FormatUint(h.Sum64(), 16))
}

// TextKey derives a key for free-form text. Text that is already key-safe
// is used verbatim so entries stay readable; anything else is hashed so
// distinct inputs never collide after sanitizing.
func TextKey(prefix, text string) string {
	if text != "" && len(text) <= 64 && SanitizeKey(text) == text {
		return Key(prefix, text)
	}
	return Key(prefix, "h"+strconv.FormatUint(xxhash.Sum64String(text), 16))
}

// SanitizeKey maps a key to the characters safe in file names and object
// keys: ASCII letters, digits, '-', '_' and '.'. Everything else becomes
// '_'. Leading dots are replaced so keys never name hidden files.
func SanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		case c == '.' && b.Len() > 0:
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
