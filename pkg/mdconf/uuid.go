package mdconf

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ParseUUID parses an array uuid as written in configuration files and
// --brief output: 32 hexadecimal digits, optionally broken into groups by
// ':' or '.' separators ("3aaa0122:29827cfa:5331ad66:ca767371").
func ParseUUID(s string) (uuid.UUID, error) {
	var u uuid.UUID
	cleaned := strings.Map(func(r rune) rune {
		if r == ':' || r == '.' {
			return -1
		}
		return r
	}, s)
	if len(cleaned) != 32 {
		return u, fmt.Errorf("uuid %q: want 32 hex digits, have %d", s, len(cleaned))
	}
	b, err := hex.DecodeString(cleaned)
	if err != nil {
		return u, fmt.Errorf("uuid %q: %w", s, err)
	}
	copy(u[:], b)
	return u, nil
}

// SameUUID reports whether a and b name the same array. Formats that store
// the uuid byte-swapped on disk set swap, which compares each 32-bit word
// of b in reversed byte order.
func SameUUID(a, b uuid.UUID, swap bool) bool {
	if !swap {
		return a == b
	}
	for w := 0; w < 16; w += 4 {
		for i := 0; i < 4; i++ {
			if a[w+i] != b[w+3-i] {
				return false
			}
		}
	}
	return true
}
