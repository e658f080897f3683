package mdconf

import (
	"path/filepath"
	"strings"
)

// maxPatternLen bounds a single pattern segment in a comma-separated
// devices= list; longer segments are silently skipped.
const maxPatternLen = 1023

// CanonicalDeviceName reduces an md device name to its comparable core:
// a leading "/dev/md/" or "/dev/" prefix is stripped, and then a leading
// "md" immediately followed by a digit. "/dev/md3", "md3" and "3" all
// canonicalize to "3".
func CanonicalDeviceName(name string) string {
	if strings.HasPrefix(name, "/dev/md/") {
		name = name[len("/dev/md/"):]
	} else if strings.HasPrefix(name, "/dev/") {
		name = name[len("/dev/"):]
	}
	if strings.HasPrefix(name, "md") && len(name) > 2 && isDigit(name[2]) {
		name = name[2:]
	}
	return name
}

// NameMatches reports whether two array names refer to the same device
// after canonicalization.
func NameMatches(name, match string) bool {
	return CanonicalDeviceName(name) == CanonicalDeviceName(match)
}

// PatternListMatches reports whether any pattern in the comma-separated
// glob list matches name. Matching is path-aware: '*' does not cross '/'.
func PatternListMatches(patterns, name string) bool {
	for _, pat := range strings.Split(patterns, ",") {
		if pat == "" || len(pat) > maxPatternLen {
			continue
		}
		if ok, err := filepath.Match(pat, name); err == nil && ok {
			return true
		}
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isNumber reports whether w consists of one or more decimal digits and
// nothing else.
func isNumber(w string) bool {
	if w == "" {
		return false
	}
	for i := 0; i < len(w); i++ {
		if !isDigit(w[i]) {
			return false
		}
	}
	return true
}
