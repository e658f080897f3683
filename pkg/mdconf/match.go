package mdconf

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DiscoveredArray carries the runtime attributes of an array found on
// disk, as the matcher compares them against configured identities.
// Nil/empty fields are attributes the discoverer could not supply.
type DiscoveredArray struct {
	UUID *uuid.UUID
	// SwapUUID is the byte-order convention of the metadata format the
	// uuid was read from: true when the on-disk words are byte-swapped.
	SwapUUID   bool
	Name       string
	SuperMinor *int
	// DevicePath is the path of the member device the array was found
	// on, matched against devices= pattern lists.
	DevicePath string
}

// AmbiguousMatchError reports that more than one configured identity
// matches a discovered array. It is a configuration error for the caller
// to surface, never resolved by picking one.
type AmbiguousMatchError struct {
	First, Second *ArrayIdentity
}

func (e *AmbiguousMatchError) Error() string {
	if e.First.Devname != "" && e.Second.Devname != "" {
		return fmt.Sprintf("array matches both %s and %s - cannot decide which to use",
			e.First.Devname, e.Second.Devname)
	}
	return "multiple ARRAY lines match"
}

// matchArray scans the identity list in file order for the unique
// identity whose every set criterion agrees with d. It returns nil when
// none matches and an AmbiguousMatchError when more than one does.
func (c *Config) matchArray(d DiscoveredArray) (*ArrayIdentity, error) {
	var match *ArrayIdentity
	for _, id := range c.identities {
		if id.UUID != nil &&
			(d.UUID == nil || !SameUUID(*id.UUID, *d.UUID, d.SwapUUID)) {
			continue
		}
		if id.Name != "" && !strings.EqualFold(id.Name, d.Name) {
			continue
		}
		if id.Devices != "" && d.DevicePath != "" &&
			!PatternListMatches(id.Devices, d.DevicePath) {
			continue
		}
		if id.SuperMinor != nil &&
			(d.SuperMinor == nil || *id.SuperMinor != *d.SuperMinor) {
			continue
		}
		if id.UUID == nil && id.Name == "" && id.Devices == "" && id.SuperMinor == nil {
			// No identifying information at all. Such records are
			// rejected at parse time; never let one match everything.
			continue
		}
		if match != nil {
			return nil, &AmbiguousMatchError{First: match, Second: id}
		}
		match = id
	}
	return match, nil
}
