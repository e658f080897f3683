package mdconf

// Format identifies an on-disk metadata format. The core never decodes
// superblocks; it only resolves the description strings used by metadata=
// options and matches format tags on AUTO lines.
type Format struct {
	// Name is the format tag as it appears on AUTO lines and in
	// /proc/mdstat: "0.90", "1.x", "ddf", "imsm".
	Name string
	// Version is the specific revision requested by the description
	// string, when it names one ("1.2" rather than plain "1").
	Version string
}

// FormatMatcher resolves a metadata= description string to a Format, or
// nil when it does not recognize the description.
type FormatMatcher func(desc string) *Format

// DefaultFormats is the built-in metadata format registry, in the order
// the descriptions are tried: the first matcher that recognizes a
// description wins.
var DefaultFormats = []FormatMatcher{
	matchFormat090,
	matchFormat1,
	matchFormatDDF,
	matchFormatIMSM,
}

// MatchMetadataDesc resolves desc against the registry, first match wins.
func MatchMetadataDesc(formats []FormatMatcher, desc string) *Format {
	for _, m := range formats {
		if f := m(desc); f != nil {
			return f
		}
	}
	return nil
}

func matchFormat090(desc string) *Format {
	switch desc {
	case "0", "0.90", "default":
		return &Format{Name: "0.90", Version: "0.90"}
	}
	return nil
}

func matchFormat1(desc string) *Format {
	switch desc {
	case "1", "1.0", "1.1", "1.2":
		return &Format{Name: "1.x", Version: desc}
	}
	return nil
}

func matchFormatDDF(desc string) *Format {
	if desc == "ddf" {
		return &Format{Name: "ddf"}
	}
	return nil
}

func matchFormatIMSM(desc string) *Format {
	if desc == "imsm" {
		return &Format{Name: "imsm"}
	}
	return nil
}

// RAID levels without a kernel personality number of their own.
const (
	LevelMultipath = -4
	LevelLinear    = -1
	LevelFaulty    = -5
	LevelContainer = -100
)

var levelNames = map[string]int{
	"linear":    LevelLinear,
	"raid0":     0,
	"0":         0,
	"stripe":    0,
	"raid1":     1,
	"1":         1,
	"mirror":    1,
	"raid4":     4,
	"4":         4,
	"raid5":     5,
	"5":         5,
	"raid6":     6,
	"6":         6,
	"raid10":    10,
	"10":        10,
	"multipath": -4,
	"mp":        -4,
	"faulty":    -5,
	"container": -100,
}

// ParseLevel resolves a RAID level name ("raid1", "mirror", "5") to its
// level number.
func ParseLevel(name string) (int, bool) {
	level, ok := levelNames[name]
	return level, ok
}
