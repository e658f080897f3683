package mdconf

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// maxArrayName is the longest name= value accepted on an ARRAY line.
const maxArrayName = 32

// IgnoreToken is the devname sentinel marking an array the managing
// process must leave alone. It is also accepted on HOMEHOST lines to drop
// the require-homehost behavior.
const IgnoreToken = "<ignore>"

// ArrayIdentity is one ARRAY line: the criteria used to recognize a
// discovered array, plus assembly attributes carried along for the caller.
// Optional numeric fields are nil when the line did not set them.
type ArrayIdentity struct {
	// Devname is the target array path ("/dev/md0", "/dev/md/home"),
	// the IgnoreToken, or "" when the line named no device.
	Devname string

	UUID       *uuid.UUID
	Name       string // case-insensitive match, at most maxArrayName chars
	SuperMinor *int
	// Devices is a comma-separated list of path globs the array's member
	// devices must match.
	Devices string

	SpareGroup string
	BitmapFile string
	Level      *int
	RaidDisks  *int
	SpareDisks int
	Format     *Format
	Autof      int
	Container  string // container device or uuid holding this subarray
	Member     string // subarray name within the container
}

// HasIdentity reports whether the record carries any identifying
// information: a uuid, a name, a super-minor, or a container/member pair.
// Records without identity are rejected at parse time and are never
// candidates for matching.
func (a *ArrayIdentity) HasIdentity() bool {
	return a.UUID != nil || a.Name != "" || a.SuperMinor != nil ||
		(a.Container != "" && a.Member != "")
}

// validDevname reports whether w may name an md device on an ARRAY line.
// The rules match device-node creation: /dev/md/{anything}, /dev/mdNN,
// /dev/md_dNN, the IgnoreToken, or anything not starting with '/' or '<'.
func validDevname(w string) bool {
	switch {
	case strings.EqualFold(w, IgnoreToken):
		return true
	case strings.HasPrefix(w, "/dev/md/"):
		return true
	case w != "" && w[0] != '/' && w[0] != '<':
		return true
	case strings.HasPrefix(w, "/dev/md_d") && isNumber(w[len("/dev/md_d"):]):
		return true
	case strings.HasPrefix(w, "/dev/md") && isNumber(w[len("/dev/md"):]):
		return true
	}
	return false
}

// arrayLine builds one ArrayIdentity from an ARRAY line and appends it to
// the identity list. A line carrying no identifying information is
// discarded whole.
func (c *Config) arrayLine(line Line) {
	var mis ArrayIdentity

	for _, w := range line.Args() {
		if w == "" {
			continue
		}
		if w[0] == '/' || !strings.ContainsRune(w, '=') {
			// This names the device, or is the ignore token.
			if !validDevname(w) {
				c.warnf("%s is an invalid name for an md device - ignored", w)
				continue
			}
			if mis.Devname != "" {
				c.warnf("only give one device per ARRAY line: %s and %s", mis.Devname, w)
				continue
			}
			mis.Devname = w
			continue
		}
		switch {
		case hasKey(w, "uuid="):
			if mis.UUID != nil {
				c.warnf("only specify uuid once, %s ignored", w)
				continue
			}
			u, err := ParseUUID(w[len("uuid="):])
			if err != nil {
				c.warnf("bad uuid: %s", w)
				continue
			}
			mis.UUID = &u
		case hasKey(w, "super-minor="):
			if mis.SuperMinor != nil {
				c.warnf("only specify super-minor once, %s ignored", w)
				continue
			}
			minor, err := strconv.Atoi(w[len("super-minor="):])
			if err != nil || minor < 0 {
				c.warnf("invalid super-minor number: %s", w)
				continue
			}
			mis.SuperMinor = &minor
		case hasKey(w, "name="):
			if mis.Name != "" {
				c.warnf("only specify name once, %s ignored", w)
				continue
			}
			name := w[len("name="):]
			if len(name) > maxArrayName {
				c.warnf("name too long, ignoring %s", w)
				continue
			}
			mis.Name = name
		case hasKey(w, "bitmap="):
			if mis.BitmapFile != "" {
				c.warnf("only specify bitmap file once, %s ignored", w)
				continue
			}
			mis.BitmapFile = w[len("bitmap="):]
		case hasKey(w, "devices="):
			if mis.Devices != "" {
				c.warnf("only specify devices once (use a comma separated list), %s ignored", w)
				continue
			}
			mis.Devices = w[len("devices="):]
		case hasKey(w, "spare-group="):
			if mis.SpareGroup != "" {
				c.warnf("only specify one spare group per array, %s ignored", w)
				continue
			}
			mis.SpareGroup = w[len("spare-group="):]
		case hasKey(w, "level="):
			// Mainly for compatibility with --brief output.
			if mis.Level != nil {
				c.warnf("only specify level once, %s ignored", w)
				continue
			}
			level, ok := ParseLevel(w[len("level="):])
			if !ok {
				c.warnf("unknown level %s", w)
				continue
			}
			mis.Level = &level
		case hasKey(w, "disks="):
			c.setRaidDisks(&mis, w, w[len("disks="):])
		case hasKey(w, "num-devices="):
			c.setRaidDisks(&mis, w, w[len("num-devices="):])
		case hasKey(w, "spares="):
			n, err := strconv.Atoi(w[len("spares="):])
			if err != nil {
				c.warnf("invalid spares count: %s", w)
				continue
			}
			mis.SpareDisks = n
		case hasKey(w, "metadata="):
			if mis.Format != nil {
				c.warnf("only specify metadata once, %s ignored", w)
				continue
			}
			f := MatchMetadataDesc(c.formats, w[len("metadata="):])
			if f == nil {
				c.warnf("metadata format %s unknown, ignored", w[len("metadata="):])
				continue
			}
			mis.Format = f
		case hasKey(w, "auto="):
			if mis.Autof != 0 {
				c.warnf("only specify auto once, %s ignored", w)
				continue
			}
			autof, err := ParseAuto(w[len("auto="):], false)
			if err != nil {
				c.warnf("ARRAY %v", err)
				continue
			}
			mis.Autof = autof
		case hasKey(w, "member="):
			if mis.Member != "" {
				c.warnf("only specify member once, %s ignored", w)
				continue
			}
			mis.Member = w[len("member="):]
		case hasKey(w, "container="):
			if mis.Container != "" {
				c.warnf("only specify container once, %s ignored", w)
				continue
			}
			mis.Container = w[len("container="):]
		default:
			c.warnf("unrecognised word on ARRAY line: %s", w)
		}
	}

	if !mis.HasIdentity() {
		c.warnf("ARRAY line %s has no identity information", mis.Devname)
		return
	}
	c.identities = append(c.identities, &mis)
}

// setRaidDisks handles the disks=/num-devices= aliases, which unlike the
// other options may be repeated.
func (c *Config) setRaidDisks(mis *ArrayIdentity, w, val string) {
	n, err := strconv.Atoi(val)
	if err != nil {
		c.warnf("invalid device count: %s", w)
		return
	}
	mis.RaidDisks = &n
}
