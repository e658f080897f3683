package mdconf

import (
	"fmt"
	"strconv"
	"strings"
)

// Autof values encode the device-creation style requested by auto=
// options: whether device nodes are created at all, with standard or
// partitionable names, and how many partitions to reserve.
const (
	AutofNo          = 1 // auto=no: never create device nodes
	AutofYes         = 2 // auto=yes: create with standard names
	AutofMd          = 3 // auto=md: non-partitionable array
	AutofMdp         = 4 // auto=mdp/part: partitionable array
	AutofHomehostMd  = 5 // config-file md: name chosen by homehost rules
	AutofHomehostMdp = 6 // config-file mdp
)

// CreateInfo holds the CREATE line defaults applied when arrays or their
// device nodes are created.
type CreateInfo struct {
	Autof    int
	UID      int
	GID      int
	Mode     uint32 // permission bits for created device nodes
	Symlinks bool
	Format   *Format // preferred metadata format; first CREATE metadata= wins
}

func defaultCreateInfo() CreateInfo {
	return CreateInfo{
		Autof:    AutofYes, // by default, create devices with standard names
		Mode:     0600,
		Symlinks: true,
	}
}

// ParseAuto parses the value of an auto= option: "no", "yes", "md", "mdp"
// or "part", optionally followed by a partition count ("p7", "part4",
// "mdp-12"). config selects the config-file flavor of the md/mdp styles.
func ParseAuto(val string, config bool) (int, error) {
	if val == "" {
		return AutofYes, nil
	}
	switch {
	case strings.EqualFold(val, "no"):
		return AutofNo, nil
	case strings.EqualFold(val, "yes"):
		return AutofYes, nil
	case strings.EqualFold(val, "md"):
		if config {
			return AutofHomehostMd, nil
		}
		return AutofMd, nil
	}

	// There might be digits, and maybe a hyphen, at the end.
	e := len(val)
	for e > 0 && isDigit(val[e-1]) {
		e--
	}
	num := 4
	if e < len(val) {
		num, _ = strconv.Atoi(val[e:])
		if num <= 0 {
			num = 1
		}
	}
	if e > 0 && val[e-1] == '-' {
		e--
	}
	head := val[:e]

	var autof int
	switch {
	case len(head) == 2 && strings.EqualFold(head, "md"):
		autof = AutofMd
		if config {
			autof = AutofHomehostMd
		}
	case len(head) == 3 && strings.EqualFold(head, "yes"):
		autof = AutofYes
	case len(head) == 3 && strings.EqualFold(head, "mdp"):
		autof = AutofMdp
		if config {
			autof = AutofHomehostMdp
		}
	case len(head) == 1 && strings.EqualFold(head, "p"),
		len(head) >= 4 && strings.EqualFold(val[:4], "part"):
		autof = AutofHomehostMdp
	default:
		return 0, fmt.Errorf("auto value %q unrecognised: use no,yes,md,mdp,part optionally followed by a number", val)
	}
	return autof | num<<3, nil
}

// createLine applies the options of one CREATE line to the defaults.
// Recognized options overwrite the previous value; the metadata format is
// the exception and only the first successful metadata= ever sticks.
func (c *Config) createLine(line Line) {
	for _, w := range line.Args() {
		switch {
		case hasKey(w, "auto="):
			autof, err := ParseAuto(w[len("auto="):], true)
			if err != nil {
				c.warnf("CREATE %v", err)
				continue
			}
			c.create.Autof = autof
		case hasKey(w, "owner="):
			val := w[len("owner="):]
			if val == "" {
				c.warnf("missing owner name")
				continue
			}
			if uid, err := strconv.Atoi(val); err == nil {
				c.create.UID = uid
			} else if uid, err := c.lookupUser(val); err == nil {
				c.create.UID = uid
			} else {
				c.warnf("CREATE user %s not found", val)
			}
		case hasKey(w, "group="):
			val := w[len("group="):]
			if val == "" {
				c.warnf("missing group name")
				continue
			}
			if gid, err := strconv.Atoi(val); err == nil {
				c.create.GID = gid
			} else if gid, err := c.lookupGroup(val); err == nil {
				c.create.GID = gid
			} else {
				c.warnf("CREATE group %s not found", val)
			}
		case hasKey(w, "mode="):
			val := w[len("mode="):]
			if val == "" {
				c.warnf("missing CREATE mode")
				continue
			}
			mode, err := strconv.ParseUint(val, 8, 32)
			if err != nil {
				// Historical behavior: a bad mode resets to 0600
				// rather than keeping the previous value.
				c.create.Mode = 0600
				c.warnf("unrecognised CREATE mode %s", val)
				continue
			}
			c.create.Mode = uint32(mode)
		case hasKey(w, "metadata="):
			val := w[len("metadata="):]
			if c.create.Format != nil {
				c.warnf("CREATE metadata already set, %s ignored", w)
				continue
			}
			f := MatchMetadataDesc(c.formats, val)
			if f == nil {
				c.warnf("metadata format %s unknown, ignoring", val)
				continue
			}
			c.create.Format = f
		case hasKey(w, "symlinks=yes"):
			c.create.Symlinks = true
		case hasKey(w, "symlinks=no"):
			c.create.Symlinks = false
		default:
			c.warnf("unrecognised word on CREATE line: %s", w)
		}
	}
}

// hasKey reports whether w starts with the literal option key (the key is
// matched case-insensitively, as all option keys are).
func hasKey(w, key string) bool {
	return len(w) >= len(key) && strings.EqualFold(w[:len(key)], key)
}
