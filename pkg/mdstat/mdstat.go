// Package mdstat reads the kernel's /proc/mdstat using the mdconf word
// scanner, which already copes with the historical kernels that wrote
// "active(auto-read-only)" without a space.
package mdstat

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mdtools/mdconf/pkg/mdconf"
)

// DefaultPath is where the kernel exposes md array status.
const DefaultPath = "/proc/mdstat"

// Entry is the status of one md array as reported by the kernel.
type Entry struct {
	Name            string // device name without /dev/ ("md0")
	Active          bool
	ReadOnly        bool
	AutoReadOnly    bool
	Level           string // "raid1", "linear", ... ; "" when inactive
	MetadataVersion string // "1.2", "external:imsm", ... ; "" for 0.90
	Members         []string
}

// IsExternal reports whether the array uses externally-managed metadata.
func (e *Entry) IsExternal() bool {
	return strings.HasPrefix(e.MetadataVersion, "external:")
}

// IsSubarray reports whether the array is a member carved out of a
// container (its external metadata version names a path inside one).
func (e *Entry) IsSubarray() bool {
	return e.IsExternal() &&
		strings.HasPrefix(strings.TrimPrefix(e.MetadataVersion, "external:"), "/")
}

// Read parses mdstat-format text. Lines that do not describe an array
// (the Personalities header, the unused-devices trailer) are skipped.
func Read(r io.Reader) []*Entry {
	var entries []*Entry
	s := mdconf.NewScanner(r)
	for {
		line, ok := s.Line()
		if !ok {
			break
		}
		if e := parseEntry(line); e != nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// Load reads and parses the mdstat file at path ("" for DefaultPath).
func Load(path string) ([]*Entry, error) {
	if path == "" {
		path = DefaultPath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read mdstat: %w", err)
	}
	defer f.Close()
	return Read(f), nil
}

// Containers returns the device paths of assembled container arrays:
// external metadata, not a subarray.
func Containers(entries []*Entry) []string {
	var devs []string
	for _, e := range entries {
		if e.IsExternal() && !e.IsSubarray() {
			devs = append(devs, "/dev/"+e.Name)
		}
	}
	return devs
}

// parseEntry interprets one logical mdstat line. The status continuation
// ("... blocks super 1.2 [2/2] [UU]") is indented, so the scanner folds it
// into the same logical line as the device words.
func parseEntry(line mdconf.Line) *Entry {
	name := line.Keyword()
	if !strings.HasPrefix(name, "md") {
		return nil
	}
	e := &Entry{Name: name}
	inSuper := false
	for _, w := range line.Args() {
		switch {
		case w == ":":
		case inSuper:
			e.MetadataVersion = w
			inSuper = false
		case w == "super":
			inSuper = true
		case w == "active":
			e.Active = true
		case w == "inactive":
			e.Active = false
		case w == "(read-only)":
			e.ReadOnly = true
		case w == "(auto-read-only)":
			e.AutoReadOnly = true
		case e.Level == "" && isLevel(w):
			// Only the first level word counts; the status tail can
			// contain bare numbers ("algorithm 2") that parse as levels.
			e.Level = w
		case strings.ContainsRune(w, '['):
			if dev := memberName(w); dev != "" {
				e.Members = append(e.Members, dev)
			}
		}
	}
	return e
}

func isLevel(w string) bool {
	_, ok := mdconf.ParseLevel(w)
	return ok
}

// memberName strips the role suffix from a member device word:
// "sda1[0](S)" names sda1.
func memberName(w string) string {
	i := strings.IndexByte(w, '[')
	if i <= 0 {
		return ""
	}
	return w[:i]
}
