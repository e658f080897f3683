// Package discovery enumerates the block-device universe for mdconf: the
// "partitions" pattern from the kernel's disk statistics and the
// "containers" pattern from assembled external-metadata arrays.
package discovery

import (
	"fmt"

	"github.com/prometheus/procfs/blockdevice"

	"github.com/mdtools/mdconf/pkg/mdstat"
)

// Enumerator resolves the reserved DEVICE patterns against the running
// system. The zero value is not usable; call New.
type Enumerator struct {
	// ProcRoot and SysRoot are the procfs/sysfs mount points,
	// overridable for tests.
	ProcRoot string
	SysRoot  string
	// DevDirs are the directories scanned to map device numbers back to
	// paths.
	DevDirs []string
	// MdstatPath is the mdstat file consulted for containers.
	MdstatPath string
}

// New creates an Enumerator for the standard system paths.
func New() *Enumerator {
	return &Enumerator{
		ProcRoot:   "/proc",
		SysRoot:    "/sys",
		DevDirs:    []string{"/dev", "/dev/md"},
		MdstatPath: mdstat.DefaultPath,
	}
}

// Partitions lists the device paths of every partition and disk the
// kernel reports, in diskstats order. Devices with no node under the
// scanned directories are skipped.
func (e *Enumerator) Partitions() ([]string, error) {
	fs, err := blockdevice.NewFS(e.ProcRoot, e.SysRoot)
	if err != nil {
		return nil, fmt.Errorf("open procfs: %w", err)
	}
	stats, err := fs.ProcDiskstats()
	if err != nil {
		return nil, fmt.Errorf("read diskstats: %w", err)
	}
	devmap, err := scanDevDirs(e.DevDirs)
	if err != nil {
		return nil, err
	}

	var devs []string
	for _, d := range stats {
		if name, ok := devmap.name(d.MajorNumber, d.MinorNumber); ok {
			devs = append(devs, name)
		}
	}
	return devs, nil
}

// Containers lists the device paths of assembled container arrays.
func (e *Enumerator) Containers() ([]string, error) {
	entries, err := mdstat.Load(e.MdstatPath)
	if err != nil {
		return nil, err
	}
	return mdstat.Containers(entries), nil
}
