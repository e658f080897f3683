package discovery

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// devMap maps (major,minor) device numbers to /dev paths.
type devMap struct {
	byNum map[uint64]string
}

// scanDevDirs stats every entry of the given directories and records the
// block devices found. When several nodes share a device number the
// shortest path wins, so standard names beat aliases. Missing directories
// are not an error.
func scanDevDirs(dirs []string) (*devMap, error) {
	m := &devMap{byNum: make(map[uint64]string)}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, ent := range entries {
			path := filepath.Join(dir, ent.Name())
			var st unix.Stat_t
			if err := unix.Stat(path, &st); err != nil {
				continue
			}
			if st.Mode&unix.S_IFMT != unix.S_IFBLK {
				continue
			}
			num := uint64(st.Rdev)
			if prev, ok := m.byNum[num]; !ok || len(path) < len(prev) {
				m.byNum[num] = path
			}
		}
	}
	return m, nil
}

func (m *devMap) name(major, minor uint32) (string, bool) {
	path, ok := m.byNum[unix.Mkdev(major, minor)]
	return path, ok
}
