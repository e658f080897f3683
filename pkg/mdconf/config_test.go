package mdconf

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestConfig writes content to a temp file and returns a store for it.
func newTestConfig(t *testing.T, content string, opts Options) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mdadm.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	opts.Path = path
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return New(opts)
}

const sampleConf = `
# sample configuration
DEVICE /dev/sd[abc]* partitions
ARRAY /dev/md0 uuid=3aaa0122:29827cfa:5331ad66:ca767371
ARRAY /dev/md/home name=home spare-group=fast
ARRAY <ignore> super-minor=7
MAILADDR root@example.com
MAILFROM md monitor
PROGRAM /usr/sbin/handle-mdadm-events
HOMEHOST buildbox
CREATE owner=0 group=6 mode=0640 symlinks=no
AUTO +1.x homehost -all
`

func TestLoadSample(t *testing.T) {
	cfg := newTestConfig(t, sampleConf, Options{})
	require.NoError(t, cfg.Load())

	assert.Equal(t, []string{"/dev/sd[abc]*", "partitions"}, cfg.DevicePatterns())
	assert.Equal(t, "root@example.com", cfg.MailAddr())
	assert.Equal(t, "md monitor", cfg.MailFrom())
	assert.Equal(t, "/usr/sbin/handle-mdadm-events", cfg.Program())

	host, required := cfg.Homehost()
	assert.Equal(t, "buildbox", host)
	assert.True(t, required)

	ids := cfg.Identities()
	require.Len(t, ids, 3)
	assert.Equal(t, "/dev/md0", ids[0].Devname)
	require.NotNil(t, ids[0].UUID)
	assert.Equal(t, "home", ids[1].Name)
	assert.Equal(t, "fast", ids[1].SpareGroup)
	assert.Equal(t, IgnoreToken, ids[2].Devname)
	require.NotNil(t, ids[2].SuperMinor)
	assert.Equal(t, 7, *ids[2].SuperMinor)

	ci := cfg.CreateDefaults()
	assert.Equal(t, 0, ci.UID)
	assert.Equal(t, 6, ci.GID)
	assert.Equal(t, uint32(0o640), ci.Mode)
	assert.False(t, ci.Symlinks)

	assert.Empty(t, cfg.Diagnostics())
}

func TestLoadOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdadm.conf")
	require.NoError(t, os.WriteFile(path, []byte("MAILADDR first@example.com\n"), 0o600))
	cfg := New(Options{Path: path, Logger: quietLogger()})

	require.Equal(t, "first@example.com", cfg.MailAddr())

	// Rewriting the source must not change anything: the file is read
	// exactly once, and every later accessor sees the cached state.
	require.NoError(t, os.WriteFile(path, []byte("MAILADDR second@example.com\n"), 0o600))
	for i := 0; i < 3; i++ {
		assert.Equal(t, "first@example.com", cfg.MailAddr())
	}
}

func TestSentinels(t *testing.T) {
	cfg := New(Options{Path: PathNone, Logger: quietLogger()})
	require.NoError(t, cfg.Load())
	assert.Empty(t, cfg.Identities())
	assert.Empty(t, cfg.DevicePatterns())
	assert.True(t, cfg.TestDevice("/dev/whatever"))

	cfg = New(Options{Path: PathPartitions, Logger: quietLogger()})
	require.NoError(t, cfg.Load())
	assert.Equal(t, []string{"partitions"}, cfg.DevicePatterns())
}

func TestMissingFile(t *testing.T) {
	cfg := New(Options{
		Path:   filepath.Join(t.TempDir(), "does-not-exist"),
		Logger: quietLogger(),
	})
	assert.Error(t, cfg.Load())
	// Callers may proceed with defaults.
	assert.True(t, cfg.TestDevice("/dev/sda"))
	assert.True(t, cfg.TestMetadata("1.x", false))
}

func TestDuplicateMailaddr(t *testing.T) {
	cfg := newTestConfig(t, "MAILADDR a@x\nMAILADDR b@y\n", Options{})
	assert.Equal(t, "a@x", cfg.MailAddr())
	require.Len(t, cfg.Diagnostics(), 1)
	assert.Contains(t, cfg.Diagnostics()[0], "b@y")
}

func TestMailFromAccumulates(t *testing.T) {
	cfg := newTestConfig(t, "MAILFROM md daemon\nMAILFROM on host\n", Options{})
	assert.Equal(t, "md daemon on host", cfg.MailFrom())
	assert.Empty(t, cfg.Diagnostics())
}

func TestHomehostIgnore(t *testing.T) {
	cfg := newTestConfig(t, "HOMEHOST <ignore>\n", Options{})
	host, required := cfg.Homehost()
	assert.Equal(t, "", host)
	assert.False(t, required)
}

func TestUnknownKeyword(t *testing.T) {
	cfg := newTestConfig(t, "FROBNICATE stuff\nMAILADDR a@x\n", Options{})
	assert.Equal(t, "a@x", cfg.MailAddr())
	require.Len(t, cfg.Diagnostics(), 1)
	assert.Contains(t, cfg.Diagnostics()[0], "FROBNICATE")
}

func TestDeviceGating(t *testing.T) {
	cfg := newTestConfig(t, "DEVICE /dev/sd*\n", Options{})
	assert.True(t, cfg.TestDevice("/dev/sdb1"))
	assert.False(t, cfg.TestDevice("/dev/hda1"))

	// With no DEVICE directive at all, any device name is allowed.
	cfg = newTestConfig(t, "MAILADDR a@x\n", Options{})
	assert.True(t, cfg.TestDevice("/dev/hda1"))

	// "partitions" admits anything.
	cfg = newTestConfig(t, "DEVICE partitions\n", Options{})
	assert.True(t, cfg.TestDevice("/dev/hda1"))
}

func TestDeviceLineRejectsRelative(t *testing.T) {
	cfg := newTestConfig(t, "DEVICE sda1 /dev/sdb containers\n", Options{})
	assert.Equal(t, []string{"/dev/sdb", "containers"}, cfg.DevicePatterns())
	require.Len(t, cfg.Diagnostics(), 1)
	assert.Contains(t, cfg.Diagnostics()[0], "sda1")
}

func TestArrayWithoutIdentityRejected(t *testing.T) {
	// No uuid, name, super-minor, or container+member: no identity.
	// A devices= pattern alone does not identify an array.
	cfg := newTestConfig(t, `
ARRAY /dev/md0 spares=2
ARRAY /dev/md1 devices=/dev/sd*
ARRAY /dev/md2 container=/dev/md/imsm0
ARRAY /dev/md3 container=/dev/md/imsm0 member=0
`, Options{})
	ids := cfg.Identities()
	require.Len(t, ids, 1)
	assert.Equal(t, "/dev/md3", ids[0].Devname)
	assert.Len(t, cfg.Diagnostics(), 3)
}

func TestArrayDuplicateOptions(t *testing.T) {
	cfg := newTestConfig(t,
		"ARRAY /dev/md0 name=one name=two super-minor=3 super-minor=4\n", Options{})
	ids := cfg.Identities()
	require.Len(t, ids, 1)
	assert.Equal(t, "one", ids[0].Name)
	assert.Equal(t, 3, *ids[0].SuperMinor)
	assert.Len(t, cfg.Diagnostics(), 2)
}

func TestArrayDevnameRules(t *testing.T) {
	tests := []struct {
		devname string
		valid   bool
	}{
		{"/dev/md0", true},
		{"/dev/md15", true},
		{"/dev/md_d3", true},
		{"/dev/md/anything", true},
		{"<ignore>", true},
		{"bare-name", true},
		{"/dev/sda1", false},
		{"/dev/mdx", false},
		{"/dev/md_dx", false},
		{"<other>", false},
	}
	for _, tt := range tests {
		cfg := newTestConfig(t, "ARRAY "+tt.devname+" super-minor=1\n", Options{})
		ids := cfg.Identities()
		require.Len(t, ids, 1, tt.devname)
		if tt.valid {
			assert.Equal(t, tt.devname, ids[0].Devname, tt.devname)
			assert.Empty(t, cfg.Diagnostics(), tt.devname)
		} else {
			assert.Equal(t, "", ids[0].Devname, tt.devname)
			assert.NotEmpty(t, cfg.Diagnostics(), tt.devname)
		}
	}
}

func TestArraySecondDevnameConflict(t *testing.T) {
	cfg := newTestConfig(t, "ARRAY /dev/md0 /dev/md1 super-minor=0\n", Options{})
	ids := cfg.Identities()
	require.Len(t, ids, 1)
	assert.Equal(t, "/dev/md0", ids[0].Devname)
	require.Len(t, cfg.Diagnostics(), 1)
	assert.Contains(t, cfg.Diagnostics()[0], "/dev/md1")
}

func TestArrayOptionValidation(t *testing.T) {
	cfg := newTestConfig(t, `
ARRAY /dev/md0 uuid=notahexstring name=valid
ARRAY /dev/md1 super-minor=-1 name=alsovalid
ARRAY /dev/md2 name=`+strings.Repeat("x", 33)+` super-minor=2
`, Options{})
	ids := cfg.Identities()
	require.Len(t, ids, 3)
	assert.Nil(t, ids[0].UUID)
	assert.Equal(t, "valid", ids[0].Name)
	assert.Nil(t, ids[1].SuperMinor)
	assert.Equal(t, "", ids[2].Name)
	assert.Len(t, cfg.Diagnostics(), 3)
}

func TestArrayLevelAndCounts(t *testing.T) {
	cfg := newTestConfig(t,
		"ARRAY /dev/md0 name=big level=raid6 num-devices=5 spares=1 metadata=1.2\n", Options{})
	ids := cfg.Identities()
	require.Len(t, ids, 1)
	require.NotNil(t, ids[0].Level)
	assert.Equal(t, 6, *ids[0].Level)
	require.NotNil(t, ids[0].RaidDisks)
	assert.Equal(t, 5, *ids[0].RaidDisks)
	assert.Equal(t, 1, ids[0].SpareDisks)
	require.NotNil(t, ids[0].Format)
	assert.Equal(t, "1.x", ids[0].Format.Name)
	assert.Equal(t, "1.2", ids[0].Format.Version)
}

func TestAutoLineOnlyOnce(t *testing.T) {
	cfg := newTestConfig(t, "AUTO -all\nAUTO yes\n", Options{})
	// The second AUTO line is ignored whole, so -all still applies.
	assert.False(t, cfg.TestMetadata("1.x", false))
	assert.NotEmpty(t, cfg.Diagnostics())
}

func TestCreateLine(t *testing.T) {
	lookupUser := func(name string) (int, error) {
		require.Equal(t, "daemon", name)
		return 2, nil
	}
	lookupGroup := func(name string) (int, error) {
		require.Equal(t, "disk", name)
		return 6, nil
	}
	cfg := newTestConfig(t,
		"CREATE owner=daemon group=disk mode=0660 auto=md metadata=0.90 metadata=1.2\n",
		Options{LookupUser: lookupUser, LookupGroup: lookupGroup})

	ci := cfg.CreateDefaults()
	assert.Equal(t, 2, ci.UID)
	assert.Equal(t, 6, ci.GID)
	assert.Equal(t, uint32(0o660), ci.Mode)
	assert.Equal(t, AutofHomehostMd, ci.Autof)
	require.NotNil(t, ci.Format)
	assert.Equal(t, "0.90", ci.Format.Name)
	// Only the first metadata= ever sticks; the second is diagnosed.
	require.Len(t, cfg.Diagnostics(), 1)
	assert.Contains(t, cfg.Diagnostics()[0], "metadata")
}

func TestCreateBadMode(t *testing.T) {
	cfg := newTestConfig(t, "CREATE mode=0777\nCREATE mode=rwxrwx\n", Options{})
	ci := cfg.CreateDefaults()
	// A bad mode resets to 0600 rather than keeping the previous value.
	assert.Equal(t, uint32(0o600), ci.Mode)
	assert.Len(t, cfg.Diagnostics(), 1)
}

func TestCreateDefaults(t *testing.T) {
	cfg := New(Options{Path: PathNone, Logger: quietLogger()})
	ci := cfg.CreateDefaults()
	assert.Equal(t, AutofYes, ci.Autof)
	assert.Equal(t, uint32(0o600), ci.Mode)
	assert.True(t, ci.Symlinks)
	assert.Nil(t, ci.Format)
}

func TestIdentityFor(t *testing.T) {
	cfg := newTestConfig(t, `
ARRAY /dev/md0 super-minor=0
ARRAY /dev/md/home name=home
`, Options{})
	require.NotNil(t, cfg.IdentityFor("/dev/md0"))
	// Canonical matching: md0 and /dev/md0 are the same device.
	require.NotNil(t, cfg.IdentityFor("md0"))
	require.NotNil(t, cfg.IdentityFor("home"))
	assert.Nil(t, cfg.IdentityFor("/dev/md9"))
}

func TestNameIsFree(t *testing.T) {
	cfg := newTestConfig(t, `
ARRAY /dev/md0 super-minor=5
ARRAY <ignore> name=backup
`, Options{})
	assert.False(t, cfg.NameIsFree("/dev/md0"))
	assert.False(t, cfg.NameIsFree("md0"))
	// Taken by super-minor and by name= respectively.
	assert.False(t, cfg.NameIsFree("5"))
	assert.False(t, cfg.NameIsFree("backup"))
	assert.True(t, cfg.NameIsFree("/dev/md1"))
	assert.True(t, cfg.NameIsFree("scratch"))
}

func TestDevicesEnumeration(t *testing.T) {
	parts := func() ([]string, error) { return []string{"/dev/sda", "/dev/sda1"}, nil }
	conts := func() ([]string, error) { return []string{"/dev/md127"}, nil }
	glob := func(pattern string) ([]string, error) {
		require.Equal(t, "/dev/loop*", pattern)
		return []string{"/dev/loop0"}, nil
	}

	cfg := newTestConfig(t, "DEVICE /dev/loop* partitions containers\n",
		Options{ListPartitions: parts, ListContainers: conts, Glob: glob})
	assert.Equal(t,
		[]string{"/dev/loop0", "/dev/sda", "/dev/sda1", "/dev/md127"},
		cfg.Devices())

	// No DEVICE directive: the universe defaults to partitions plus
	// containers, re-queried on every call.
	cfg = newTestConfig(t, "MAILADDR a@x\n",
		Options{ListPartitions: parts, ListContainers: conts})
	assert.Equal(t, []string{"/dev/sda", "/dev/sda1", "/dev/md127"}, cfg.Devices())
	assert.Equal(t, []string{"/dev/sda", "/dev/sda1", "/dev/md127"}, cfg.Devices())
}
