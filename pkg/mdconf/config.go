package mdconf

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Default configuration file locations. The alternate path exists for
// Debian compatibility: if the primary default does not exist, it is tried
// next.
const (
	DefaultConfFile    = "/etc/mdadm.conf"
	DefaultAltConfFile = "/etc/mdadm/mdadm.conf"
)

// Sentinel path values accepted in place of a file name.
const (
	// PathNone disables configuration entirely: no identities, no
	// device patterns beyond explicit ones.
	PathNone = "none"
	// PathPartitions treats the device universe as exactly the
	// enumerated partitions.
	PathPartitions = "partitions"
)

// Options configures a Config store. The enumeration and lookup functions
// are collaborators the core calls; nil fields get the defaults noted.
type Options struct {
	// Path of the configuration file, a sentinel value, or "" for the
	// default locations.
	Path string

	// Logger receives one warning per dropped or ignored input.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Formats is the metadata format registry consulted by metadata=
	// options, first match wins. Defaults to DefaultFormats.
	Formats []FormatMatcher

	// ListPartitions enumerates the operating system's partition block
	// devices (the "partitions" DEVICE pattern). Nil disables it.
	ListPartitions func() ([]string, error)
	// ListContainers enumerates assembled container arrays (the
	// "containers" DEVICE pattern). Nil disables it.
	ListContainers func() ([]string, error)
	// Glob expands a literal device pattern. Defaults to filepath.Glob.
	Glob func(pattern string) ([]string, error)

	// LookupUser and LookupGroup resolve CREATE owner=/group= names to
	// ids. Defaults use the system user and group databases.
	LookupUser  func(name string) (int, error)
	LookupGroup func(name string) (int, error)
}

// Config is the parsed configuration store. It is constructed empty and
// populated by the first accessor call that needs it: the load happens at
// most once per Config, guarded by a mutex so concurrent accessors are
// safe. Tests reset state by constructing a fresh Config.
type Config struct {
	opts Options

	mu      sync.Mutex
	loaded  bool
	loadErr error

	devicePatterns []string
	identities     []*ArrayIdentity
	create         CreateInfo
	mailAddr       string
	mailFrom       string
	program        string
	homehost       string
	requireHome    bool
	autoSeen       bool
	autoOptions    []string
	formats        []FormatMatcher
	diags          []string
}

// New creates a Config store for the given options. Nothing is read until
// the first accessor call.
func New(opts Options) *Config {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Formats == nil {
		opts.Formats = DefaultFormats
	}
	if opts.Glob == nil {
		opts.Glob = filepath.Glob
	}
	return &Config{
		opts:        opts,
		create:      defaultCreateInfo(),
		requireHome: true,
		formats:     opts.Formats,
	}
}

// warnf records one diagnostic for a dropped or ignored input.
func (c *Config) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.diags = append(c.diags, msg)
	c.opts.Logger.Warn(msg)
}

func (c *Config) lookupUser(name string) (int, error) {
	if c.opts.LookupUser != nil {
		return c.opts.LookupUser(name)
	}
	u, err := user.Lookup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(u.Uid)
}

func (c *Config) lookupGroup(name string) (int, error) {
	if c.opts.LookupGroup != nil {
		return c.opts.LookupGroup(name)
	}
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(g.Gid)
}

// load reads and interprets the configuration file. The caller holds
// c.mu. A successful load (including the sentinels) latches; a failure to
// open the file does not, so a later call may retry.
func (c *Config) load() {
	if c.loaded {
		return
	}

	path := c.opts.Path
	switch path {
	case PathNone:
		c.loaded = true
		return
	case PathPartitions:
		c.deviceLine(Line{"DEVICE", "partitions"})
		c.loaded = true
		return
	}

	usingDefault := path == ""
	if usingDefault {
		path = DefaultConfFile
	}
	f, err := os.Open(path)
	if err != nil && usingDefault {
		if alt, altErr := os.Open(DefaultAltConfFile); altErr == nil {
			f, err = alt, nil
			path = DefaultAltConfFile
		}
	}
	if err != nil {
		c.loadErr = fmt.Errorf("no configuration available: %w", err)
		return
	}
	defer f.Close()

	c.loaded = true
	c.loadErr = nil
	s := NewScanner(f)
	for {
		line, ok := s.Line()
		if !ok {
			break
		}
		c.handleLine(line)
	}
}

// handleLine dispatches one logical line to its record builder.
func (c *Config) handleLine(line Line) {
	kind, ok := MatchKeyword(line.Keyword())
	if !ok {
		c.warnf("unknown keyword %s", line.Keyword())
		return
	}
	switch kind {
	case Devices:
		c.deviceLine(line)
	case Array:
		c.arrayLine(line)
	case Mailaddr:
		c.mailLine(line)
	case Mailfrom:
		c.mailFromLine(line)
	case Program:
		c.programLine(line)
	case CreateDev:
		c.createLine(line)
	case Homehost:
		c.homehostLine(line)
	case AutoMode:
		c.autoLine(line)
	}
}

// deviceLine appends each argument as a device pattern: an absolute
// path/glob, or the reserved words "partitions" / "containers".
func (c *Config) deviceLine(line Line) {
	for _, w := range line.Args() {
		if strings.HasPrefix(w, "/") ||
			strings.EqualFold(w, "partitions") ||
			strings.EqualFold(w, "containers") {
			c.devicePatterns = append(c.devicePatterns, w)
		} else {
			c.warnf("unrecognised word on DEVICE line: %s", w)
		}
	}
}

// mailLine sets the alert mail address; a single address is allowed.
func (c *Config) mailLine(line Line) {
	for _, w := range line.Args() {
		if c.mailAddr == "" {
			c.mailAddr = w
		} else {
			c.warnf("excess address on MAIL line: %s - ignored", w)
		}
	}
}

// mailFromLine sets the alert From: address. Unlike the other singletons,
// extra words accumulate, separated by spaces.
func (c *Config) mailFromLine(line Line) {
	for _, w := range line.Args() {
		if c.mailFrom == "" {
			c.mailFrom = w
		} else {
			c.mailFrom += " " + w
		}
	}
}

// programLine sets the alert program path; a single program is allowed.
func (c *Config) programLine(line Line) {
	for _, w := range line.Args() {
		if c.program == "" {
			c.program = w
		} else {
			c.warnf("excess program on PROGRAM line: %s - ignored", w)
		}
	}
}

// homehostLine sets the homehost name. The IgnoreToken drops the
// requirement that arrays match the homehost instead of naming one.
func (c *Config) homehostLine(line Line) {
	for _, w := range line.Args() {
		if strings.EqualFold(w, IgnoreToken) {
			c.requireHome = false
		} else if c.homehost == "" {
			c.homehost = w
		} else {
			c.warnf("excess host name on HOMEHOST line: %s - ignored", w)
		}
	}
}

// Load triggers the one-time load and reports whether a configuration
// source could be opened. Accessors load implicitly; Load exists for
// callers that want the error.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.loadErr
}

// MailAddr returns the MAILADDR alert address, or "".
func (c *Config) MailAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.mailAddr
}

// MailFrom returns the accumulated MAILFROM address, or "".
func (c *Config) MailFrom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.mailFrom
}

// Program returns the PROGRAM alert program path, or "".
func (c *Config) Program() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.program
}

// Homehost returns the configured homehost name (possibly "") and whether
// a homehost match is required before acting on an array.
func (c *Config) Homehost() (host string, required bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.homehost, c.requireHome
}

// CreateDefaults returns the CREATE line defaults.
func (c *Config) CreateDefaults() CreateInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.create
}

// Identities returns the configured array identities in file order.
func (c *Config) Identities() []*ArrayIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.identities
}

// IdentityFor returns the first identity whose devname names dev, or nil.
func (c *Config) IdentityFor(dev string) *ArrayIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	for _, id := range c.identities {
		if id.Devname != "" && NameMatches(dev, id.Devname) {
			return id
		}
	}
	return nil
}

// MatchArray finds the unique configured identity matching a discovered
// array. It returns (nil, nil) when none matches and an
// *AmbiguousMatchError when more than one does.
func (c *Config) MatchArray(d DiscoveredArray) (*ArrayIdentity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.matchArray(d)
}

// TestDevice reports whether a device name is eligible for scanning: true
// when no DEVICE directive was given at all, when a "partitions" pattern
// is present (which admits anything), or when the name matches a stored
// pattern.
func (c *Config) TestDevice(devname string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	if len(c.devicePatterns) == 0 {
		// Allow anything by default.
		return true
	}
	for _, pat := range c.devicePatterns {
		if strings.EqualFold(pat, "partitions") {
			return true
		}
		if ok, err := filepath.Match(pat, devname); err == nil && ok {
			return true
		}
	}
	return false
}

// TestMetadata reports whether the metadata format named by version may
// be auto-assembled, per the AUTO line policy. isHomehost states whether
// the array is associated with this host.
func (c *Config) TestMetadata(version string, isHomehost bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.testMetadata(version, isHomehost)
}

// NameIsFree reports whether name is not already taken by an ARRAY entry,
// by devname, name= or super-minor.
func (c *Config) NameIsFree(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	for _, id := range c.identities {
		if id.Devname != "" && NameMatches(name, id.Devname) {
			return false
		}
		if id.Name != "" && NameMatches(name, id.Name) {
			return false
		}
		if id.SuperMinor != nil && NameMatches(name, strconv.Itoa(*id.SuperMinor)) {
			return false
		}
	}
	return true
}

// DevicePatterns returns the stored DEVICE patterns in file order.
func (c *Config) DevicePatterns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.devicePatterns
}

// Devices enumerates the device universe. Unlike everything else parsed
// from the file this is re-queried on every call: patterns are expanded
// afresh, and the reserved "partitions" / "containers" words pull the
// current operating-system state through the configured collaborators.
// With no DEVICE directive at all the universe defaults to partitions
// plus containers.
func (c *Config) Devices() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()

	patterns := c.devicePatterns
	if len(patterns) == 0 {
		patterns = []string{"partitions", "containers"}
	}

	var devs []string
	for _, pat := range patterns {
		switch {
		case strings.EqualFold(pat, "partitions"):
			devs = c.appendEnumerated(devs, pat, c.opts.ListPartitions)
		case strings.EqualFold(pat, "containers"):
			devs = c.appendEnumerated(devs, pat, c.opts.ListContainers)
		default:
			names, err := c.opts.Glob(pat)
			if err != nil {
				c.opts.Logger.Warn("bad device pattern", "pattern", pat, "err", err)
				continue
			}
			devs = append(devs, names...)
		}
	}
	return devs
}

func (c *Config) appendEnumerated(devs []string, what string, list func() ([]string, error)) []string {
	if list == nil {
		return devs
	}
	names, err := list()
	if err != nil {
		c.opts.Logger.Warn("cannot enumerate devices", "source", what, "err", err)
		return devs
	}
	return append(devs, names...)
}

// Diagnostics returns the one-line diagnostics emitted for dropped or
// ignored inputs during load, in file order.
func (c *Config) Diagnostics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.diags
}
