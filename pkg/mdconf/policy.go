package mdconf

import "strings"

// autoLine stores the AUTO policy rule list. Only one AUTO line is
// allowed; the whole of any subsequent line is ignored.
func (c *Config) autoLine(line Line) {
	if c.autoSeen {
		c.warnf("AUTO line may only be given once, subsequent lines ignored")
		return
	}
	c.autoSeen = true
	c.autoOptions = append([]string(nil), line.Args()...)
}

// testMetadata decides whether the metadata format named by version may be
// auto-assembled. The default is yes, but an AUTO line overrides it: its
// words are processed in order and the first match wins.
//
//	+version    that version can be assembled
//	-version    that version cannot be auto-assembled
//	yes / +all  any other version can be assembled
//	no / -all   no other version can be assembled
//	homehost    any array associated to this host can be assembled
//
// So "+ddf -0.90 homehost -all" auto-assembles any ddf array, no 0.90
// array, and any other array (imsm, 1.x) only when it belongs to this
// host. A rule list that exhausts without matching still permits: the
// unspecified-formats-default-to-allowed rule applies even when AUTO rules
// exist.
func (c *Config) testMetadata(version string, isHomehost bool) bool {
	if !c.autoSeen {
		return true
	}
	for _, w := range c.autoOptions {
		if w == "" {
			continue
		}
		if strings.EqualFold(w, "yes") {
			return true
		}
		if strings.EqualFold(w, "no") {
			return false
		}
		if strings.EqualFold(w, "homehost") {
			if isHomehost {
				return true
			}
			continue
		}
		var rv bool
		switch w[0] {
		case '+':
			rv = true
		case '-':
			rv = false
		default:
			continue
		}
		tag := w[1:]
		if strings.EqualFold(tag, "all") {
			return rv
		}
		if strings.EqualFold(tag, version) {
			return rv
		}
		// Allow '0' to match version '0.90', and 1 or 1.whatever to
		// match version '1.x'.
		if len(version) >= 2 && version[1] == '.' &&
			len(tag) == 1 && tag[0] == version[0] {
			return rv
		}
		if len(version) >= 3 && version[1] == '.' && version[2] == 'x' &&
			len(tag) >= 2 && tag[0] == version[0] && tag[1] == version[1] {
			return rv
		}
	}
	return true
}
