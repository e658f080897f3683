package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mdtools/mdconf/pkg/mdconf"
)

// dumpConfig prints a human-readable rendering of the parsed store.
func dumpConfig(w io.Writer, cfg *mdconf.Config) {
	if pats := cfg.DevicePatterns(); len(pats) > 0 {
		fmt.Fprintf(w, "DEVICE %s\n", strings.Join(pats, " "))
	}
	for _, id := range cfg.Identities() {
		fmt.Fprintf(w, "ARRAY %s\n", identityString(id))
	}
	if addr := cfg.MailAddr(); addr != "" {
		fmt.Fprintf(w, "MAILADDR %s\n", addr)
	}
	if from := cfg.MailFrom(); from != "" {
		fmt.Fprintf(w, "MAILFROM %s\n", from)
	}
	if prog := cfg.Program(); prog != "" {
		fmt.Fprintf(w, "PROGRAM %s\n", prog)
	}
	if host, required := cfg.Homehost(); host != "" || !required {
		if !required {
			fmt.Fprintf(w, "HOMEHOST <ignore> %s\n", host)
		} else {
			fmt.Fprintf(w, "HOMEHOST %s\n", host)
		}
	}
	ci := cfg.CreateDefaults()
	fmt.Fprintf(w, "CREATE owner=%d group=%d mode=%04o symlinks=%s\n",
		ci.UID, ci.GID, ci.Mode, yesNo(ci.Symlinks))
	if diags := cfg.Diagnostics(); len(diags) > 0 {
		fmt.Fprintf(w, "# %d diagnostic(s):\n", len(diags))
		for _, d := range diags {
			fmt.Fprintf(w, "#   %s\n", d)
		}
	}
}

// identityString renders one identity roughly the way --brief output would.
func identityString(id *mdconf.ArrayIdentity) string {
	var parts []string
	if id.Devname != "" {
		parts = append(parts, id.Devname)
	}
	if id.UUID != nil {
		parts = append(parts, "uuid="+id.UUID.String())
	}
	if id.Name != "" {
		parts = append(parts, "name="+id.Name)
	}
	if id.SuperMinor != nil {
		parts = append(parts, fmt.Sprintf("super-minor=%d", *id.SuperMinor))
	}
	if id.Devices != "" {
		parts = append(parts, "devices="+id.Devices)
	}
	if id.SpareGroup != "" {
		parts = append(parts, "spare-group="+id.SpareGroup)
	}
	if id.Format != nil {
		parts = append(parts, "metadata="+id.Format.Name)
	}
	if id.Container != "" {
		parts = append(parts, "container="+id.Container)
	}
	if id.Member != "" {
		parts = append(parts, "member="+id.Member)
	}
	return strings.Join(parts, " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
