package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/mdtools/mdconf/pkg/logging"
	"github.com/mdtools/mdconf/pkg/mdconf"
)

// cmdShell runs the interactive query loop. The loader's diagnostics are
// captured so "diag" can replay them on demand.
func cmdShell(ctx *cli.Context) error {
	capture := logging.NewCapture(slog.Default().Handler())
	logger := slog.New(capture)

	cfg := newConfigWithLogger(ctx, logger)
	if err := cfg.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "mdconf: %v (proceeding with defaults)\n", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mdconf> ",
		HistoryFile:     "/tmp/mdconf_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    shellCompleter,
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			return nil
		}
		runShellCommand(rl.Stdout(), cfg, capture, fields)
	}
}

var shellCompleter = readline.NewPrefixCompleter(
	readline.PcItem("dump"),
	readline.PcItem("devices"),
	readline.PcItem("test-device"),
	readline.PcItem("test-metadata"),
	readline.PcItem("name-free"),
	readline.PcItem("identity"),
	readline.PcItem("diag"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func runShellCommand(w io.Writer, cfg *mdconf.Config, capture *logging.Capture, fields []string) {
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "dump":
		dumpConfig(w, cfg)
	case "devices":
		for _, dev := range cfg.Devices() {
			fmt.Fprintln(w, dev)
		}
	case "test-device":
		for _, dev := range args {
			fmt.Fprintf(w, "%s: %s\n", dev, allowed(cfg.TestDevice(dev)))
		}
	case "test-metadata":
		homehost := false
		var tags []string
		for _, a := range args {
			if a == "homehost" {
				homehost = true
				continue
			}
			tags = append(tags, a)
		}
		for _, tag := range tags {
			fmt.Fprintf(w, "%s: %s\n", tag, allowed(cfg.TestMetadata(tag, homehost)))
		}
	case "name-free":
		for _, name := range args {
			if cfg.NameIsFree(name) {
				fmt.Fprintf(w, "%s: free\n", name)
			} else {
				fmt.Fprintf(w, "%s: taken\n", name)
			}
		}
	case "identity":
		for _, dev := range args {
			if id := cfg.IdentityFor(dev); id != nil {
				fmt.Fprintf(w, "%s: %s\n", dev, identityString(id))
			} else {
				fmt.Fprintf(w, "%s: no configured identity\n", dev)
			}
		}
	case "diag":
		for _, rec := range capture.Records() {
			fmt.Fprintln(w, rec)
		}
	default:
		fmt.Fprintf(w, "unknown command %q (try: dump devices test-device test-metadata name-free identity diag exit)\n", cmd)
	}
}
