// mdconf inspects and queries mdadm configuration files.
//
// It loads a configuration, reports the diagnostics a load produces, and
// answers the questions a managing process would ask: is this device
// eligible for scanning, may this metadata format be auto-assembled, is
// this array name still free, and what does the device universe look like.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mdtools/mdconf/pkg/discovery"
	"github.com/mdtools/mdconf/pkg/mdconf"
)

func main() {
	app := &cli.App{
		Name:  "mdconf",
		Usage: "inspect and query mdadm configuration files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (or the sentinels \"none\" / \"partitions\")",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(ctx *cli.Context) error {
			level := slog.LevelInfo
			if ctx.Bool("debug") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "dump",
				Usage:  "print the parsed configuration",
				Action: cmdDump,
			},
			{
				Name:   "devices",
				Usage:  "enumerate the device universe",
				Action: cmdDevices,
			},
			{
				Name:      "test-device",
				Usage:     "check whether a device may be scanned",
				ArgsUsage: "DEVNAME...",
				Action:    cmdTestDevice,
			},
			{
				Name:      "test-metadata",
				Usage:     "check whether a metadata format may be auto-assembled",
				ArgsUsage: "FORMAT...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "homehost",
						Usage: "treat the array as associated with this host",
					},
				},
				Action: cmdTestMetadata,
			},
			{
				Name:      "name-free",
				Usage:     "check whether an array name is unclaimed",
				ArgsUsage: "NAME...",
				Action:    cmdNameFree,
			},
			{
				Name:   "shell",
				Usage:  "interactive query shell",
				Action: cmdShell,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "mdconf: %v\n", err)
		os.Exit(1)
	}
}

// newConfig builds a Config store wired to the live system enumerators.
func newConfig(ctx *cli.Context) *mdconf.Config {
	return newConfigWithLogger(ctx, nil)
}

func newConfigWithLogger(ctx *cli.Context, logger *slog.Logger) *mdconf.Config {
	enum := discovery.New()
	return mdconf.New(mdconf.Options{
		Path:           ctx.String("config"),
		Logger:         logger,
		ListPartitions: enum.Partitions,
		ListContainers: enum.Containers,
	})
}

func cmdDump(ctx *cli.Context) error {
	cfg := newConfig(ctx)
	if err := cfg.Load(); err != nil {
		return err
	}
	dumpConfig(os.Stdout, cfg)
	return nil
}

func cmdDevices(ctx *cli.Context) error {
	cfg := newConfig(ctx)
	if err := cfg.Load(); err != nil {
		return err
	}
	for _, dev := range cfg.Devices() {
		fmt.Println(dev)
	}
	return nil
}

func cmdTestDevice(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("test-device needs at least one device name")
	}
	cfg := newConfig(ctx)
	if err := cfg.Load(); err != nil {
		return err
	}
	for _, dev := range ctx.Args().Slice() {
		fmt.Printf("%s: %s\n", dev, allowed(cfg.TestDevice(dev)))
	}
	return nil
}

func cmdTestMetadata(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("test-metadata needs at least one format tag")
	}
	cfg := newConfig(ctx)
	if err := cfg.Load(); err != nil {
		return err
	}
	for _, tag := range ctx.Args().Slice() {
		fmt.Printf("%s: %s\n", tag, allowed(cfg.TestMetadata(tag, ctx.Bool("homehost"))))
	}
	return nil
}

func cmdNameFree(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("name-free needs at least one name")
	}
	cfg := newConfig(ctx)
	if err := cfg.Load(); err != nil {
		return err
	}
	for _, name := range ctx.Args().Slice() {
		if cfg.NameIsFree(name) {
			fmt.Printf("%s: free\n", name)
		} else {
			fmt.Printf("%s: taken\n", name)
		}
	}
	return nil
}

func allowed(ok bool) string {
	if ok {
		return "allowed"
	}
	return "denied"
}
