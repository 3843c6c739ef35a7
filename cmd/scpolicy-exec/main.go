//go:build linux && (amd64 || arm64 || riscv64)

// Command scpolicy-exec runs a program under a seccomp filter built
// from catalog profiles.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sandboxkit/go-scpolicy/internal/config"
	"github.com/sandboxkit/go-scpolicy/internal/scmp"
	"github.com/sandboxkit/go-scpolicy/scpolicy/profiles"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/sys/unix"
)

const usage = `run a program under a seccomp allow-list

The filter is built from catalog profiles (by default all of them),
installed on the current thread, and then the program is executed in
place of scpolicy-exec. The program path must be absolute.

The program only gets the syscalls of the chosen profiles and --extra.
A dynamically linked program needs many more than the catalog holds;
use --default-action=log to see which, or run a static binary that
does little more than exit.

Examples:

   scpolicy-exec --default-action log -- /bin/true
   scpolicy-exec --extra write -- /usr/local/bin/static-hello`

// defaultProfiles cover a launcher that runs its own runtime
// housekeeping up to execve.
var defaultProfiles = []string{profiles.NameRuntimeBaseline, profiles.NameLauncher}

// launcherExtras are allowed on top of every configuration. The
// filter is installed while this Go program still runs, and a signal
// delivered in that window returns through rt_sigreturn.
var launcherExtras = []string{"rt_sigreturn"}

func main() {
	app := cli.NewApp()
	app.Name = "scpolicy-exec"
	app.Usage = usage
	app.ArgsUsage = "-- /ABS/PATH [ARG...]"
	app.Flags = flags()
	app.Before = func(c *cli.Context) error {
		if c.Bool("debug") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "YAML config file",
		},
		cli.StringSliceFlag{
			Name:  "profile, p",
			Usage: "profile to allow, may be repeated (default: " + strings.Join(defaultProfiles, ", ") + ")",
		},
		cli.StringFlag{
			Name:  "default-action",
			Usage: "action for syscalls outside the profiles: " + strings.Join(scmp.Actions(), ", "),
		},
		cli.IntFlag{
			Name:  "errno",
			Usage: "errno returned with --default-action=errno",
		},
		cli.BoolFlag{
			Name:  "log",
			Usage: "ask the kernel to log all non-allow actions",
		},
		cli.StringSliceFlag{
			Name:  "extra, e",
			Usage: "additional syscall to allow by name, may be repeated",
		},
		cli.StringFlag{
			Name:  "export-bpf",
			Usage: "write the compiled BPF program to this file",
		},
		cli.BoolFlag{
			Name:  "dry-run, n",
			Usage: "build (and export) the filter but do not run the program",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}
}

// loadConfig merges the config file and command line flags, flags
// taking precedence.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if c.IsSet("profile") {
		cfg.Profiles = c.StringSlice("profile")
	}
	if c.IsSet("default-action") {
		cfg.DefaultAction = scmp.Action(c.String("default-action"))
	}
	if c.IsSet("errno") {
		n := c.Int("errno")
		if n < 1 || n > scmp.MaxErrno {
			return config.Config{}, fmt.Errorf("--errno %d out of range 1..%d", n, scmp.MaxErrno)
		}
		cfg.Errno = int16(n)
	}
	if c.IsSet("log") {
		cfg.Log = c.Bool("log")
	}
	if c.IsSet("extra") {
		cfg.ExtraSyscalls = append(cfg.ExtraSyscalls, c.StringSlice("extra")...)
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = defaultProfiles
	}
	for _, name := range launcherExtras {
		if !contains(cfg.ExtraSyscalls, name) {
			cfg.ExtraSyscalls = append(cfg.ExtraSyscalls, name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	argv := []string(c.Args())
	if !c.Bool("dry-run") {
		if len(argv) < 1 {
			return cli.NewExitError("need a program to run", 2)
		}
		if !filepath.IsAbs(argv[0]) {
			return cli.NewExitError(fmt.Sprintf("need absolute program path, got %q", argv[0]), 2)
		}
	}

	rs, err := profiles.Compose(cfg.Profiles...)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"profiles":       cfg.Profiles,
		"syscalls":       len(rs),
		"extra":          cfg.ExtraSyscalls,
		"default_action": cfg.DefaultAction,
	}).Debug("building seccomp filter")

	filter, err := scmp.Build(rs, cfg.Options())
	if err != nil {
		return err
	}
	defer filter.Release()

	if path := c.String("export-bpf"); path != "" {
		if err := exportBPF(filter, path); err != nil {
			return err
		}
		logrus.Debugf("exported BPF program to %s", path)
	}
	if c.Bool("dry-run") {
		return nil
	}

	logrus.Debugf("executing %v", argv)

	// The filter applies to this thread only; execve carries it over
	// to the new program. Nothing may be logged from here on, as
	// write(2) is usually not allowed.
	runtime.LockOSThread()
	if err := scmp.SetNoNewPrivs(); err != nil {
		return err
	}
	env := os.Environ()
	if err := filter.Load(); err != nil {
		return err
	}
	err = unix.Exec(argv[0], argv, env)
	// Only reachable if execve itself was allowed but failed.
	return fmt.Errorf("execve %s: %w", argv[0], err)
}

func exportBPF(filter *scmp.Filter, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := filter.ExportBPF(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
