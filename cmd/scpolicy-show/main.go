//go:build linux && (amd64 || arm64 || riscv64)

// Command scpolicy-show prints catalog profiles for the architecture it
// was built for.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/sandboxkit/go-scpolicy/internal/scmp"
	"github.com/sandboxkit/go-scpolicy/scpolicy"
	"github.com/sandboxkit/go-scpolicy/scpolicy/profiles"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const usage = `print syscall allow-lists from the profile catalog

Profiles are printed for the architecture this binary was built for.
Several profiles are concatenated in the given order. Without
arguments, all profiles are printed.`

var ociActions = map[scmp.Action]specs.LinuxSeccompAction{
	scmp.ActKillProcess: specs.ActKillProcess,
	scmp.ActKillThread:  specs.ActKillThread,
	scmp.ActErrno:       specs.ActErrno,
	scmp.ActLog:         specs.ActLog,
	scmp.ActTrap:        specs.ActTrap,
}

func main() {
	app := cli.NewApp()
	app.Name = "scpolicy-show"
	app.Usage = usage
	app.ArgsUsage = "[PROFILE...]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "format, f",
			Value: "text",
			Usage: "output format: text, json or oci",
		},
		cli.StringFlag{
			Name:  "default-action",
			Value: string(scmp.ActKillProcess),
			Usage: "default action for the oci format: " + strings.Join(scmp.Actions(), ", "),
		},
		cli.BoolFlag{
			Name:  "list, l",
			Usage: "only list the profile names",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.Bool("debug") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	}
	app.Action = func(c *cli.Context) error {
		if c.Bool("list") {
			for _, n := range profiles.Names() {
				fmt.Println(n)
			}
			return nil
		}
		names := []string(c.Args())
		if len(names) == 0 {
			names = profiles.Names()
		}
		logrus.WithFields(logrus.Fields{
			"arch":     runtime.GOARCH,
			"profiles": names,
		}).Debug("composing profiles")

		rs, err := profiles.Compose(names...)
		if err != nil {
			return err
		}
		return write(os.Stdout, c.String("format"), scmp.Action(c.String("default-action")), names, rs)
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

type jsonRule struct {
	Name    string     `json:"name"`
	Number  uintptr    `json:"number"`
	Filters [][]string `json:"filters,omitempty"`
}

type jsonProfile struct {
	Arch     string     `json:"arch"`
	Profiles []string   `json:"profiles"`
	Rules    []jsonRule `json:"rules"`
}

func write(w io.Writer, format string, action scmp.Action, names []string, rs scpolicy.RuleSet) error {
	switch format {
	case "text":
		fmt.Fprintf(w, "# %s on %s/%s\n", strings.Join(names, " + "), runtime.GOOS, runtime.GOARCH)
		for _, r := range rs {
			fmt.Fprintf(w, "%-4d %v\n", uintptr(r.Sysno), r)
		}
		return nil
	case "json":
		out := jsonProfile{Arch: runtime.GOARCH, Profiles: names}
		for _, r := range rs {
			jr := jsonRule{Name: r.Sysno.String(), Number: uintptr(r.Sysno)}
			for _, f := range r.Filters {
				conds := make([]string, len(f))
				for i, c := range f {
					conds[i] = c.String()
				}
				jr.Filters = append(jr.Filters, conds)
			}
			out.Rules = append(out.Rules, jr)
		}
		return encode(w, out)
	case "oci":
		if err := action.Validate(); err != nil {
			return err
		}
		spec, err := rs.LinuxSeccomp(ociActions[action])
		if err != nil {
			return err
		}
		return encode(w, spec)
	}
	return fmt.Errorf("unknown format %q; want text, json or oci", format)
}

func encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
