// Package config reads the YAML configuration of scpolicy-exec.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sandboxkit/go-scpolicy/internal/scmp"
	"gopkg.in/yaml.v3"
)

// Config selects the rule sets a jailed program runs under and how
// the filter treats everything else.
//
// Example:
//
//	profiles: [runtime-baseline, launcher]
//	default_action: errno
//	errno: 1
//	extra_syscalls: [write]
type Config struct {
	Profiles      []string    `yaml:"profiles"`
	DefaultAction scmp.Action `yaml:"default_action"`
	Errno         int16       `yaml:"errno"`
	Log           bool        `yaml:"log"`
	ExtraSyscalls []string    `yaml:"extra_syscalls"`
}

// Default returns the configuration used without a config file.
func Default() Config {
	return Config{
		DefaultAction: scmp.ActKillProcess,
	}
}

// Parse decodes a YAML document on top of Default(). Unknown keys are
// errors.
func Parse(buf []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg.withErrno(), nil
}

// withErrno fills in the errno returned by an errno default action
// when none is configured.
func (c Config) withErrno() Config {
	if c.DefaultAction == scmp.ActErrno && c.Errno == 0 {
		c.Errno = scmp.DefaultErrno
	}
	return c
}

// Load reads and parses the config file at path.
func Load(path string) (Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(buf)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that can be checked without resolving
// profiles or syscall names.
func (c Config) Validate() error {
	if err := c.DefaultAction.Validate(); err != nil {
		return err
	}
	if c.Errno < 0 || c.Errno > scmp.MaxErrno {
		return fmt.Errorf("errno %d out of range 1..%d", c.Errno, scmp.MaxErrno)
	}
	if c.Errno != 0 && c.DefaultAction != scmp.ActErrno {
		return fmt.Errorf("errno is set but default_action is %q", c.DefaultAction)
	}
	seen := map[string]bool{}
	for _, p := range c.Profiles {
		if seen[p] {
			return fmt.Errorf("profile %q listed twice", p)
		}
		seen[p] = true
	}
	return nil
}

// Options converts c to filter engine options.
func (c Config) Options() scmp.Options {
	c = c.withErrno()
	return scmp.Options{
		DefaultAction: c.DefaultAction,
		ErrnoCode:     c.Errno,
		Log:           c.Log,
		ExtraSyscalls: c.ExtraSyscalls,
	}
}
