// Package scmp hands rule sets to libseccomp, which compiles them into
// a BPF program and installs it.
//
// libseccomp support needs cgo and the "seccomp" build tag. Without
// them every entry point returns ErrSeccompNotEnabled.
package scmp

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// ErrSeccompNotEnabled is returned when seccomp support was disabled at
// build time.
var ErrSeccompNotEnabled = errors.New("seccomp not supported by this build (needs cgo and -tags seccomp)")

// Action is what the filter does with a syscall that no rule allows.
type Action string

const (
	ActKillProcess Action = "kill-process"
	ActKillThread  Action = "kill-thread"
	ActErrno       Action = "errno"
	ActLog         Action = "log"
	ActTrap        Action = "trap"
)

var knownActions = map[Action]bool{
	ActKillProcess: true,
	ActKillThread:  true,
	ActErrno:       true,
	ActLog:         true,
	ActTrap:        true,
}

// Actions returns the names of all supported default actions.
func Actions() []string {
	names := make([]string, 0, len(knownActions))
	for a := range knownActions {
		names = append(names, string(a))
	}
	sort.Strings(names)
	return names
}

// Validate checks that a is a known action.
func (a Action) Validate() error {
	if !knownActions[a] {
		return fmt.Errorf("unknown default action %q; want one of %v", string(a), Actions())
	}
	return nil
}

const (
	// DefaultErrno is returned with ActErrno when no code is set; it is
	// EPERM, as in OCI runtimes.
	DefaultErrno = 1
	// MaxErrno is the largest code the kernel passes through
	// SECCOMP_RET_ERRNO.
	MaxErrno = 4095
)

// Options configure how a rule set is turned into a filter.
type Options struct {
	// DefaultAction applies to syscalls that no rule allows. The zero
	// value means ActKillProcess.
	DefaultAction Action
	// ErrnoCode is returned to the caller with ActErrno. Zero means
	// DefaultErrno; a filter returning 0 would fake success.
	ErrnoCode int16
	// Log asks the kernel to log every action except allow.
	Log bool
	// ExtraSyscalls are allowed unconditionally in addition to the
	// rule set. They are resolved by name through libseccomp.
	ExtraSyscalls []string
}

func (o Options) action() Action {
	if o.DefaultAction == "" {
		return ActKillProcess
	}
	return o.DefaultAction
}

func (o Options) errno() (int16, error) {
	switch {
	case o.ErrnoCode == 0:
		return DefaultErrno, nil
	case o.ErrnoCode < 0 || o.ErrnoCode > MaxErrno:
		return 0, fmt.Errorf("errno %d out of range 1..%d", o.ErrnoCode, MaxErrno)
	}
	return o.ErrnoCode, nil
}
