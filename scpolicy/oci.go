package scpolicy

import (
	"errors"
	"fmt"
	"sort"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	sc "github.com/sandboxkit/go-scpolicy/scpolicy/syscall"
)

// ErrUnknownSyscall is returned when a syscall number has no name on
// the native architecture.
var ErrUnknownSyscall = errors.New("syscall has no name on this architecture")

// ErrAmbiguousArgs is returned when one argument filter compares the
// same argument twice. OCI runtimes combine repeated indexes with OR,
// which would widen the filter.
var ErrAmbiguousArgs = errors.New("argument compared more than once in one filter")

var ociOps = map[ArgOp]specs.LinuxSeccompOperator{
	EqualTo:              specs.OpEqualTo,
	NotEqualTo:           specs.OpNotEqual,
	GreaterThan:          specs.OpGreaterThan,
	GreaterThanOrEqualTo: specs.OpGreaterEqual,
	LessThan:             specs.OpLessThan,
	LessThanOrEqualTo:    specs.OpLessEqual,
	MaskEqualTo:          specs.OpMaskedEqual,
}

// LinuxSeccomp renders rs as an OCI runtime-spec seccomp section for
// the native architecture. Calls not matched by rs get defaultAction.
//
// All unconditional rules are emitted as a single syscall entry.
// Every argument filter of a conditional rule becomes its own entry,
// since OCI combines the arguments of one entry with AND. A filter
// with two conditions on the same argument cannot be expressed and
// yields ErrAmbiguousArgs.
//
// Only syscalls known to the syscall subpackage can be exported, which
// are the ones used by the profiles catalog. Anything else yields
// ErrUnknownSyscall.
func (rs RuleSet) LinuxSeccomp(defaultAction specs.LinuxSeccompAction) (*specs.LinuxSeccomp, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	if sc.SeccompArch == "" {
		return nil, fmt.Errorf("no seccomp architecture for this build: %w", ErrUnknownSyscall)
	}

	var (
		plain    []string
		syscalls []specs.LinuxSyscall
	)
	for _, r := range rs {
		name, ok := sc.Name(uintptr(r.Sysno))
		if !ok {
			return nil, fmt.Errorf("syscall %d: %w", uintptr(r.Sysno), ErrUnknownSyscall)
		}
		if r.Unconditional() {
			plain = append(plain, name)
			continue
		}
		for _, f := range r.Filters {
			args := make([]specs.LinuxSeccompArg, len(f))
			var seen [MaxArgs]bool
			for i, c := range f {
				if seen[c.Index] {
					return nil, fmt.Errorf("%s: arg%d: %w", name, c.Index, ErrAmbiguousArgs)
				}
				seen[c.Index] = true
				args[i] = specs.LinuxSeccompArg{
					Index:    c.Index,
					Value:    c.Value,
					ValueTwo: c.ValueTwo,
					Op:       ociOps[c.Op],
				}
			}
			syscalls = append(syscalls, specs.LinuxSyscall{
				Names:  []string{name},
				Action: specs.ActAllow,
				Args:   args,
			})
		}
	}
	if len(plain) > 0 {
		sort.Strings(plain)
		syscalls = append([]specs.LinuxSyscall{{
			Names:  plain,
			Action: specs.ActAllow,
		}}, syscalls...)
	}

	return &specs.LinuxSeccomp{
		DefaultAction: defaultAction,
		Architectures: []specs.Arch{specs.Arch(sc.SeccompArch)},
		Syscalls:      syscalls,
	}, nil
}
