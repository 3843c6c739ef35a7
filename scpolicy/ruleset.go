package scpolicy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors reported by RuleSet.Validate and Concat.
var (
	ErrDuplicateSyscall = errors.New("syscall listed more than once")
	ErrBadArgIndex      = errors.New("argument index out of range")
	ErrBadOperator      = errors.New("unknown argument operator")
	ErrEmptyFilter      = errors.New("empty argument filter")
)

// RuleSet is an ordered collection of rules, conceptually "all
// syscalls needed for capability X". Order carries no meaning for a
// filter engine, but a RuleSet must not mention the same syscall twice.
type RuleSet []Rule

// Syscalls returns the syscall numbers of rs in ascending order.
func (rs RuleSet) Syscalls() []Sysno {
	nrs := make([]Sysno, len(rs))
	for i, r := range rs {
		nrs[i] = r.Sysno
	}
	sort.Slice(nrs, func(i, j int) bool { return nrs[i] < nrs[j] })
	return nrs
}

// Lookup returns the rule for nr.
func (rs RuleSet) Lookup(nr Sysno) (Rule, bool) {
	for _, r := range rs {
		if r.Sysno == nr {
			return r, true
		}
	}
	return Rule{}, false
}

// Contains reports whether rs has a rule for nr.
func (rs RuleSet) Contains(nr Sysno) bool {
	_, ok := rs.Lookup(nr)
	return ok
}

// Permits reports whether rs allows a call to nr with the given
// arguments.
func (rs RuleSet) Permits(nr Sysno, args [MaxArgs]uint64) bool {
	r, ok := rs.Lookup(nr)
	return ok && r.Permits(nr, args)
}

// Validate checks that no syscall is listed twice and that all
// argument filters are well-formed.
func (rs RuleSet) Validate() error {
	seen := make(map[Sysno]bool, len(rs))
	for _, r := range rs {
		if seen[r.Sysno] {
			return fmt.Errorf("%v: %w", r.Sysno, ErrDuplicateSyscall)
		}
		seen[r.Sysno] = true
		if err := r.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (rs RuleSet) String() string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Concat composes rule sets into a new one. Profiles are independent
// of each other, so a syscall mentioned by more than one input is
// rejected instead of merged.
func Concat(sets ...RuleSet) (RuleSet, error) {
	var n int
	for _, s := range sets {
		n += len(s)
	}
	out := make(RuleSet, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
