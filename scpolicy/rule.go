package scpolicy

import (
	"fmt"
	"strings"

	sc "github.com/sandboxkit/go-scpolicy/scpolicy/syscall"
)

// Sysno is a syscall number on the architecture the binary is built
// for. Values come from golang.org/x/sys/unix SYS_* constants and are
// not portable between architectures.
type Sysno uintptr

// String returns the kernel name of the syscall where known. Names
// are known for the syscalls of the profiles catalog; others print as
// syscall(N).
func (nr Sysno) String() string {
	if n, ok := sc.Name(uintptr(nr)); ok {
		return n
	}
	return fmt.Sprintf("syscall(%d)", uintptr(nr))
}

// ArgOp is the comparison an ArgCondition applies to a syscall
// argument.
type ArgOp int

const (
	EqualTo ArgOp = iota + 1
	NotEqualTo
	GreaterThan
	GreaterThanOrEqualTo
	LessThan
	LessThanOrEqualTo
	// MaskEqualTo matches when arg & Value == ValueTwo.
	MaskEqualTo
)

var argOpNames = map[ArgOp]string{
	EqualTo:              "==",
	NotEqualTo:           "!=",
	GreaterThan:          ">",
	GreaterThanOrEqualTo: ">=",
	LessThan:             "<",
	LessThanOrEqualTo:    "<=",
	MaskEqualTo:          "&",
}

func (op ArgOp) String() string {
	if n, ok := argOpNames[op]; ok {
		return n
	}
	return fmt.Sprintf("op(%d)", int(op))
}

func (op ArgOp) valid() bool {
	_, ok := argOpNames[op]
	return ok
}

// MaxArgs is the number of syscall arguments visible to seccomp.
const MaxArgs = 6

// ArgCondition constrains one syscall argument.
type ArgCondition struct {
	// Index of the argument, 0 to 5.
	Index uint
	Op    ArgOp
	Value uint64
	// ValueTwo is only used by MaskEqualTo.
	ValueTwo uint64
}

// Cond returns a condition comparing argument index against value.
func Cond(index uint, op ArgOp, value uint64) ArgCondition {
	return ArgCondition{Index: index, Op: op, Value: value}
}

// MaskedCond returns a condition that holds when the argument masked
// with mask equals value, e.g. to test for a single flag bit.
func MaskedCond(index uint, mask, value uint64) ArgCondition {
	return ArgCondition{Index: index, Op: MaskEqualTo, Value: mask, ValueTwo: value}
}

// Matches reports whether the argument value arg satisfies c.
func (c ArgCondition) Matches(arg uint64) bool {
	switch c.Op {
	case EqualTo:
		return arg == c.Value
	case NotEqualTo:
		return arg != c.Value
	case GreaterThan:
		return arg > c.Value
	case GreaterThanOrEqualTo:
		return arg >= c.Value
	case LessThan:
		return arg < c.Value
	case LessThanOrEqualTo:
		return arg <= c.Value
	case MaskEqualTo:
		return arg&c.Value == c.ValueTwo
	}
	return false
}

func (c ArgCondition) String() string {
	if c.Op == MaskEqualTo {
		return fmt.Sprintf("arg%d & %#x == %#x", c.Index, c.Value, c.ValueTwo)
	}
	return fmt.Sprintf("arg%d %v %#x", c.Index, c.Op, c.Value)
}

// ArgFilter is a conjunction of argument conditions.
type ArgFilter []ArgCondition

// Matches reports whether all conditions hold for args.
func (f ArgFilter) Matches(args [MaxArgs]uint64) bool {
	for _, c := range f {
		if c.Index >= MaxArgs || !c.Matches(args[c.Index]) {
			return false
		}
	}
	return true
}

func (f ArgFilter) String() string {
	parts := make([]string, len(f))
	for i, c := range f {
		parts[i] = "(" + c.String() + ")"
	}
	return strings.Join(parts, " && ")
}

// Rule permits one syscall. A rule without filters permits every
// invocation of the syscall. A rule with filters permits an invocation
// when at least one of its filters matches the arguments.
type Rule struct {
	Sysno   Sysno
	Filters []ArgFilter
}

// Allow returns a rule that permits nr unconditionally.
func Allow(nr uintptr) Rule {
	return Rule{Sysno: Sysno(nr)}
}

// AllowIf returns a rule that permits nr only when one of the given
// filters matches the call's arguments.
//
// Example: permit mmap only without PROT_EXEC:
//
//	scpolicy.AllowIf(unix.SYS_MMAP, scpolicy.ArgFilter{
//	    scpolicy.MaskedCond(2, unix.PROT_EXEC, 0),
//	})
func AllowIf(nr uintptr, filters ...ArgFilter) Rule {
	return Rule{Sysno: Sysno(nr), Filters: filters}
}

// Unconditional reports whether r permits every invocation.
func (r Rule) Unconditional() bool {
	return len(r.Filters) == 0
}

// Permits reports whether r allows a call to nr with the given
// arguments.
func (r Rule) Permits(nr Sysno, args [MaxArgs]uint64) bool {
	if nr != r.Sysno {
		return false
	}
	if r.Unconditional() {
		return true
	}
	for _, f := range r.Filters {
		if f.Matches(args) {
			return true
		}
	}
	return false
}

func (r Rule) String() string {
	if r.Unconditional() {
		return fmt.Sprintf("ALLOW %v", r.Sysno)
	}
	alts := make([]string, len(r.Filters))
	for i, f := range r.Filters {
		alts[i] = f.String()
	}
	return fmt.Sprintf("ALLOW %v if %s", r.Sysno, strings.Join(alts, " || "))
}

func (r Rule) validate() error {
	for _, f := range r.Filters {
		if len(f) == 0 {
			return fmt.Errorf("%v: %w", r.Sysno, ErrEmptyFilter)
		}
		for _, c := range f {
			if c.Index >= MaxArgs {
				return fmt.Errorf("%v: argument index %d: %w", r.Sysno, c.Index, ErrBadArgIndex)
			}
			if !c.Op.valid() {
				return fmt.Errorf("%v: %v: %w", r.Sysno, c.Op, ErrBadOperator)
			}
		}
	}
	return nil
}
