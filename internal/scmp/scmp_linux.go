//go:build linux && cgo && seccomp

package scmp

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sandboxkit/go-scpolicy/scpolicy"
	libseccomp "github.com/seccomp/libseccomp-golang"
)

var operators = map[scpolicy.ArgOp]libseccomp.ScmpCompareOp{
	scpolicy.EqualTo:              libseccomp.CompareEqual,
	scpolicy.NotEqualTo:           libseccomp.CompareNotEqual,
	scpolicy.GreaterThan:          libseccomp.CompareGreater,
	scpolicy.GreaterThanOrEqualTo: libseccomp.CompareGreaterEqual,
	scpolicy.LessThan:             libseccomp.CompareLess,
	scpolicy.LessThanOrEqualTo:    libseccomp.CompareLessOrEqual,
	scpolicy.MaskEqualTo:          libseccomp.CompareMaskedEqual,
}

func scmpAction(o Options) (libseccomp.ScmpAction, error) {
	switch o.action() {
	case ActKillProcess:
		return libseccomp.ActKillProcess, nil
	case ActKillThread:
		return libseccomp.ActKillThread, nil
	case ActErrno:
		code, err := o.errno()
		if err != nil {
			return libseccomp.ActInvalid, err
		}
		return libseccomp.ActErrno.SetReturnCode(code), nil
	case ActLog:
		return libseccomp.ActLog, nil
	case ActTrap:
		return libseccomp.ActTrap, nil
	}
	return libseccomp.ActInvalid, o.action().Validate()
}

// Filter is a libseccomp filter context built from a rule set.
type Filter struct {
	filter *libseccomp.ScmpFilter
}

// Build creates a filter for the native architecture that allows
// exactly what rs and opts.ExtraSyscalls allow.
func Build(rs scpolicy.RuleSet, opts Options) (*Filter, error) {
	if err := rs.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid rule set")
	}
	def, err := scmpAction(opts)
	if err != nil {
		return nil, err
	}

	filter, err := libseccomp.NewFilter(def)
	if err != nil {
		return nil, errors.Wrap(err, "create seccomp filter")
	}
	f := &Filter{filter: filter}
	if err := f.populate(rs, opts); err != nil {
		f.Release()
		return nil, err
	}
	return f, nil
}

func (f *Filter) populate(rs scpolicy.RuleSet, opts Options) error {
	if err := f.filter.SetNoNewPrivsBit(true); err != nil {
		return errors.Wrap(err, "set no_new_privs attribute")
	}
	if opts.Log {
		if err := f.filter.SetLogBit(true); err != nil {
			return errors.Wrap(err, "set log attribute")
		}
	}

	for _, r := range rs {
		call := libseccomp.ScmpSyscall(r.Sysno)
		if r.Unconditional() {
			if err := f.filter.AddRule(call, libseccomp.ActAllow); err != nil {
				return errors.Wrapf(err, "add rule for %v", r.Sysno)
			}
			continue
		}
		for _, af := range r.Filters {
			conds := make([]libseccomp.ScmpCondition, 0, len(af))
			for _, c := range af {
				values := []uint64{c.Value}
				if c.Op == scpolicy.MaskEqualTo {
					values = append(values, c.ValueTwo)
				}
				cond, err := libseccomp.MakeCondition(c.Index, operators[c.Op], values...)
				if err != nil {
					return errors.Wrapf(err, "condition %v of %v", c, r.Sysno)
				}
				conds = append(conds, cond)
			}
			if err := f.filter.AddRuleConditional(call, libseccomp.ActAllow, conds); err != nil {
				return errors.Wrapf(err, "add conditional rule for %v", r.Sysno)
			}
		}
	}

	for _, name := range opts.ExtraSyscalls {
		call, err := libseccomp.GetSyscallFromName(name)
		if err != nil {
			return errors.Wrapf(err, "extra syscall %q", name)
		}
		if rs.Contains(scpolicy.Sysno(call)) {
			return errors.Errorf("extra syscall %q is already allowed by the rule set", name)
		}
		if err := f.filter.AddRule(call, libseccomp.ActAllow); err != nil {
			return errors.Wrapf(err, "add rule for extra syscall %q", name)
		}
	}
	return nil
}

// Load installs the filter for the calling OS thread and, after
// execve, for the program it turns into. Callers should lock the
// goroutine to its thread first.
func (f *Filter) Load() error {
	return errors.Wrap(f.filter.Load(), "load seccomp filter")
}

// ExportBPF writes the compiled BPF program to out.
func (f *Filter) ExportBPF(out *os.File) error {
	return errors.Wrap(f.filter.ExportBPF(out), "export seccomp filter")
}

// Release frees the libseccomp context. An installed filter stays in
// effect.
func (f *Filter) Release() {
	f.filter.Release()
}
