//go:build !linux || !cgo || !seccomp

package scmp

import (
	"os"

	"github.com/sandboxkit/go-scpolicy/scpolicy"
)

// Filter is a placeholder; it cannot be built without libseccomp.
type Filter struct{}

// Build always fails with ErrSeccompNotEnabled.
func Build(rs scpolicy.RuleSet, opts Options) (*Filter, error) {
	return nil, ErrSeccompNotEnabled
}

func (f *Filter) Load() error {
	return ErrSeccompNotEnabled
}

func (f *Filter) ExportBPF(out *os.File) error {
	return ErrSeccompNotEnabled
}

func (f *Filter) Release() {}
