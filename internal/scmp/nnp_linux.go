//go:build linux

package scmp

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"kernel.org/pub/linux/libs/security/libcap/psx"
)

// SetNoNewPrivs sets the "no new privileges" flag on all OS threads of
// the process, which an unprivileged process needs before it may
// install a seccomp filter.
//
// The flag is per thread, and the Go runtime may run the goroutine
// that installs the filter on any of them.
func SetNoNewPrivs() error {
	if _, _, e := psx.Syscall6(unix.SYS_PRCTL, unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0, 0); e != 0 {
		return errors.Wrap(e, "prctl(PR_SET_NO_NEW_PRIVS)")
	}
	return nil
}
