//go:build linux

package syscall

import "golang.org/x/sys/unix"

const (
	// AuditArch is the value the kernel reports in seccomp_data.arch.
	AuditArch = unix.AUDIT_ARCH_X86_64

	// SeccompArch is the libseccomp / OCI name of the architecture.
	SeccompArch = "SCMP_ARCH_X86_64"
)

// x86_64 keeps the pre-*at entry points and needs arch_prctl to set up
// thread-local storage.
var archNames = map[uintptr]string{
	unix.SYS_ARCH_PRCTL: "arch_prctl",
	unix.SYS_OPEN:       "open",
	unix.SYS_READLINK:   "readlink",
}
