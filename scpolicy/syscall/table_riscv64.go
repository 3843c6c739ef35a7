//go:build linux

package syscall

import "golang.org/x/sys/unix"

const (
	// AuditArch is the value the kernel reports in seccomp_data.arch.
	AuditArch = unix.AUDIT_ARCH_RISCV64

	// SeccompArch is the libseccomp / OCI name of the architecture.
	SeccompArch = "SCMP_ARCH_RISCV64"
)

var archNames = map[uintptr]string{}
