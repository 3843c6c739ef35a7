//go:build linux && (amd64 || arm64 || riscv64)

package syscall

import "golang.org/x/sys/unix"

// Syscalls that have the same name on every supported architecture.
// Their numbers still differ between architectures.
var commonNames = map[uintptr]string{
	unix.SYS_BRK:               "brk",
	unix.SYS_CLOSE:             "close",
	unix.SYS_EXECVE:            "execve",
	unix.SYS_EXIT_GROUP:        "exit_group",
	unix.SYS_FUTEX:             "futex",
	unix.SYS_MMAP:              "mmap",
	unix.SYS_MPROTECT:          "mprotect",
	unix.SYS_MUNMAP:            "munmap",
	unix.SYS_OPENAT:            "openat",
	unix.SYS_READ:              "read",
	unix.SYS_READLINKAT:        "readlinkat",
	unix.SYS_RT_SIGACTION:      "rt_sigaction",
	unix.SYS_RT_SIGPROCMASK:    "rt_sigprocmask",
	unix.SYS_SCHED_GETAFFINITY: "sched_getaffinity",
	unix.SYS_SET_TID_ADDRESS:   "set_tid_address",
	unix.SYS_SIGALTSTACK:       "sigaltstack",
	unix.SYS_TKILL:             "tkill",
}

// Name returns the kernel name of syscall nr on the native
// architecture. Only syscalls known to this package are resolved.
func Name(nr uintptr) (string, bool) {
	if n, ok := commonNames[nr]; ok {
		return n, true
	}
	n, ok := archNames[nr]
	return n, ok
}

// Number is the inverse of Name.
func Number(name string) (uintptr, bool) {
	for _, table := range []map[uintptr]string{commonNames, archNames} {
		for nr, n := range table {
			if n == name {
				return nr, true
			}
		}
	}
	return 0, false
}

// Known returns the number of syscalls in the native table.
func Known() int {
	return len(commonNames) + len(archNames)
}
