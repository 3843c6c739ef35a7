//go:build !linux || !(amd64 || arm64 || riscv64)

package syscall

// Architectures without a table resolve nothing.
const (
	AuditArch   = 0
	SeccompArch = ""
)

func Name(nr uintptr) (string, bool) {
	return "", false
}

func Number(name string) (uintptr, bool) {
	return 0, false
}

func Known() int {
	return 0
}
