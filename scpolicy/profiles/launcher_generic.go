//go:build linux && (arm64 || riscv64)

package profiles

import "github.com/sandboxkit/go-scpolicy/scpolicy"

// The thread pointer is set from user space here, and open and
// readlink only exist as openat and readlinkat.
func launcherArchRules() []scpolicy.Rule {
	return nil
}
