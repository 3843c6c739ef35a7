//go:build linux

package profiles

import (
	"github.com/sandboxkit/go-scpolicy/scpolicy"
	"golang.org/x/sys/unix"
)

func launcherArchRules() []scpolicy.Rule {
	return []scpolicy.Rule{
		// Sets %fs for thread-local storage.
		scpolicy.Allow(unix.SYS_ARCH_PRCTL),
		scpolicy.Allow(unix.SYS_READLINK),
		scpolicy.Allow(unix.SYS_OPEN),
	}
}
