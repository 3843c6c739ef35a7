//go:build linux && (amd64 || arm64 || riscv64)

package profiles

import (
	"fmt"
	"sort"

	"github.com/sandboxkit/go-scpolicy/scpolicy"
	"golang.org/x/sys/unix"
)

// RuntimeBaseline returns the syscalls a language runtime needs for its
// own housekeeping once it runs sandboxed, as long as it neither loads
// new code nor starts other programs: exiting, futex based locking,
// returning memory, signal handling on an alternate stack and signaling
// its own threads.
func RuntimeBaseline() scpolicy.RuleSet {
	return scpolicy.RuleSet{
		scpolicy.Allow(unix.SYS_EXIT_GROUP),
		scpolicy.Allow(unix.SYS_FUTEX),
		scpolicy.Allow(unix.SYS_MUNMAP),
		scpolicy.Allow(unix.SYS_RT_SIGACTION),
		scpolicy.Allow(unix.SYS_RT_SIGPROCMASK),
		scpolicy.Allow(unix.SYS_SIGALTSTACK),
		scpolicy.Allow(unix.SYS_TKILL),
	}
}

// Launcher returns the syscalls a supervisor needs to replace itself
// with another program: inspecting its own executable, execve, and
// what the dynamic loader of the new image does before main (mapping
// and protecting memory, moving the break, setting up thread-local
// storage, querying CPU affinity).
//
// The *at variants of open and readlink are included on every
// architecture. On x86_64 the legacy open and readlink entry points
// and arch_prctl are added as well.
func Launcher() scpolicy.RuleSet {
	rs := scpolicy.RuleSet{
		scpolicy.Allow(unix.SYS_EXECVE),
		scpolicy.Allow(unix.SYS_MMAP),
		scpolicy.Allow(unix.SYS_MPROTECT),
		scpolicy.Allow(unix.SYS_SET_TID_ADDRESS),
		scpolicy.Allow(unix.SYS_OPENAT),
		scpolicy.Allow(unix.SYS_READLINKAT),
		scpolicy.Allow(unix.SYS_READ),
		scpolicy.Allow(unix.SYS_CLOSE),
		scpolicy.Allow(unix.SYS_BRK),
		scpolicy.Allow(unix.SYS_SCHED_GETAFFINITY),
	}
	return append(rs, launcherArchRules()...)
}

// Profile names as used by Names, ByName and Compose.
const (
	NameRuntimeBaseline = "runtime-baseline"
	NameLauncher        = "launcher"
)

var catalog = map[string]func() scpolicy.RuleSet{
	NameRuntimeBaseline: RuntimeBaseline,
	NameLauncher:        Launcher,
}

// Names returns the names of all profiles in the catalog, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName returns the profile function registered under name.
func ByName(name string) (func() scpolicy.RuleSet, bool) {
	f, ok := catalog[name]
	return f, ok
}

// Compose builds the named profiles and concatenates them in the
// given order.
func Compose(names ...string) (scpolicy.RuleSet, error) {
	sets := make([]scpolicy.RuleSet, 0, len(names))
	for _, n := range names {
		f, ok := ByName(n)
		if !ok {
			return nil, fmt.Errorf("unknown profile %q; known profiles: %v", n, Names())
		}
		sets = append(sets, f())
	}
	return scpolicy.Concat(sets...)
}
