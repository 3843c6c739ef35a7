//go:build linux

package profiles

import (
	"testing"
	"unsafe"

	"github.com/sandboxkit/go-scpolicy/scpolicy"
	"github.com/sandboxkit/go-scpolicy/scpolicy/sctest"
	"golang.org/x/sys/unix"
)

var archLauncherNames = []string{"arch_prctl", "open", "readlink"}

// Older x86_64 loaders and libcs still use the legacy entry points.
func archLauncherTrace() []sctest.Call {
	const archSetFS = 0x1002 // ARCH_SET_FS
	return []sctest.Call{
		sctest.NativeCall(unix.SYS_READLINK, 0x1000, 0x2000, 4096),
		sctest.NativeCall(unix.SYS_OPEN, 0x1000, unix.O_RDONLY|unix.O_CLOEXEC),
		sctest.NativeCall(unix.SYS_ARCH_PRCTL, archSetFS, 0x7000),
	}
}

func TestLauncherLegacyEntryPoints(t *testing.T) {
	rs := Launcher()
	for _, nr := range []uintptr{unix.SYS_ARCH_PRCTL, unix.SYS_READLINK, unix.SYS_OPEN} {
		if !rs.Contains(scpolicy.Sysno(nr)) {
			t.Errorf("Launcher() does not contain %v", scpolicy.Sysno(nr))
		}
	}
}

var archFS uint64

// archLauncherSteps runs the legacy entry points under a filter; see
// TestLauncherUnderSeccomp.
func archLauncherSteps(tr *seccompTrace, path *byte, buf []byte) {
	const archGetFS = 0x1003 // ARCH_GET_FS
	_, _, e := unix.RawSyscall(unix.SYS_ARCH_PRCTL, archGetFS, uintptr(unsafe.Pointer(&archFS)), 0)
	tr.add("arch_prctl", e, 0)
	_, _, e = unix.RawSyscall(unix.SYS_READLINK, uintptr(unsafe.Pointer(path)), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	tr.add("readlink", e, 0)
	fd, _, e := unix.RawSyscall(unix.SYS_OPEN, uintptr(unsafe.Pointer(path)), unix.O_RDONLY|unix.O_CLOEXEC, 0)
	tr.add("open", e, 0)
	if e == 0 {
		unix.RawSyscall(unix.SYS_CLOSE, fd, 0, 0)
	}
}
