//go:build linux && (amd64 || arm64 || riscv64)

package profiles

import (
	"bytes"
	"errors"
	"runtime"
	"testing"
	"unsafe"

	"github.com/sandboxkit/go-scpolicy/scpolicy"
	"github.com/sandboxkit/go-scpolicy/scpolicy/sctest"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// deniedErrno is returned by the test filters for every syscall outside
// the rule set. No real errno has this value.
const deniedErrno = unix.Errno(3001)

// Written by the kernel when a thread that called set_tid_address exits.
var tidAddress uint32

// goThreadRules are what a locked Go thread needs on top of
// RuntimeBaseline: leaving the thread, returning from signal handlers,
// and yielding or sleeping while it spins on runtime locks.
func goThreadRules() scpolicy.RuleSet {
	return scpolicy.RuleSet{
		scpolicy.Allow(unix.SYS_EXIT),
		scpolicy.Allow(unix.SYS_RT_SIGRETURN),
		scpolicy.Allow(unix.SYS_SCHED_YIELD),
		scpolicy.Allow(unix.SYS_NANOSLEEP),
		scpolicy.Allow(unix.SYS_MADVISE),
		scpolicy.Allow(unix.SYS_GETTID),
		scpolicy.Allow(unix.SYS_TGKILL),
		scpolicy.Allow(unix.SYS_GETPID),
	}
}

type seccompCall struct {
	name        string
	errno, want unix.Errno
}

// seccompTrace records syscalls made under a filter. It has fixed
// storage so that recording does not allocate.
type seccompTrace struct {
	calls [32]seccompCall
	n     int
}

func (tr *seccompTrace) add(name string, errno, want unix.Errno) {
	if tr.n < len(tr.calls) {
		tr.calls[tr.n] = seccompCall{name: name, errno: errno, want: want}
		tr.n++
	}
}

func (tr *seccompTrace) ok() bool {
	for _, c := range tr.calls[:tr.n] {
		if c.errno != c.want {
			return false
		}
	}
	return true
}

func (tr *seccompTrace) check(t *testing.T) {
	t.Helper()

	if tr.n == 0 {
		t.Fatalf("no syscalls recorded")
	}
	for _, c := range tr.calls[:tr.n] {
		switch {
		case c.errno == c.want:
		case c.errno == deniedErrno:
			t.Errorf("%s: refused by the filter", c.name)
		default:
			t.Errorf("%s: errno = %v, want %v", c.name, c.errno, c.want)
		}
	}
}

// runFiltered installs rs and goThreadRules as the seccomp filter of a
// fresh OS thread and runs body there. The thread is never unlocked, so
// it exits together with body's goroutine and takes the filter with it.
//
// body must not allocate, since growing the heap may need syscalls
// that rs does not allow.
func runFiltered(t *testing.T, rs scpolicy.RuleSet, body func(tr *seccompTrace)) *seccompTrace {
	t.Helper()

	rs, err := scpolicy.Concat(rs, goThreadRules())
	if err != nil {
		t.Fatalf("scpolicy.Concat(): %v", err)
	}
	prog, err := sctest.Assemble(rs, unix.SECCOMP_RET_ERRNO|uint32(deniedErrno))
	if err != nil {
		t.Fatalf("sctest.Assemble(): %v", err)
	}
	raw, err := bpf.Assemble(prog)
	if err != nil {
		t.Fatalf("bpf.Assemble(): %v", err)
	}
	filter := make([]unix.SockFilter, len(raw))
	for i, ins := range raw {
		filter[i] = unix.SockFilter{Code: ins.Op, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	fprog := &unix.SockFprog{Len: uint16(len(filter)), Filter: &filter[0]}

	tr := new(seccompTrace)
	done := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
			done <- err
			return
		}
		if err := unix.Prctl(unix.PR_SET_SECCOMP, unix.SECCOMP_MODE_FILTER, uintptr(unsafe.Pointer(fprog)), 0, 0); err != nil {
			done <- err
			return
		}
		body(tr)
		done <- nil
	}()
	err = <-done
	runtime.KeepAlive(filter)
	if errors.Is(err, unix.EINVAL) {
		t.Skipf("seccomp filters not supported: %v", err)
	}
	if err != nil {
		t.Fatalf("installing seccomp filter: %v", err)
	}
	return tr
}

// A launcher inspects its own executable, maps and protects memory and
// then replaces itself. It also runs Go, so RuntimeBaseline is loaded
// alongside.
func TestLauncherUnderSeccomp(t *testing.T) {
	sctest.RunInSubprocess(t, func() {
		rs, err := Compose(NameRuntimeBaseline, NameLauncher)
		if err != nil {
			t.Fatalf("Compose(): %v", err)
		}
		exe, err := unix.BytePtrFromString("/proc/self/exe")
		if err != nil {
			t.Fatalf("unix.BytePtrFromString: %v", err)
		}
		missing, err := unix.BytePtrFromString("/nonexistent/scpolicy-target")
		if err != nil {
			t.Fatalf("unix.BytePtrFromString: %v", err)
		}
		argv := []*byte{missing, nil}
		head := make([]byte, 64)
		link := make([]byte, 4096)
		page := uintptr(unix.Getpagesize())
		var (
			cpus  unix.CPUSet
			nread uintptr
		)
		fdcwd, noFD := unix.AT_FDCWD, -1

		tr := runFiltered(t, rs, func(tr *seccompTrace) {
			_, _, e := unix.RawSyscall6(unix.SYS_READLINKAT, uintptr(fdcwd), uintptr(unsafe.Pointer(exe)),
				uintptr(unsafe.Pointer(&link[0])), uintptr(len(link)), 0, 0)
			tr.add("readlinkat", e, 0)

			fd, _, e := unix.RawSyscall6(unix.SYS_OPENAT, uintptr(fdcwd), uintptr(unsafe.Pointer(exe)),
				unix.O_RDONLY|unix.O_CLOEXEC, 0, 0, 0)
			tr.add("openat", e, 0)
			nread, _, e = unix.RawSyscall(unix.SYS_READ, fd, uintptr(unsafe.Pointer(&head[0])), uintptr(len(head)))
			tr.add("read", e, 0)
			_, _, e = unix.RawSyscall(unix.SYS_CLOSE, fd, 0, 0)
			tr.add("close", e, 0)

			addr, _, e := unix.RawSyscall6(unix.SYS_MMAP, 0, page, unix.PROT_READ|unix.PROT_WRITE,
				unix.MAP_PRIVATE|unix.MAP_ANONYMOUS, uintptr(noFD), 0)
			tr.add("mmap", e, 0)
			_, _, e = unix.RawSyscall(unix.SYS_MPROTECT, addr, page, unix.PROT_READ)
			tr.add("mprotect", e, 0)
			_, _, e = unix.RawSyscall(unix.SYS_MUNMAP, addr, page, 0)
			tr.add("munmap", e, 0)

			_, _, e = unix.RawSyscall(unix.SYS_BRK, 0, 0, 0)
			tr.add("brk", e, 0)
			_, _, e = unix.RawSyscall(unix.SYS_SET_TID_ADDRESS, uintptr(unsafe.Pointer(&tidAddress)), 0, 0)
			tr.add("set_tid_address", e, 0)
			_, _, e = unix.RawSyscall(unix.SYS_SCHED_GETAFFINITY, 0, unsafe.Sizeof(cpus), uintptr(unsafe.Pointer(&cpus)))
			tr.add("sched_getaffinity", e, 0)

			archLauncherSteps(tr, exe, link)

			// execve passes the filter and fails on the path lookup.
			_, _, e = unix.RawSyscall(unix.SYS_EXECVE, uintptr(unsafe.Pointer(missing)), uintptr(unsafe.Pointer(&argv[0])), 0)
			tr.add("execve", e, unix.ENOENT)
		})

		tr.check(t)
		if nread > uintptr(len(head)) {
			nread = 0
		}
		if !bytes.HasPrefix(head[:nread], []byte("\x7fELF")) {
			t.Errorf("read %q from /proc/self/exe, want an ELF header", head[:nread])
		}
	})
}

// A runtime that only does its own housekeeping gets as far as a
// clean exit_group.
func TestRuntimeBaselineUnderSeccomp(t *testing.T) {
	sctest.RunInSubprocess(t, func() {
		const sigBlock = 0 // SIG_BLOCK
		var (
			futexWord uint32
			oldMask   uint64
			oldAction [4]uint64
			oldStack  [3]uint64
		)
		mem, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
		if err != nil {
			t.Fatalf("unix.Mmap: %v", err)
		}
		tid := unix.Gettid()

		tr := runFiltered(t, RuntimeBaseline(), func(tr *seccompTrace) {
			_, _, e := unix.RawSyscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(&futexWord)), futexWakePrivate, 1, 0, 0, 0)
			tr.add("futex", e, 0)
			_, _, e = unix.RawSyscall6(unix.SYS_RT_SIGPROCMASK, sigBlock, 0, uintptr(unsafe.Pointer(&oldMask)), 8, 0, 0)
			tr.add("rt_sigprocmask", e, 0)
			_, _, e = unix.RawSyscall6(unix.SYS_RT_SIGACTION, uintptr(unix.SIGUSR1), 0, uintptr(unsafe.Pointer(&oldAction)), 8, 0, 0)
			tr.add("rt_sigaction", e, 0)
			_, _, e = unix.RawSyscall(unix.SYS_SIGALTSTACK, 0, uintptr(unsafe.Pointer(&oldStack)), 0)
			tr.add("sigaltstack", e, 0)
			_, _, e = unix.RawSyscall(unix.SYS_MUNMAP, uintptr(unsafe.Pointer(&mem[0])), uintptr(len(mem)), 0)
			tr.add("munmap", e, 0)
			// Signal 0 only checks that the thread exists.
			_, _, e = unix.RawSyscall(unix.SYS_TKILL, uintptr(tid), 0, 0)
			tr.add("tkill", e, 0)

			if !tr.ok() {
				return
			}
			// On success the test binary exits 0 here, which the parent
			// process counts as a pass.
			_, _, e = unix.RawSyscall(unix.SYS_EXIT_GROUP, 0, 0, 0)
			tr.add("exit_group", e, 0)
		})

		tr.check(t)
	})
}
