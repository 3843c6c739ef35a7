//go:build linux

package sctest

import (
	"encoding/binary"
	"fmt"

	"github.com/sandboxkit/go-scpolicy/scpolicy"
	sc "github.com/sandboxkit/go-scpolicy/scpolicy/syscall"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// Seccomp return values, as found in linux/seccomp.h.
const (
	RetAllow       uint32 = unix.SECCOMP_RET_ALLOW
	RetKillProcess uint32 = unix.SECCOMP_RET_KILL_PROCESS
	RetKillThread  uint32 = unix.SECCOMP_RET_KILL_THREAD
	RetLog         uint32 = unix.SECCOMP_RET_LOG
)

// The offsets are based on the following struct in include/linux/seccomp.h.
//
//	struct seccomp_data {
//		int nr;
//		__u32 arch;
//		__u64 instruction_pointer;
//		__u64 args[6];
//	};
const (
	offsetNR   = 0
	offsetArch = 4
	offsetIP   = 8
	offsetArgs = 16

	payloadSize = offsetArgs + 8*scpolicy.MaxArgs
)

// All supported architectures are little-endian, so the low word of an
// argument comes first.
func offsetArgLow(i uint) uint32 {
	return uint32(offsetArgs + 8*i)
}

func offsetArgHigh(i uint) uint32 {
	return offsetArgLow(i) + 4
}

func load(off uint32) bpf.Instruction {
	return bpf.LoadAbsolute{Off: off, Size: 4}
}

// Assemble translates rs into a seccomp BPF program. The program kills
// the process on a foreign architecture, returns RetAllow for calls
// permitted by rs and defaultAction for everything else.
func Assemble(rs scpolicy.RuleSet, defaultAction uint32) ([]bpf.Instruction, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}

	var a asm
	const badArch = "badarch"

	a.emit(load(offsetArch))
	a.jumpIf(bpf.JumpEqual, uint32(sc.AuditArch), "", badArch)
	a.emit(load(offsetNR))

	for _, r := range rs {
		next := a.newLabel()
		a.jumpIf(bpf.JumpEqual, uint32(r.Sysno), "", next)
		if r.Unconditional() {
			a.emit(bpf.RetConstant{Val: RetAllow})
			a.mark(next)
			continue
		}
		for _, f := range r.Filters {
			fail := a.newLabel()
			for _, c := range f {
				emitCond(&a, c, fail)
			}
			a.emit(bpf.RetConstant{Val: RetAllow})
			a.mark(fail)
		}
		// Syscalls are unique within rs, no other rule can match.
		a.emit(bpf.RetConstant{Val: defaultAction})
		a.mark(next)
	}

	a.emit(bpf.RetConstant{Val: defaultAction})
	a.mark(badArch)
	a.emit(bpf.RetConstant{Val: RetKillProcess})

	return a.assemble()
}

// emitCond emits a 64-bit comparison as two 32-bit ones. Control falls
// through when c holds and jumps to fail otherwise.
func emitCond(a *asm, c scpolicy.ArgCondition, fail string) {
	hi, lo := uint32(c.Value>>32), uint32(c.Value)
	pass := a.newLabel()

	ordered := func(strict bpf.JumpTest, last bpf.JumpTest) {
		a.emit(load(offsetArgHigh(c.Index)))
		a.jumpIf(strict, hi, pass, "")
		a.jumpIf(bpf.JumpEqual, hi, "", fail)
		a.emit(load(offsetArgLow(c.Index)))
		a.jumpIf(last, lo, "", fail)
	}

	switch c.Op {
	case scpolicy.EqualTo:
		a.emit(load(offsetArgHigh(c.Index)))
		a.jumpIf(bpf.JumpEqual, hi, "", fail)
		a.emit(load(offsetArgLow(c.Index)))
		a.jumpIf(bpf.JumpEqual, lo, "", fail)
	case scpolicy.NotEqualTo:
		a.emit(load(offsetArgHigh(c.Index)))
		a.jumpIf(bpf.JumpEqual, hi, "", pass)
		a.emit(load(offsetArgLow(c.Index)))
		a.jumpIf(bpf.JumpEqual, lo, fail, "")
	case scpolicy.GreaterThan:
		ordered(bpf.JumpGreaterThan, bpf.JumpGreaterThan)
	case scpolicy.GreaterThanOrEqualTo:
		ordered(bpf.JumpGreaterThan, bpf.JumpGreaterOrEqual)
	case scpolicy.LessThan:
		ordered(bpf.JumpLessThan, bpf.JumpLessThan)
	case scpolicy.LessThanOrEqualTo:
		ordered(bpf.JumpLessThan, bpf.JumpLessOrEqual)
	case scpolicy.MaskEqualTo:
		mhi, mlo := uint32(c.Value>>32), uint32(c.Value)
		vhi, vlo := uint32(c.ValueTwo>>32), uint32(c.ValueTwo)
		a.emit(load(offsetArgHigh(c.Index)))
		a.emit(bpf.ALUOpConstant{Op: bpf.ALUOpAnd, Val: mhi})
		a.jumpIf(bpf.JumpEqual, vhi, "", fail)
		a.emit(load(offsetArgLow(c.Index)))
		a.emit(bpf.ALUOpConstant{Op: bpf.ALUOpAnd, Val: mlo})
		a.jumpIf(bpf.JumpEqual, vlo, "", fail)
	}
	a.mark(pass)
}

// Call is one syscall invocation as seen by a seccomp filter.
type Call struct {
	Sysno scpolicy.Sysno
	Arch  uint32
	IP    uint64
	Args  [scpolicy.MaxArgs]uint64
}

// NativeCall returns a call to nr on the native architecture.
func NativeCall(nr uintptr, args ...uint64) Call {
	c := Call{Sysno: scpolicy.Sysno(nr), Arch: uint32(sc.AuditArch), IP: 0xDEADBEEFCAFE}
	copy(c.Args[:], args)
	return c
}

func (c Call) String() string {
	return fmt.Sprintf("%v%v", c.Sysno, c.Args)
}

// Payload encodes c as a seccomp_data record for the x/net/bpf VM.
//
// The VM loads words big-endian, while the kernel hands the filter
// host-endian data. Each 32-bit word is therefore written big-endian
// at the offset where the little-endian kernel layout puts it.
func Payload(c Call) []byte {
	buf := make([]byte, payloadSize)
	put64 := func(off uint32, v uint64) {
		binary.BigEndian.PutUint32(buf[off:], uint32(v))
		binary.BigEndian.PutUint32(buf[off+4:], uint32(v>>32))
	}
	binary.BigEndian.PutUint32(buf[offsetNR:], uint32(c.Sysno))
	binary.BigEndian.PutUint32(buf[offsetArch:], c.Arch)
	put64(offsetIP, c.IP)
	for i, arg := range c.Args {
		put64(offsetArgLow(uint(i)), arg)
	}
	return buf
}

// Filter is an assembled rule set loaded into a BPF VM.
type Filter struct {
	Prog []bpf.Instruction
	vm   *bpf.VM
}

// Compile assembles rs and loads it into a VM.
func Compile(rs scpolicy.RuleSet, defaultAction uint32) (*Filter, error) {
	prog, err := Assemble(rs, defaultAction)
	if err != nil {
		return nil, fmt.Errorf("assembling filter: %w", err)
	}
	vm, err := bpf.NewVM(prog)
	if err != nil {
		return nil, fmt.Errorf("loading filter into VM: %w", err)
	}
	return &Filter{Prog: prog, vm: vm}, nil
}

// Evaluate runs the filter on c and returns the seccomp action.
func (f *Filter) Evaluate(c Call) (uint32, error) {
	ret, err := f.vm.Run(Payload(c))
	if err != nil {
		return 0, err
	}
	return uint32(ret), nil
}
