//go:build linux

package sctest

import (
	"fmt"

	"golang.org/x/net/bpf"
)

// asm is a tiny label-based assembler on top of golang.org/x/net/bpf.
// Jump targets are labels; the empty label means "next instruction".
type asm struct {
	items  []item
	nlabel int
}

type item struct {
	ins   bpf.Instruction
	jmp   *jumpTo
	label string
}

type jumpTo struct {
	cond            bpf.JumpTest
	val             uint32
	ifTrue, ifFalse string
}

func (a *asm) emit(ins bpf.Instruction) {
	a.items = append(a.items, item{ins: ins})
}

func (a *asm) jumpIf(cond bpf.JumpTest, val uint32, ifTrue, ifFalse string) {
	a.items = append(a.items, item{jmp: &jumpTo{cond: cond, val: val, ifTrue: ifTrue, ifFalse: ifFalse}})
}

func (a *asm) mark(label string) {
	a.items = append(a.items, item{label: label})
}

func (a *asm) newLabel() string {
	a.nlabel++
	return fmt.Sprintf("L%d", a.nlabel)
}

func (a *asm) assemble() ([]bpf.Instruction, error) {
	pcs := map[string]int{}
	pc := 0
	for _, it := range a.items {
		if it.label != "" {
			pcs[it.label] = pc
			continue
		}
		pc++
	}

	skip := func(from int, label string) (int, error) {
		if label == "" {
			return 0, nil
		}
		to, ok := pcs[label]
		if !ok {
			return 0, fmt.Errorf("undefined label %q", label)
		}
		d := to - from - 1
		if d < 0 {
			return 0, fmt.Errorf("backward jump to %q", label)
		}
		return d, nil
	}

	prog := make([]bpf.Instruction, 0, pc)
	for _, it := range a.items {
		if it.label != "" {
			continue
		}
		cur := len(prog)
		if it.jmp == nil {
			prog = append(prog, it.ins)
			continue
		}
		t, err := skip(cur, it.jmp.ifTrue)
		if err != nil {
			return nil, err
		}
		f, err := skip(cur, it.jmp.ifFalse)
		if err != nil {
			return nil, err
		}
		if t > 255 || f > 255 {
			return nil, fmt.Errorf("conditional jump at %d too long (%d, %d)", cur, t, f)
		}
		prog = append(prog, bpf.JumpIf{Cond: it.jmp.cond, Val: it.jmp.val, SkipTrue: uint8(t), SkipFalse: uint8(f)})
	}
	return prog, nil
}
