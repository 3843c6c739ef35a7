//go:build linux && (amd64 || arm64 || riscv64)

package syscall

import "testing"

func TestNameNumberConsistent(t *testing.T) {
	seen := map[string]bool{}
	for _, table := range []map[uintptr]string{commonNames, archNames} {
		for nr, name := range table {
			if seen[name] {
				t.Errorf("name %q appears twice in the native table", name)
			}
			seen[name] = true

			got, ok := Name(nr)
			if !ok || got != name {
				t.Errorf("Name(%d) = %q, %v; want %q, true", nr, got, ok, name)
			}
		}
	}
	if len(seen) != Known() {
		t.Errorf("Known() = %d, want %d", Known(), len(seen))
	}
}

func TestCommonAndArchDisjoint(t *testing.T) {
	for nr := range archNames {
		if n, ok := commonNames[nr]; ok {
			t.Errorf("syscall %d listed as both common (%q) and arch-specific (%q)", nr, n, archNames[nr])
		}
	}
}

func TestUnknownName(t *testing.T) {
	if nr, ok := Number("no_such_syscall"); ok {
		t.Errorf("Number(%q) = %d, want not found", "no_such_syscall", nr)
	}
	if n, ok := Name(^uintptr(0)); ok {
		t.Errorf("Name(-1) = %q, want not found", n)
	}
}
