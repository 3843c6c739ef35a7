//go:build linux

package sctest

import (
	"testing"

	"github.com/sandboxkit/go-scpolicy/scpolicy"
)

// MustCompile is like Compile, using RetKillProcess as the default
// action, but fails t on error.
func MustCompile(t testing.TB, rs scpolicy.RuleSet) *Filter {
	t.Helper()

	f, err := Compile(rs, RetKillProcess)
	if err != nil {
		t.Fatalf("Compile(%v): %v", rs, err)
	}
	return f
}

// RequireAction fails t for every call that f does not answer with want.
func RequireAction(t testing.TB, f *Filter, want uint32, calls ...Call) {
	t.Helper()

	for _, c := range calls {
		got, err := f.Evaluate(c)
		if err != nil {
			t.Errorf("Evaluate(%v): %v", c, err)
			continue
		}
		if got != want {
			t.Errorf("Evaluate(%v) = %#x, want %#x", c, got, want)
		}
	}
}

// RequireAllowed checks that every call passes f.
func RequireAllowed(t testing.TB, f *Filter, calls ...Call) {
	t.Helper()
	RequireAction(t, f, RetAllow, calls...)
}

// RequireKilled checks that every call kills the process under f.
func RequireKilled(t testing.TB, f *Filter, calls ...Call) {
	t.Helper()
	RequireAction(t, f, RetKillProcess, calls...)
}
