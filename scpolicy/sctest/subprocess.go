//go:build linux

package sctest

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

const subprocessEnv = "SCPOLICY_TEST_SUBPROCESS"

// TB is the subset of testing.TB that RunInSubprocess needs.
type TB interface {
	Helper()
	Name() string
	Setenv(key, value string)
	Fatalf(format string, args ...any)
	Error(args ...any)
	Skip(args ...any)
}

// RunInSubprocess runs the test function f in a re-executed copy of the
// test binary and forwards its output. Tests that change process-wide
// security state (no_new_privs, an installed filter) use it so that the
// state does not leak into the rest of the test binary.
func RunInSubprocess(t TB, f func()) {
	t.Helper()

	if IsRunningInSubprocess() {
		f()
		return
	}

	args := append(os.Args[1:], "-test.run="+regexp.QuoteMeta(t.Name())+"$")
	t.Setenv(subprocessEnv, "yes")
	buf, err := exec.Command(os.Args[0], args...).Output()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		t.Fatalf("Could not execute test in subprocess: %v", err)
	}

	for _, l := range strings.Split(string(buf), "\n") {
		if l == "FAIL" {
			defer func() { t.Error("Test failed in subprocess") }()
			continue
		}
		if strings.HasPrefix(l, "--- SKIP") {
			defer func() { t.Skip("Test skipped in subprocess") }()
			continue
		}
		if strings.HasPrefix(l, "===") || strings.HasPrefix(l, "---") || l == "PASS" || l == "" {
			continue
		}
		fmt.Println(l)
	}
	if exitErr != nil && !strings.Contains(string(buf), "FAIL") {
		t.Error("Subprocess exited with", exitErr)
	}
}

// IsRunningInSubprocess reports whether the caller runs inside
// RunInSubprocess.
func IsRunningInSubprocess() bool {
	return os.Getenv(subprocessEnv) != ""
}
