// Package sctest has helpers for testing rule sets without installing
// them.
//
// It assembles a rule set into a classic BPF program the way a seccomp
// filter engine would and runs it in the golang.org/x/net/bpf virtual
// machine against synthetic seccomp_data records. This makes it
// possible to check what a rule set allows or kills on any machine,
// without privileges and without killing the test binary.
//
// Tests that do change process-wide state can isolate it with
// RunInSubprocess.
package sctest
