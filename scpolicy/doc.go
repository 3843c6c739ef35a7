// Package scpolicy is the vocabulary for seccomp allow-lists: rules
// that permit one syscall, optionally only for certain argument
// values, and rule sets that collect the rules one capability needs.
//
// A RuleSet is plain data. It is handed to a filter engine (for
// example libseccomp) which compiles and installs the actual BPF
// program; this package never talks to the kernel.
//
// Ready-made rule sets live in the profiles subpackage. They compose
// by concatenation:
//
//	rs, err := scpolicy.Concat(profiles.RuntimeBaseline(), profiles.Launcher())
//	if err != nil {
//	    log.Fatalf("scpolicy.Concat: %v", err)
//	}
package scpolicy
