// Package profiles is a catalog of ready-made syscall rule sets, one per
// operational need.
//
// Each profile is a parameterless function returning a fresh
// scpolicy.RuleSet, so callers may modify the result freely. Profiles
// are independent of each other and are combined with scpolicy.Concat.
//
// Syscall numbers are architecture specific. The catalog is compiled
// for linux/amd64, linux/arm64 and linux/riscv64; building it for any
// other target fails instead of producing empty rule sets.
package profiles
