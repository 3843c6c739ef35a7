// Package syscall maps the syscall numbers used by the policy catalog
// to their kernel names for the architecture the binary is built for.
//
// The tables are selected by build constraints. A number that does not
// exist on the target architecture cannot appear in them, because the
// golang.org/x/sys/unix constant it comes from is not defined there.
package syscall
