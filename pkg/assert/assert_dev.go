//go:build !release

package assert

import "fmt"

// That panics with the formatted message when cond is false. Compiled out of release builds, so
// it must only guard internal invariants that cannot be broken by client input.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
