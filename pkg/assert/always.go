package assert

import "fmt"

// Always panics with the formatted message when cond is false, in every build. Use it for
// preconditions whose violation is a programming error the tick must not survive, such as a stale
// entity reaching an accessor that assumes liveness.
func Always(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
