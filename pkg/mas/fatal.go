package mas

import "github.com/matzehuels/mastower/pkg/errors"

// ExitUnhandled aborts the run for an enum value that a switch does not
// handle.
func ExitUnhandled(enum string, value any) {
	errors.ExitWith(errors.ExitSearchCriticalError, "unhandled value %v of enum %s", value, enum)
}
