package errors

import (
	"errors"
	"fmt"
)

// ExitCode is the process exit status reported by the planner.
// The numbering follows the planner convention: 1x no plan, 2x out of
// resources, 3x unrecoverable errors.
type ExitCode int

const (
	ExitSuccess             ExitCode = 0
	ExitSearchUnsolvable    ExitCode = 11
	ExitSearchOutOfMemory   ExitCode = 22
	ExitSearchOutOfTime     ExitCode = 23
	ExitSearchCriticalError ExitCode = 32
	ExitSearchInputError    ExitCode = 33
	ExitSearchUnsupported   ExitCode = 34
)

// String returns the symbolic name of the exit code.
func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "SUCCESS"
	case ExitSearchUnsolvable:
		return "SEARCH_UNSOLVABLE"
	case ExitSearchOutOfMemory:
		return "SEARCH_OUT_OF_MEMORY"
	case ExitSearchOutOfTime:
		return "SEARCH_OUT_OF_TIME"
	case ExitSearchCriticalError:
		return "SEARCH_CRITICAL_ERROR"
	case ExitSearchInputError:
		return "SEARCH_INPUT_ERROR"
	case ExitSearchUnsupported:
		return "SEARCH_UNSUPPORTED"
	}
	return fmt.Sprintf("EXIT_%d", int(c))
}

// Code returns the error code matching the exit code.
func (c ExitCode) Code() Code {
	switch c {
	case ExitSearchUnsolvable:
		return ErrCodeUnsolvable
	case ExitSearchOutOfMemory:
		return ErrCodeOutOfMemory
	case ExitSearchOutOfTime:
		return ErrCodeTimeout
	case ExitSearchInputError:
		return ErrCodeInvalidInput
	case ExitSearchUnsupported:
		return ErrCodeUnsupported
	}
	return ErrCodeCriticalError
}

// Fatal is the panic value raised by ExitWith. Only the program entry point
// recovers it, to terminate with Fatal.Exit.
type Fatal struct {
	Exit    ExitCode
	Message string
}

// Error implements the error interface.
func (f *Fatal) Error() string {
	if f.Message == "" {
		return f.Exit.String()
	}
	return fmt.Sprintf("%s: %s", f.Exit, f.Message)
}

// ExitWith aborts the run with the given exit code. It never returns.
//
// Library code must not recover the panic: there is no partial state to roll
// back to, and a caller continuing after it would produce a heuristic that is
// silently wrong.
func ExitWith(code ExitCode, format string, args ...any) {
	panic(&Fatal{Exit: code, Message: fmt.Sprintf(format, args...)})
}

// AsFatal reports whether v (typically a recovered panic value or an error)
// is a *Fatal.
func AsFatal(v any) (*Fatal, bool) {
	switch f := v.(type) {
	case *Fatal:
		return f, true
	case error:
		var fe *Fatal
		if errors.As(f, &fe) {
			return fe, true
		}
	}
	return nil, false
}

// ExitCodeFor maps a returned error to the exit code the process should
// terminate with.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	if f, ok := AsFatal(err); ok {
		return f.Exit
	}
	switch GetCode(err) {
	case ErrCodeUnsolvable:
		return ExitSearchUnsolvable
	case ErrCodeOutOfMemory:
		return ExitSearchOutOfMemory
	case ErrCodeTimeout:
		return ExitSearchOutOfTime
	case ErrCodeUnsupported:
		return ExitSearchUnsupported
	case ErrCodeInvalidInput, ErrCodeInvalidTask, ErrCodeInvalidConfig,
		ErrCodeInvalidFormat, ErrCodeInvalidPath, ErrCodeFileNotFound:
		return ExitSearchInputError
	}
	return ExitSearchCriticalError
}
