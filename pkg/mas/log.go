package mas

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Verbosity controls how much a [Log] reports.
type Verbosity int

const (
	Silent Verbosity = iota
	Normal
	Verbose
	Debug
)

var verbosityNames = [...]string{"silent", "normal", "verbose", "debug"}

// String returns the lower-case name of the verbosity.
func (v Verbosity) String() string {
	if v >= Silent && int(v) < len(verbosityNames) {
		return verbosityNames[v]
	}
	return fmt.Sprintf("verbosity(%d)", int(v))
}

// ParseVerbosity parses a verbosity name as produced by [Verbosity.String].
func ParseVerbosity(s string) (Verbosity, error) {
	for i, name := range verbosityNames {
		if strings.EqualFold(s, name) {
			return Verbosity(i), nil
		}
	}
	return Silent, fmt.Errorf("unknown verbosity %q", s)
}

// Log is the leveled diagnostic sink of the engine.
//
// Messages are written to the wrapped logger at info level; the verbosity
// decides which messages are produced at all. All methods are safe to call
// on a nil *Log, which behaves like [SilentLog].
//
// Log also carries the "report only once" state of diagnostics that would
// otherwise repeat for every factor. A Log is not safe for concurrent use.
type Log struct {
	logger    *log.Logger
	verbosity Verbosity
	once      map[string]bool
}

// NewLog wraps logger with the given verbosity.
func NewLog(logger *log.Logger, verbosity Verbosity) *Log {
	if logger == nil {
		verbosity = Silent
	}
	return &Log{logger: logger, verbosity: verbosity}
}

// NewWriterLog creates a Log writing plain lines to w.
func NewWriterLog(w io.Writer, verbosity Verbosity) *Log {
	return NewLog(log.NewWithOptions(w, log.Options{Level: log.DebugLevel}), verbosity)
}

// SilentLog returns a Log that reports nothing.
func SilentLog() *Log {
	return &Log{verbosity: Silent}
}

// Verbosity returns the configured verbosity.
func (l *Log) Verbosity() Verbosity {
	if l == nil {
		return Silent
	}
	return l.verbosity
}

// IsAtLeastNormal reports whether normal messages are produced.
func (l *Log) IsAtLeastNormal() bool { return l.Verbosity() >= Normal }

// IsAtLeastVerbose reports whether verbose messages are produced.
func (l *Log) IsAtLeastVerbose() bool { return l.Verbosity() >= Verbose }

// IsAtLeastDebug reports whether debug messages are produced.
func (l *Log) IsAtLeastDebug() bool { return l.Verbosity() >= Debug }

// Printf writes a message unless the log is silent. Callers check the
// verbosity of the message themselves.
func (l *Log) Printf(format string, args ...any) {
	if l == nil || l.logger == nil || l.verbosity == Silent {
		return
	}
	l.logger.Infof(format, args...)
}

// Infof writes a message at normal verbosity.
func (l *Log) Infof(format string, args ...any) {
	if l.IsAtLeastNormal() {
		l.Printf(format, args...)
	}
}

// Verbosef writes a message at verbose verbosity.
func (l *Log) Verbosef(format string, args ...any) {
	if l.IsAtLeastVerbose() {
		l.Printf(format, args...)
	}
}

// Debugf writes a message at debug verbosity.
func (l *Log) Debugf(format string, args ...any) {
	if l.IsAtLeastDebug() {
		l.Printf(format, args...)
	}
}

// Once reports whether key is seen for the first time on this log.
// A nil log never reports a first occurrence.
func (l *Log) Once(key string) bool {
	if l == nil {
		return false
	}
	if l.once == nil {
		l.once = make(map[string]bool)
	}
	if l.once[key] {
		return false
	}
	l.once[key] = true
	return true
}
