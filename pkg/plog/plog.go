// Package plog is the cumulative analysis log. Inconsistencies found during
// compilation or sensitivity analysis are recorded here and returned alongside
// the results; they never abort the computation.
package plog

import (
	"fmt"
	"strings"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Entry is one logged inconsistency: what happened, on which object,
// the offending value and the value that was expected or kept.
type Entry struct {
	Severity Severity
	Message  string
	Object   string
	Value    any
	Expected any
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s: %s (value=%v, expected=%v)",
		e.Severity, e.Object, e.Message, e.Value, e.Expected)
}

type Logger struct {
	entries []Entry
}

func New() *Logger {
	return &Logger{}
}

func (l *Logger) add(sev Severity, msg, object string, value, expected any) {
	l.entries = append(l.entries, Entry{
		Severity: sev,
		Message:  msg,
		Object:   object,
		Value:    value,
		Expected: expected,
	})
}

func (l *Logger) AddInfo(msg, object string, value, expected any) {
	l.add(Info, msg, object, value, expected)
}

func (l *Logger) AddWarning(msg, object string, value, expected any) {
	l.add(Warning, msg, object, value, expected)
}

func (l *Logger) AddError(msg, object string, value, expected any) {
	l.add(Error, msg, object, value, expected)
}

// Append merges another log into this one, keeping entry order.
func (l *Logger) Append(other *Logger) {
	if other != nil {
		l.entries = append(l.entries, other.entries...)
	}
}

func (l *Logger) Entries() []Entry { return l.entries }

func (l *Logger) Len() int { return len(l.entries) }

func (l *Logger) HasErrors() bool {
	for _, e := range l.entries {
		if e.Severity == Error {
			return true
		}
	}
	return false
}

func (l *Logger) String() string {
	var sb strings.Builder
	for _, e := range l.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
