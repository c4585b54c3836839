package plog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramferan/GridCal/pkg/plog"
)

// TestSeverityAccumulation keeps entries in insertion order and flags errors.
func TestSeverityAccumulation(t *testing.T) {
	l := plog.New()
	require.Zero(t, l.Len())
	require.False(t, l.HasErrors())

	l.AddInfo("compiled", "grid", 4, 4)
	l.AddWarning("No slack bus", "island", 0, 1)
	require.False(t, l.HasErrors())

	l.AddError("Different set points", "bus2", 0.98, 1.02)
	require.True(t, l.HasErrors())
	require.Equal(t, 3, l.Len())

	e := l.Entries()[2]
	require.Equal(t, plog.Error, e.Severity)
	require.Equal(t, "bus2", e.Object)
}

// TestAppend merges another logger's entries.
func TestAppend(t *testing.T) {
	a := plog.New()
	a.AddInfo("a", "x", nil, nil)

	b := plog.New()
	b.AddError("b", "y", nil, nil)

	a.Append(b)
	require.Equal(t, 2, a.Len())
	require.True(t, a.HasErrors())
}

// TestString renders one line per entry.
func TestString(t *testing.T) {
	l := plog.New()
	l.AddWarning("Zero impedance branch", "line7", 0, "> 0")
	s := l.String()
	require.Contains(t, s, "Zero impedance branch")
	require.Contains(t, s, "line7")
}
