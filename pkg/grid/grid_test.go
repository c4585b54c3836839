package grid_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramferan/GridCal/pkg/grid"
)

// TestQFromPowerFactor keeps the sign of P and honors the factor.
func TestQFromPowerFactor(t *testing.T) {
	require.InDelta(t, 0.75, grid.QFromPowerFactor(1.0, 0.8), 1e-12)
	require.InDelta(t, -0.75, grid.QFromPowerFactor(-1.0, 0.8), 1e-12)
	require.Equal(t, 0.0, grid.QFromPowerFactor(1.0, 0.0))
	require.InDelta(t, 0.0, grid.QFromPowerFactor(1.0, 1.0), 1e-12)
}

// TestDefaultQCurve: the curve narrows toward the machine's apparent power
// and respects the hard limits at low output.
func TestDefaultQCurve(t *testing.T) {
	pts := grid.MakeDefaultQCurve(100, -60, 80, 5)
	require.Len(t, pts, 5)

	require.Equal(t, 0.0, pts[0].P)
	require.Equal(t, -60.0, pts[0].Qmin)
	require.Equal(t, 80.0, pts[0].Qmax)

	// At P = Snom no reactive headroom is left.
	last := pts[len(pts)-1]
	require.InDelta(t, 100.0, last.P, 1e-9)
	require.InDelta(t, 0.0, last.Qmax, 1e-6)
}

// TestQLimitsInterpolation checks the piecewise-linear lookup between curve
// points and the clamping outside the curve's span.
func TestQLimitsInterpolation(t *testing.T) {
	pts := []grid.QCurvePoint{
		{P: 0, Qmin: -50, Qmax: 50},
		{P: 100, Qmin: 0, Qmax: 0},
	}
	qmin, qmax := grid.QLimitsAt(pts, 50)
	require.InDelta(t, -25.0, qmin, 1e-12)
	require.InDelta(t, 25.0, qmax, 1e-12)

	qmin, qmax = grid.QLimitsAt(pts, -10)
	require.Equal(t, -50.0, qmin)
	require.Equal(t, 50.0, qmax)

	qmin, qmax = grid.QLimitsAt(pts, 200)
	require.Equal(t, 0.0, qmin)
	require.Equal(t, 0.0, qmax)
}

// TestGeneratorQLimits prefers the capability curve when present.
func TestGeneratorQLimits(t *testing.T) {
	b := grid.NewBus("b")
	g := grid.NewGenerator("g", b, 50, 1.0)
	g.QCurve = nil
	g.Qmin, g.Qmax = -10, 10

	qmin, qmax := g.QLimits(30)
	require.Equal(t, -10.0, qmin)
	require.Equal(t, 10.0, qmax)
}

// TestLineRCorrected applies the temperature coefficient.
func TestLineRCorrected(t *testing.T) {
	b1, b2 := grid.NewBus("a"), grid.NewBus("b")
	l := grid.NewLine("l", b1, b2, 0.01, 0.1, 0, 100)
	l.TempBase = 20
	l.TempOper = 50
	l.Alpha = 0.004

	require.InDelta(t, 0.01*(1+0.004*30), l.RCorrected(), 1e-12)
}

// TestVirtualTaps compensates winding nominals that differ from the
// connection buses.
func TestVirtualTaps(t *testing.T) {
	hv := grid.NewBus("hv")
	hv.Vnom = 110
	lv := grid.NewBus("lv")
	lv.Vnom = 10

	tr := grid.NewTransformer2W("tr", hv, lv, 0.0, 0.1, 50)
	tr.HV = 132
	tr.LV = 11

	tf, tt := tr.VirtualTaps()
	require.InDelta(t, 132.0/110.0, tf, 1e-12)
	require.InDelta(t, 11.0/10.0, tt, 1e-12)
}

// TestBranchIDsOrdering: the unified branch ordering is lines, DC lines,
// transformers, VSCs, UPFCs regardless of insertion order.
func TestBranchIDsOrdering(t *testing.T) {
	g := grid.New("order")
	b1 := g.AddBus(grid.NewBus("b1"))
	b2 := g.AddBus(grid.NewBus("b2"))

	tr := g.AddTransformer(grid.NewTransformer2W("tr", b1, b2, 0, 0.1, 50))
	ln := g.AddLine(grid.NewLine("ln", b1, b2, 0, 0.1, 0, 100))
	dc := g.AddDcLine(grid.NewDcLine("dc", b1, b2, 0.05, 80))

	ids := g.BranchIDs()
	require.Equal(t, ln.ID, ids[0])
	require.Equal(t, dc.ID, ids[1])
	require.Equal(t, tr.ID, ids[2])
}

// TestContingencyGroupBranches resolves device IDs to unified branch indices,
// deduplicated and sorted.
func TestContingencyGroupBranches(t *testing.T) {
	g := grid.New("contingencies")
	b1 := g.AddBus(grid.NewBus("b1"))
	b2 := g.AddBus(grid.NewBus("b2"))
	lnA := g.AddLine(grid.NewLine("lnA", b1, b2, 0, 0.1, 0, 100))
	lnB := g.AddLine(grid.NewLine("lnB", b1, b2, 0, 0.2, 0, 100))

	grp := g.AddContingencyGroup(grid.NewContingencyGroup("double"))
	g.AddContingency(grid.NewContingency(grp, lnB.ID))
	g.AddContingency(grid.NewContingency(grp, lnA.ID))
	g.AddContingency(grid.NewContingency(grp, lnA.ID)) // duplicate

	groups := g.ContingencyGroupBranches()
	require.Equal(t, []int{0, 1}, groups[grp])
}

// TestBusCopy yields a fresh identity with equal configuration.
func TestBusCopy(t *testing.T) {
	b := grid.NewBus("orig")
	b.Vnom = 220
	c := b.Copy()

	require.NotEqual(t, b.ID, c.ID)
	require.Equal(t, b.Vnom, c.Vnom)
	require.Equal(t, b.Name, c.Name)
}

// TestVoltageGuess: flat start unless the stored point is requested.
func TestVoltageGuess(t *testing.T) {
	b := grid.NewBus("b")
	b.Vm0 = 1.05
	b.Va0 = math.Pi / 6

	require.Equal(t, complex(1, 0), b.VoltageGuess(false))
	v := b.VoltageGuess(true)
	require.InDelta(t, 1.05*math.Cos(math.Pi/6), real(v), 1e-12)
	require.InDelta(t, 1.05*math.Sin(math.Pi/6), imag(v), 1e-12)
}
