package linear_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ramferan/GridCal/pkg/compile"
	"github.com/ramferan/GridCal/pkg/grid"
	"github.com/ramferan/GridCal/pkg/linear"
	"github.com/ramferan/GridCal/pkg/plog"
)

func compileGrid(t *testing.T, g *grid.Grid) *compile.NumCircuit {
	t.Helper()
	nc, err := compile.Compile(g, compile.Options{}, plog.New())
	require.NoError(t, err)
	return nc
}

func twoBus(t *testing.T) *compile.NumCircuit {
	g := grid.New("two bus")
	b0 := g.AddBus(grid.NewBus("bus0"))
	b0.IsSlack = true
	b1 := g.AddBus(grid.NewBus("bus1"))
	g.AddLoad(grid.NewLoad("load1", b1, 50, 10))
	g.AddLine(grid.NewLine("line01", b0, b1, 0.01, 0.1, 0.0, 100))
	return compileGrid(t, g)
}

// radial3 is slack - bus1 - bus2 with x = 0.1 on both lines.
func radial3(t *testing.T) *compile.NumCircuit {
	g := grid.New("radial")
	b0 := g.AddBus(grid.NewBus("bus0"))
	b0.IsSlack = true
	b1 := g.AddBus(grid.NewBus("bus1"))
	b2 := g.AddBus(grid.NewBus("bus2"))
	g.AddLoad(grid.NewLoad("load2", b2, 30, 5))
	g.AddLine(grid.NewLine("l01", b0, b1, 0.0, 0.1, 0.0, 100))
	g.AddLine(grid.NewLine("l12", b1, b2, 0.0, 0.1, 0.0, 100))
	return compileGrid(t, g)
}

// triangle3 is the fully meshed three bus system with equal reactances.
func triangle3(t *testing.T) *compile.NumCircuit {
	g := grid.New("triangle")
	b0 := g.AddBus(grid.NewBus("bus0"))
	b0.IsSlack = true
	b1 := g.AddBus(grid.NewBus("bus1"))
	b2 := g.AddBus(grid.NewBus("bus2"))
	g.AddLoad(grid.NewLoad("load2", b2, 30, 5))
	g.AddLine(grid.NewLine("l01", b0, b1, 0.0, 0.1, 0.0, 100))
	g.AddLine(grid.NewLine("l02", b0, b2, 0.0, 0.1, 0.0, 100))
	g.AddLine(grid.NewLine("l12", b1, b2, 0.0, 0.1, 0.0, 100))
	return compileGrid(t, g)
}

// TestPTDFTwoBus: with bus0 as reference, any injection at bus1 flows whole
// through the only branch.
func TestPTDFTwoBus(t *testing.T) {
	nc := twoBus(t)
	ptdf, err := linear.MakePTDF(nc.Bbus, nc.Bf, nc.Pqpv, false)
	require.NoError(t, err)

	require.InDelta(t, 0.0, ptdf.At(0, 0), 1e-9)
	require.InDelta(t, -1.0, ptdf.At(0, 1), 1e-9)
}

// TestPTDFRadial checks the radial chain against hand-solved DC sensitivity:
// an injection at the chain's end traverses both lines.
func TestPTDFRadial(t *testing.T) {
	nc := radial3(t)
	ptdf, err := linear.MakePTDF(nc.Bbus, nc.Bf, nc.Pqpv, false)
	require.NoError(t, err)

	require.InDelta(t, -1.0, ptdf.At(0, 1), 1e-9)
	require.InDelta(t, 0.0, ptdf.At(1, 1), 1e-9)
	require.InDelta(t, -1.0, ptdf.At(0, 2), 1e-9)
	require.InDelta(t, -1.0, ptdf.At(1, 2), 1e-9)
}

// TestPTDFTriangle checks the meshed split: an injection at bus1 divides 2/3
// on the direct path to the slack and 1/3 over the detour.
func TestPTDFTriangle(t *testing.T) {
	nc := triangle3(t)
	ptdf, err := linear.MakePTDF(nc.Bbus, nc.Bf, nc.Pqpv, false)
	require.NoError(t, err)

	require.InDelta(t, -2.0/3.0, ptdf.At(0, 1), 1e-9)
	require.InDelta(t, -1.0/3.0, ptdf.At(1, 1), 1e-9)
	require.InDelta(t, 1.0/3.0, ptdf.At(2, 1), 1e-9)
}

// TestLODFDiagonal: a branch's own outage always removes its full flow.
func TestLODFDiagonal(t *testing.T) {
	nc := triangle3(t)
	ptdf, err := linear.MakePTDF(nc.Bbus, nc.Bf, nc.Pqpv, false)
	require.NoError(t, err)
	lodf := linear.MakeLODF(nc.Branch.Cf, nc.Branch.Ct, ptdf, false)

	for i := 0; i < nc.Nbr(); i++ {
		require.Equal(t, -1.0, lodf.At(i, i))
	}
}

// TestLODFTriangle checks meshed redistribution by hand: losing l12 pushes
// its flow entirely onto the two remaining corridors.
func TestLODFTriangle(t *testing.T) {
	nc := triangle3(t)
	ptdf, err := linear.MakePTDF(nc.Bbus, nc.Bf, nc.Pqpv, false)
	require.NoError(t, err)
	lodf := linear.MakeLODF(nc.Branch.Cf, nc.Branch.Ct, ptdf, false)

	require.InDelta(t, -1.0, lodf.At(0, 2), 1e-9)
	require.InDelta(t, 1.0, lodf.At(1, 2), 1e-9)
}

// TestLODFZeroDivisionSafety: outaging a radial branch islands the network,
// so its column must stay zero instead of blowing up.
func TestLODFZeroDivisionSafety(t *testing.T) {
	nc := radial3(t)
	ptdf, err := linear.MakePTDF(nc.Bbus, nc.Bf, nc.Pqpv, false)
	require.NoError(t, err)
	lodf := linear.MakeLODF(nc.Branch.Cf, nc.Branch.Ct, ptdf, false)

	for k := 0; k < nc.Nbr(); k++ {
		for c := 0; c < nc.Nbr(); c++ {
			v := lodf.At(k, c)
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			if k != c {
				require.Equal(t, 0.0, v)
			}
		}
	}
}

// TestOTDFComposition verifies the composed factor entry by entry.
func TestOTDFComposition(t *testing.T) {
	nc := triangle3(t)
	ptdf, err := linear.MakePTDF(nc.Bbus, nc.Bf, nc.Pqpv, false)
	require.NoError(t, err)
	lodf := linear.MakeLODF(nc.Branch.Cf, nc.Branch.Ct, ptdf, false)

	j := 1
	otdf := linear.MakeOTDF(ptdf, lodf, j)
	for k := 0; k < nc.Nbr(); k++ {
		for l := 0; l < nc.Nbr(); l++ {
			want := ptdf.At(k, j) + lodf.At(k, l)*ptdf.At(l, j)
			require.InDelta(t, want, otdf.At(k, l), 1e-12)
		}
	}
}

// TestOTDFMaxDominates: the reduction keeps, per pair, a value at least as
// large in magnitude as any single-bus composition.
func TestOTDFMaxDominates(t *testing.T) {
	nc := triangle3(t)
	ptdf, err := linear.MakePTDF(nc.Bbus, nc.Bf, nc.Pqpv, false)
	require.NoError(t, err)
	lodf := linear.MakeLODF(nc.Branch.Cf, nc.Branch.Ct, ptdf, false)

	otdfMax := linear.MakeOTDFMax(ptdf, lodf)
	for j := 0; j < nc.Nbus(); j++ {
		otdf := linear.MakeOTDF(ptdf, lodf, j)
		for k := 0; k < nc.Nbr(); k++ {
			for l := 0; l < nc.Nbr(); l++ {
				require.GreaterOrEqual(t,
					math.Abs(otdfMax.At(k, l))+1e-12,
					math.Abs(otdf.At(k, l)))
			}
		}
	}
}

// TestLODFNx checks the single-branch group degenerates to the plain LODF
// column and that an islanding group reports singularity.
func TestLODFNx(t *testing.T) {
	nc := triangle3(t)
	ptdf, err := linear.MakePTDF(nc.Bbus, nc.Bf, nc.Pqpv, false)
	require.NoError(t, err)
	lodf := linear.MakeLODF(nc.Branch.Cf, nc.Branch.Ct, ptdf, false)

	single := linear.MakeLODFNx(lodf, []int{2})
	require.NotNil(t, single)
	for k := 0; k < nc.Nbr(); k++ {
		require.InDelta(t, lodf.At(k, 2), single.At(k, 0), 1e-9)
	}

	// Losing both slack corridors isolates the reference: singular.
	islanding := linear.MakeLODFNx(lodf, []int{0, 1})
	require.Nil(t, islanding)
}

// TestTransferLimitMonotonicity: raising a rating never shrinks the computed
// headroom.
func TestTransferLimitMonotonicity(t *testing.T) {
	ptdf := mat.NewDense(1, 2, []float64{0.5, -0.5})
	flows := []float64{10}

	low := linear.MakeTransferLimits(ptdf, flows, []float64{50})
	high := linear.MakeTransferLimits(ptdf, flows, []float64{60})
	require.GreaterOrEqual(t, math.Abs(high[0]), math.Abs(low[0]))
}

// TestTransferLimitsKeepLargest: the reduction keeps the largest-magnitude
// headroom over the injection buses.
func TestTransferLimitsKeepLargest(t *testing.T) {
	ptdf := mat.NewDense(1, 2, []float64{0.5, 0.25})
	tmc := linear.MakeTransferLimits(ptdf, []float64{10}, []float64{60})

	// (60 - 10) / 0.25 beats (60 - 10) / 0.5.
	require.InDelta(t, 200.0, tmc[0], 1e-12)
}

// TestContingencyTransferLimitsDiagonal: a branch's own outage is no
// contingency case, so the diagonal stays zero.
func TestContingencyTransferLimitsDiagonal(t *testing.T) {
	otdfMax := mat.NewDense(2, 2, []float64{0.5, 0.2, 0.2, 0.5})
	lodf := mat.NewDense(2, 2, []float64{-1, 0.4, 0.1, -1})
	tmc := linear.MakeContingencyTransferLimits(otdfMax, lodf, []float64{50, 10}, []float64{100, 100})

	require.Equal(t, 0.0, tmc.At(0, 0))
	require.Equal(t, 0.0, tmc.At(1, 1))
	// Post-outage flow 50 + 0.4*10 = 54; (100 - 54) / 0.2.
	require.InDelta(t, 230.0, tmc.At(0, 1), 1e-9)
}

// TestWorstContingencyTransferLimitsExtremes reduces the limit matrix to the
// per-row maximum and minimum.
func TestWorstContingencyTransferLimitsExtremes(t *testing.T) {
	tmc := mat.NewDense(2, 2, []float64{0, -50, 30, 0})
	maxs, mins := linear.MakeWorstContingencyTransferLimits(tmc)

	require.Equal(t, []float64{0, 30}, maxs)
	require.Equal(t, []float64{-50, 0}, mins)
}

// TestRunAtRespectsStepTopology: a branch out of service at a later step
// carries no sensitivity and no flow at that step.
func TestRunAtRespectsStepTopology(t *testing.T) {
	g := grid.New("profiled")
	b0 := g.AddBus(grid.NewBus("bus0"))
	b0.IsSlack = true
	b1 := g.AddBus(grid.NewBus("bus1"))
	b2 := g.AddBus(grid.NewBus("bus2"))
	g.AddLoad(grid.NewLoad("load2", b2, 30, 5))
	g.AddLine(grid.NewLine("l01", b0, b1, 0.0, 0.1, 0.0, 100))
	g.AddLine(grid.NewLine("l02", b0, b2, 0.0, 0.1, 0.0, 100))
	l12 := g.AddLine(grid.NewLine("l12", b1, b2, 0.0, 0.1, 0.0, 100))
	l12.ActiveProf = []bool{true, false}

	nc, err := compile.Compile(g, compile.Options{TimeSeries: true, NTime: 2}, plog.New())
	require.NoError(t, err)

	an := linear.NewAnalysis(nc, linear.Options{}, plog.New())
	require.NoError(t, an.RunAt(0))
	require.InDelta(t, 1.0/3.0, an.PTDF.At(2, 1), 1e-9)

	require.NoError(t, an.RunAt(1))
	for j := 0; j < nc.Nbus(); j++ {
		require.Equal(t, 0.0, an.PTDF.At(2, j))
	}
	require.Equal(t, 0.0, an.GetFlows(1)[2])
}

// TestAnalysisScatterBack runs the engine over a two-island system and checks
// island results land in full-system coordinates without cross-talk.
func TestAnalysisScatterBack(t *testing.T) {
	g := grid.New("islands")
	b0 := g.AddBus(grid.NewBus("b0"))
	b0.IsSlack = true
	b1 := g.AddBus(grid.NewBus("b1"))
	b2 := g.AddBus(grid.NewBus("b2"))
	b3 := g.AddBus(grid.NewBus("b3"))

	g.AddLine(grid.NewLine("l01", b0, b1, 0.0, 0.1, 0.0, 100))
	g.AddLine(grid.NewLine("l23", b2, b3, 0.0, 0.1, 0.0, 100))
	g.AddLoad(grid.NewLoad("load1", b1, 20, 4))
	g.AddLoad(grid.NewLoad("load3", b3, 20, 4))
	g.AddGenerator(grid.NewGenerator("gen2", b2, 30, 1.0))

	nc := compileGrid(t, g)
	an := linear.NewAnalysis(nc, linear.Options{}, plog.New())
	require.NoError(t, an.Run())

	// Each branch is sensitive only to its own island's buses.
	require.InDelta(t, -1.0, an.PTDF.At(0, 1), 1e-9)
	require.Equal(t, 0.0, an.PTDF.At(0, 2))
	require.Equal(t, 0.0, an.PTDF.At(0, 3))
	require.InDelta(t, -1.0, an.PTDF.At(1, 3), 1e-9)
	require.Equal(t, 0.0, an.PTDF.At(1, 0))

	// Cross-island outages never interact.
	require.Equal(t, 0.0, an.LODF.At(0, 1))
	require.Equal(t, 0.0, an.LODF.At(1, 0))
	require.Equal(t, -1.0, an.LODF.At(0, 0))
}

// TestAnalysisNoSlackIsland verifies that an unsolvable island contributes a
// zero block and a warning instead of failing the run.
func TestAnalysisNoSlackIsland(t *testing.T) {
	g := grid.New("no ref")
	b0 := g.AddBus(grid.NewBus("b0"))
	b0.IsSlack = true
	b1 := g.AddBus(grid.NewBus("b1"))
	b2 := g.AddBus(grid.NewBus("b2"))
	b3 := g.AddBus(grid.NewBus("b3"))

	g.AddLine(grid.NewLine("l01", b0, b1, 0.0, 0.1, 0.0, 100))
	g.AddLine(grid.NewLine("l23", b2, b3, 0.0, 0.1, 0.0, 100))
	g.AddLoad(grid.NewLoad("load1", b1, 20, 4))
	// Second island carries only load: no slack, no PV, nothing to promote.
	g.AddLoad(grid.NewLoad("load3", b3, 20, 4))

	nc := compileGrid(t, g)
	log := plog.New()
	an := linear.NewAnalysis(nc, linear.Options{}, log)
	require.NoError(t, an.Run())

	require.Equal(t, 0.0, an.PTDF.At(1, 3))
	require.Equal(t, 0.0, an.LODF.At(1, 1))
	require.Positive(t, log.Len())
}

// TestGetFlows maps the two bus load through the PTDF back to MW.
func TestGetFlows(t *testing.T) {
	nc := twoBus(t)
	an := linear.NewAnalysis(nc, linear.Options{}, nil)
	require.NoError(t, an.Run())

	flows := an.GetFlows(0)
	// PTDF[0,1] = -1 against an injection of -0.5 p.u.: 50 MW toward the
	// load.
	require.InDelta(t, 50.0, flows[0], 1e-9)
}

// TestACPTDFMatchesDCOnFlatStart: with a flat voltage profile and a lossless
// line the AC linearization reduces to the DC factors.
func TestACPTDFMatchesDCOnFlatStart(t *testing.T) {
	g := grid.New("lossless")
	b0 := g.AddBus(grid.NewBus("bus0"))
	b0.IsSlack = true
	b1 := g.AddBus(grid.NewBus("bus1"))
	g.AddLoad(grid.NewLoad("load1", b1, 50, 10))
	g.AddLine(grid.NewLine("line01", b0, b1, 0.0, 0.1, 0.0, 100))
	nc := compileGrid(t, g)

	ac, err := linear.MakeACPTDF(nc.Ybus, nc.Yf, nc.Bus.Vbus, nc.Branch.F, nc.Pq, nc.Pv, false)
	require.NoError(t, err)
	require.InDelta(t, -1.0, ac.At(0, 1), 1e-6)
}
