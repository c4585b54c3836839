package compile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramferan/GridCal/pkg/compile"
	"github.com/ramferan/GridCal/pkg/grid"
	"github.com/ramferan/GridCal/pkg/plog"
)

// twoBusGrid is the canonical slack + loaded PQ bus pair joined by one line.
func twoBusGrid() *grid.Grid {
	g := grid.New("two bus")
	b0 := g.AddBus(grid.NewBus("bus0"))
	b0.IsSlack = true
	b1 := g.AddBus(grid.NewBus("bus1"))
	g.AddLoad(grid.NewLoad("load1", b1, 50, 10))
	g.AddLine(grid.NewLine("line01", b0, b1, 0.01, 0.1, 0.0, 100))
	return g
}

// TestCompileTwoBus walks the full snapshot compilation of the two bus system
// and checks the compiled structure against hand values.
func TestCompileTwoBus(t *testing.T) {
	log := plog.New()
	nc, err := compile.Compile(twoBusGrid(), compile.Options{}, log)
	require.NoError(t, err)
	require.False(t, log.HasErrors())

	require.Equal(t, 2, nc.Nbus())
	require.Equal(t, 1, nc.Nbr())
	require.Equal(t, []int{0}, nc.Branch.F)
	require.Equal(t, []int{1}, nc.Branch.T)
	require.Equal(t, 1, nc.Nline)

	// DC linearization ignores the resistance: b = 1/x.
	require.InDelta(t, -10.0, nc.Bbus.At(1, 1), 1e-12)
	require.InDelta(t, 10.0, nc.Bbus.At(0, 1), 1e-12)
	require.InDelta(t, -10.0, nc.Bf.At(0, 0), 1e-12)
	require.InDelta(t, 10.0, nc.Bf.At(0, 1), 1e-12)

	// Injections in p.u. over Sbase = 100.
	require.InDelta(t, -0.5, real(nc.Sbus[1]), 1e-12)
	require.InDelta(t, -0.1, imag(nc.Sbus[1]), 1e-12)

	require.Equal(t, []int{0}, nc.Ref)
	require.Equal(t, []int{1}, nc.Pq)
	require.Equal(t, []int{1}, nc.Pqpv)
}

// TestCompileYbus checks the admittance assembly of the two bus line against
// the series admittance by hand.
func TestCompileYbus(t *testing.T) {
	nc, err := compile.Compile(twoBusGrid(), compile.Options{}, nil)
	require.NoError(t, err)

	ys := 1 / complex(0.01, 0.1)
	require.InDelta(t, real(ys), real(nc.Ybus.At(0, 0)), 1e-12)
	require.InDelta(t, imag(ys), imag(nc.Ybus.At(0, 0)), 1e-12)
	require.InDelta(t, real(-ys), real(nc.Ybus.At(0, 1)), 1e-12)
	require.InDelta(t, real(-ys), real(nc.Ybus.At(1, 0)), 1e-12)
}

// TestCompilePVPromotion verifies that a controlled generator turns its bus
// into a PV bus and writes its set point into the voltage guess.
func TestCompilePVPromotion(t *testing.T) {
	g := twoBusGrid()
	b2 := g.AddBus(grid.NewBus("bus2"))
	g.AddLine(grid.NewLine("line12", g.Buses[1], b2, 0.01, 0.1, 0.0, 100))
	g.AddGenerator(grid.NewGenerator("gen2", b2, 30, 1.02))

	nc, err := compile.Compile(g, compile.Options{}, nil)
	require.NoError(t, err)

	require.Equal(t, grid.PV, nc.Bus.Types[2])
	require.Equal(t, []int{2}, nc.Pv)
	require.InDelta(t, 1.02, real(nc.Bus.Vbus[2]), 1e-12)
	require.InDelta(t, 0.3, real(nc.Sbus[2]), 1e-12)
}

// TestCompileSetPointConflict verifies that the first set point on a bus wins
// and a later differing one is logged as an error.
func TestCompileSetPointConflict(t *testing.T) {
	g := twoBusGrid()
	b2 := g.AddBus(grid.NewBus("bus2"))
	g.AddLine(grid.NewLine("line12", g.Buses[1], b2, 0.01, 0.1, 0.0, 100))
	g.AddGenerator(grid.NewGenerator("genA", b2, 30, 1.02))
	g.AddGenerator(grid.NewGenerator("genB", b2, 10, 0.98))

	log := plog.New()
	nc, err := compile.Compile(g, compile.Options{}, log)
	require.NoError(t, err)

	require.InDelta(t, 1.02, real(nc.Bus.Vbus[2]), 1e-12)
	require.True(t, log.HasErrors())
	require.Equal(t, "Different set points", log.Entries()[0].Message)
}

// TestCompileUnknownBus verifies the sentinel for devices pointing outside
// the registry.
func TestCompileUnknownBus(t *testing.T) {
	g := twoBusGrid()
	orphan := grid.NewBus("orphan") // never added
	g.AddLoad(grid.NewLoad("bad", orphan, 1, 0))

	_, err := compile.Compile(g, compile.Options{}, nil)
	require.ErrorIs(t, err, compile.ErrUnknownBus)
}

// TestCompileHvdcForcesPV verifies that an active link rewrites both terminal
// types and injects the scheduled power with opposite signs.
func TestCompileHvdcForcesPV(t *testing.T) {
	g := twoBusGrid()
	b2 := g.AddBus(grid.NewBus("bus2"))
	g.AddLine(grid.NewLine("line12", g.Buses[1], b2, 0.01, 0.1, 0.0, 100))
	g.AddHvdcLine(grid.NewHvdcLine("hvdc12", g.Buses[1], b2, 20, 50))

	nc, err := compile.Compile(g, compile.Options{}, nil)
	require.NoError(t, err)

	require.Equal(t, grid.PV, nc.Bus.Types[1])
	require.Equal(t, grid.PV, nc.Bus.Types[2])
	// -Pset at the from side on top of the 50 MW load.
	require.InDelta(t, -0.7, real(nc.Sbus[1]), 1e-12)
	require.InDelta(t, 0.2, real(nc.Sbus[2]), 1e-12)
}

// TestCompileTimeSeries verifies that profiles shadow the scalar snapshot
// values step by step.
func TestCompileTimeSeries(t *testing.T) {
	g := twoBusGrid()
	g.Loads[0].PProf = []float64{10, 20}
	g.Loads[0].QProf = []float64{1, 2}

	nc, err := compile.Compile(g, compile.Options{TimeSeries: true, NTime: 2}, nil)
	require.NoError(t, err)

	require.Equal(t, 2, nc.Ntime)
	require.Equal(t, complex(10, 1), nc.Load.S[0][0])
	require.Equal(t, complex(20, 2), nc.Load.S[0][1])
}

// TestSplitIntoIslandsIdentity verifies the round trip: a connected circuit
// splits into exactly itself.
func TestSplitIntoIslandsIdentity(t *testing.T) {
	nc, err := compile.Compile(twoBusGrid(), compile.Options{}, nil)
	require.NoError(t, err)

	islands, err := nc.SplitIntoIslands(true, nil)
	require.NoError(t, err)
	require.Len(t, islands, 1)
	require.Same(t, nc, islands[0])
}

// TestSplitIntoIslandsOutage splits a two-component system and checks the
// back-references into the parent ordering.
func TestSplitIntoIslandsOutage(t *testing.T) {
	g := grid.New("split")
	b0 := g.AddBus(grid.NewBus("b0"))
	b0.IsSlack = true
	b1 := g.AddBus(grid.NewBus("b1"))
	b2 := g.AddBus(grid.NewBus("b2"))
	b3 := g.AddBus(grid.NewBus("b3"))

	g.AddLine(grid.NewLine("l01", b0, b1, 0.01, 0.1, 0.0, 100))
	bridge := g.AddLine(grid.NewLine("l12", b1, b2, 0.01, 0.1, 0.0, 100))
	g.AddLine(grid.NewLine("l23", b2, b3, 0.01, 0.1, 0.0, 100))
	bridge.Active = false

	g.AddLoad(grid.NewLoad("load1", b1, 10, 2))
	g.AddLoad(grid.NewLoad("load3", b3, 20, 5))
	g.AddGenerator(grid.NewGenerator("gen2", b2, 30, 1.0))

	nc, err := compile.Compile(g, compile.Options{}, nil)
	require.NoError(t, err)

	islands, err := nc.SplitIntoIslands(true, plog.New())
	require.NoError(t, err)
	require.Len(t, islands, 2)

	first, second := islands[0], islands[1]
	require.Equal(t, []int{0, 1}, first.OriginalBusIdx)
	require.Equal(t, []int{0}, first.OriginalBranchIdx)
	require.Equal(t, 2, first.Nbus())
	require.Equal(t, 1, first.Nbr())

	require.Equal(t, []int{2, 3}, second.OriginalBusIdx)
	require.Equal(t, []int{2}, second.OriginalBranchIdx)
	// Local indices are remapped into island coordinates.
	require.Equal(t, []int{0}, second.Branch.F)
	require.Equal(t, []int{1}, second.Branch.T)
	// The generator promoted itself to the island reference during the
	// island consolidation.
	require.Equal(t, []int{0}, second.Ref)
}

// TestCompileInactiveBranchZeroRow verifies that an inactive branch leaves no
// trace in the susceptance structure.
func TestCompileInactiveBranchZeroRow(t *testing.T) {
	g := twoBusGrid()
	g.Lines[0].Active = false

	nc, err := compile.Compile(g, compile.Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, 0.0, nc.Bbus.At(1, 1))
	require.Equal(t, 0.0, nc.Bf.At(0, 1))
}

// TestCompileBranchFreeGrid: a grid without branches still compiles and
// consolidates; the branch-indexed matrices stay nil.
func TestCompileBranchFreeGrid(t *testing.T) {
	g := grid.New("no branches")
	b0 := g.AddBus(grid.NewBus("bus0"))
	b0.IsSlack = true
	g.AddGenerator(grid.NewGenerator("gen0", b0, 10, 1.0))

	nc, err := compile.Compile(g, compile.Options{}, plog.New())
	require.NoError(t, err)
	require.Equal(t, 0, nc.Nbr())
	require.NotNil(t, nc.Ybus)
	require.Nil(t, nc.Yf)
	require.Nil(t, nc.Bf)
}

// TestSplitIntoIslandsKeepsSingleNode: with ignoreSingleNode off an isolated
// bus becomes its own branch-free island and consolidates.
func TestSplitIntoIslandsKeepsSingleNode(t *testing.T) {
	g := twoBusGrid()
	g.AddBus(grid.NewBus("bus2"))

	nc, err := compile.Compile(g, compile.Options{}, plog.New())
	require.NoError(t, err)

	islands, err := nc.SplitIntoIslands(false, plog.New())
	require.NoError(t, err)
	require.Len(t, islands, 2)

	single := islands[1]
	require.Equal(t, []int{2}, single.OriginalBusIdx)
	require.Equal(t, 0, single.Nbr())
	require.Nil(t, single.Bf)
}

// TestGetIslandExcludesDanglingBranch: an active branch into an inactive bus
// stays out of the island instead of aliasing a local bus index.
func TestGetIslandExcludesDanglingBranch(t *testing.T) {
	g := twoBusGrid()
	b2 := g.AddBus(grid.NewBus("bus2"))
	b2.Active = false
	g.AddLine(grid.NewLine("line12", g.Buses[1], b2, 0.0, 0.1, 0.0, 100))

	nc, err := compile.Compile(g, compile.Options{}, plog.New())
	require.NoError(t, err)

	islands, err := nc.SplitIntoIslands(true, plog.New())
	require.NoError(t, err)
	require.Len(t, islands, 1)

	isl := islands[0]
	require.Equal(t, []int{0, 1}, isl.OriginalBusIdx)
	require.Equal(t, []int{0}, isl.OriginalBranchIdx)
	require.Equal(t, []int{0}, isl.Branch.F)
	require.Equal(t, []int{1}, isl.Branch.T)
	require.InDelta(t, -10.0, isl.Bbus.At(0, 0), 1e-12)
	require.InDelta(t, -10.0, isl.Bbus.At(1, 1), 1e-12)
}

// TestVoltageAccumulator exercises the first-wins rule directly.
func TestVoltageAccumulator(t *testing.T) {
	v := []complex128{1, 1, 1}
	acc := compile.NewVoltageAccumulator(v)

	require.Nil(t, acc.Propose(0, 1.05))
	require.Nil(t, acc.Propose(0, 1.05)) // same value, no conflict

	c := acc.Propose(0, 0.95)
	require.NotNil(t, c)
	require.Equal(t, 0, c.BusIdx)
	require.Equal(t, 1.05, c.Existing)
	require.Equal(t, complex(1.05, 0), v[0])
}
