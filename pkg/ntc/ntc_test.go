package ntc_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ramferan/GridCal/pkg/compile"
	"github.com/ramferan/GridCal/pkg/grid"
	"github.com/ramferan/GridCal/pkg/ntc"
	"github.com/ramferan/GridCal/pkg/plog"
)

// TestComputeAlphaShares verifies the proportional dispatch perturbation:
// senders share by positive injection, receivers by negative.
func TestComputeAlphaShares(t *testing.T) {
	// One branch fully coupled to bus 0 only.
	ptdf := mat.NewDense(1, 4, []float64{1, 0, 0, 0})
	P := []float64{80, 20, -50, -50}
	types := []grid.BusMode{grid.Slack, grid.PV, grid.PV, grid.PV}

	alpha := ntc.ComputeAlpha(ptdf, P, types, []int{0, 1}, []int{2, 3}, 100)
	require.InDelta(t, 0.8, alpha[0], 1e-12)
}

// TestComputeAlphaExcludesNonDispatchable: PQ buses take no part in the
// perturbation even inside the exchange groups.
func TestComputeAlphaExcludesNonDispatchable(t *testing.T) {
	ptdf := mat.NewDense(1, 4, []float64{1, 0, 0, 0})
	P := []float64{80, 20, -50, -50}
	types := []grid.BusMode{grid.Slack, grid.PQ, grid.PV, grid.PV}

	alpha := ntc.ComputeAlpha(ptdf, P, types, []int{0, 1}, []int{2, 3}, 100)
	require.InDelta(t, 1.0, alpha[0], 1e-12)
}

// TestComputeATCHandValues walks the sign-dependent headroom formula and the
// most-restrictive reduction on a two branch example.
func TestComputeATCHandValues(t *testing.T) {
	lodf := mat.NewDense(2, 2, []float64{-1, 0.4, 0.1, -1})
	alpha := []float64{0.5, 0.01}
	flows := []float64{50, 10}
	rates := []float64{100, 100}
	cRates := []float64{100, 100}

	r := ntc.ComputeATC(lodf, alpha, flows, rates, cRates, nil, 0.02, []string{"br0", "br1"}, nil)

	// Branch 0, intact: (100 - 50) / 0.5.
	require.InDelta(t, 100.0, r.AtcN[0], 1e-9)
	// Branch 0 under outage of branch 1: beta = 0.5 + 0.4*0.01,
	// post-outage flow = 50 + 0.4*10.
	beta := 0.5 + 0.4*0.01
	require.InDelta(t, (100.0-54.0)/beta, r.AtcMC[0], 1e-9)
	require.Equal(t, 1, r.WorstContingency[0])
	require.InDelta(t, 54.0, r.ContingencyFlow[0], 1e-9)
	// The contingency case is tighter.
	require.InDelta(t, r.AtcMC[0], r.AtcFinal[0], 1e-9)

	// Branch 1 is insensitive to the exchange, so it never binds, not even
	// through the outage of branch 0.
	require.True(t, math.IsInf(r.AtcN[1], 1))
	require.True(t, math.IsInf(r.AtcFinal[1], 1))
	require.Equal(t, -1, r.WorstContingency[1])
}

// TestComputeATCNegativeSensitivity uses the negative-rate side of the
// formula.
func TestComputeATCNegativeSensitivity(t *testing.T) {
	lodf := mat.NewDense(1, 1, []float64{-1})
	r := ntc.ComputeATC(lodf, []float64{-0.5}, []float64{20}, []float64{100}, []float64{100},
		nil, 0.02, []string{"br0"}, nil)

	// (-100 - 20) / -0.5 = 240.
	require.InDelta(t, 240.0, r.AtcN[0], 1e-9)
}

// TestComputeATCOverloadReported: a branch beyond rating before any transfer
// is excluded from the limit search and surfaced in the log.
func TestComputeATCOverloadReported(t *testing.T) {
	lodf := mat.NewDense(1, 1, []float64{-1})
	log := plog.New()
	r := ntc.ComputeATC(lodf, []float64{0.5}, []float64{120}, []float64{100}, []float64{100},
		nil, 0.02, []string{"br0"}, log)

	require.Equal(t, []int{0}, r.Overloaded)
	require.True(t, math.IsInf(r.AtcFinal[0], 1))
	require.Equal(t, 1, log.Len())
}

// TestComputeATCMonitorMask: unmonitored branches never bind.
func TestComputeATCMonitorMask(t *testing.T) {
	lodf := mat.NewDense(1, 1, []float64{-1})
	r := ntc.ComputeATC(lodf, []float64{0.5}, []float64{50}, []float64{100}, []float64{100},
		[]bool{false}, 0.02, []string{"br0"}, nil)

	require.True(t, math.IsInf(r.AtcFinal[0], 1))
}

// exchangeGrid is a meshed three bus system: the slack outside both areas, a
// generating bus in area 1 and a consuming generator-plus-load bus in area 2,
// so both groups carry a dispatchable participant.
func exchangeGrid() *grid.Grid {
	g := grid.New("exchange")
	b0 := g.AddBus(grid.NewBus("b0"))
	b0.IsSlack = true
	b1 := g.AddBus(grid.NewBus("b1"))
	b1.Area = 1
	b2 := g.AddBus(grid.NewBus("b2"))
	b2.Area = 2

	g.AddGenerator(grid.NewGenerator("gen0", b0, 10, 1.0))
	g.AddGenerator(grid.NewGenerator("gen1", b1, 50, 1.0))
	g.AddGenerator(grid.NewGenerator("pump2", b2, -40, 1.0))
	g.AddLoad(grid.NewLoad("load2", b2, 20, 5))

	g.AddLine(grid.NewLine("l01", b0, b1, 0.0, 0.1, 0.0, 100))
	g.AddLine(grid.NewLine("l02", b0, b2, 0.0, 0.1, 0.0, 100))
	g.AddLine(grid.NewLine("l12", b1, b2, 0.0, 0.1, 0.0, 100))
	return g
}

// TestDriverEndToEnd compiles, runs the exchange study and checks the report
// ordering: most restrictive branch first.
func TestDriverEndToEnd(t *testing.T) {
	log := plog.New()
	nc, err := compile.Compile(exchangeGrid(), compile.Options{}, log)
	require.NoError(t, err)

	drv := ntc.NewDriver(nc, ntc.Options{AreaFrom: 1, AreaTo: 2}, log)
	require.NoError(t, drv.Run())
	require.NotNil(t, drv.Results)

	require.False(t, math.IsInf(drv.Ntc(), 0))

	rows := drv.Report()
	require.NotEmpty(t, rows)
	for i := 1; i < len(rows); i++ {
		require.LessOrEqual(t, math.Abs(rows[i-1].Atc), math.Abs(rows[i].Atc))
	}
	require.InDelta(t, math.Abs(drv.Ntc()), math.Abs(rows[0].Atc), 1e-9)
}

// TestDriverEmptyGroup surfaces the configuration error instead of an empty
// study.
func TestDriverEmptyGroup(t *testing.T) {
	nc, err := compile.Compile(exchangeGrid(), compile.Options{}, nil)
	require.NoError(t, err)

	drv := ntc.NewDriver(nc, ntc.Options{AreaFrom: 1, AreaTo: 9}, nil)
	require.ErrorIs(t, drv.Run(), ntc.ErrEmptyExchangeGroup)
}

// TestTimeSeriesDriverCancel: cancelling before the run leaves every step
// untouched.
func TestTimeSeriesDriverCancel(t *testing.T) {
	d := ntc.NewTimeSeriesDriver(exchangeGrid(), ntc.Options{AreaFrom: 1, AreaTo: 2}, plog.New())
	d.Cancel()
	require.NoError(t, d.Run(3))
	for _, r := range d.Results {
		require.Nil(t, r)
	}
}

// TestTimeSeriesDriver runs two steps with a load profile and yields a result
// per step.
func TestTimeSeriesDriver(t *testing.T) {
	g := exchangeGrid()
	g.Loads[0].PProf = []float64{60, 30}
	g.Loads[0].QProf = []float64{10, 5}

	d := ntc.NewTimeSeriesDriver(g, ntc.Options{AreaFrom: 1, AreaTo: 2}, plog.New())
	require.NoError(t, d.Run(2))
	require.NotNil(t, d.Results[0])
	require.NotNil(t, d.Results[1])
	require.False(t, math.IsInf(d.Ntc[0], 0))
}
