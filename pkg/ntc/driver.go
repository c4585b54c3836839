package ntc

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/ramferan/GridCal/internal/consts"
	"github.com/ramferan/GridCal/pkg/compile"
	"github.com/ramferan/GridCal/pkg/grid"
	"github.com/ramferan/GridCal/pkg/linear"
	"github.com/ramferan/GridCal/pkg/plog"
	"github.com/ramferan/GridCal/pkg/topology"
)

// ErrEmptyExchangeGroup reports a sending or receiving area with no buses.
var ErrEmptyExchangeGroup = errors.New("empty exchange group")

// Options select the exchange areas and tune the evaluation.
type Options struct {
	AreaFrom int
	AreaTo   int

	Dt        float64 // perturbation magnitude (MW)
	Threshold float64 // minimum relevant |alpha|

	DistributeSlack bool
	CorrectValues   bool
}

func (o *Options) defaults() {
	if o.Dt == 0 {
		o.Dt = 100.0
	}
	if o.Threshold == 0 {
		o.Threshold = consts.NTC_THRESHOLD
	}
}

// ReportRow is one branch of the transfer-capacity report.
type ReportRow struct {
	Branch           string
	Atc              float64
	AtcN             float64
	WorstContingency string
	ContingencyFlow  float64
	Flow             float64
	Rate             float64
}

// Driver runs a snapshot transfer-capacity study over a compiled circuit.
type Driver struct {
	Circuit *compile.NumCircuit
	Opt     Options
	Log     *plog.Logger

	Results *Results
	Flows   []float64
}

func NewDriver(nc *compile.NumCircuit, opt Options, log *plog.Logger) *Driver {
	opt.defaults()
	return &Driver{Circuit: nc, Opt: opt, Log: log}
}

// busGroups splits the bus indices by the configured areas.
func (d *Driver) busGroups() (idx1, idx2 []int, err error) {
	for i, a := range d.Circuit.Bus.Areas {
		switch a {
		case d.Opt.AreaFrom:
			idx1 = append(idx1, i)
		case d.Opt.AreaTo:
			idx2 = append(idx2, i)
		}
	}
	if len(idx1) == 0 {
		return nil, nil, fmt.Errorf("sending area %d: %w", d.Opt.AreaFrom, ErrEmptyExchangeGroup)
	}
	if len(idx2) == 0 {
		return nil, nil, fmt.Errorf("receiving area %d: %w", d.Opt.AreaTo, ErrEmptyExchangeGroup)
	}
	return idx1, idx2, nil
}

// Run evaluates the study for time step 0.
func (d *Driver) Run() error {
	return d.RunAt(0)
}

// RunAt evaluates the study for an arbitrary time step, against that step's
// branch topology.
func (d *Driver) RunAt(t int) error {
	an := linear.NewAnalysis(d.Circuit, linear.Options{
		DistributeSlack: d.Opt.DistributeSlack,
		CorrectValues:   d.Opt.CorrectValues,
	}, d.Log)
	if err := an.RunAt(t); err != nil {
		return err
	}
	return d.evalWith(an, t)
}

// evalWith derives the step-t transfer capacities from an already computed
// sensitivity analysis. The analysis must match the step's topology.
func (d *Driver) evalWith(an *linear.Analysis, t int) error {
	idx1, idx2, err := d.busGroups()
	if err != nil {
		return err
	}

	// Nothing to limit without branches.
	if an.PTDF == nil {
		d.Flows = nil
		d.Results = &Results{}
		return nil
	}

	P := make([]float64, d.Circuit.Nbus())
	for i, s := range d.Circuit.ComputeInjections(t) {
		P[i] = real(s) * d.Circuit.Sbase
	}

	alpha := ComputeAlpha(an.PTDF, P, d.Circuit.Bus.Types, idx1, idx2, d.Opt.Dt)
	d.Flows = an.GetFlows(t)
	d.Results = ComputeATC(an.LODF, alpha, d.Flows,
		d.Circuit.Branch.RatesAt(t), d.Circuit.Branch.ContingencyRatesAt(t),
		d.Circuit.Branch.MonitorLoading, d.Opt.Threshold,
		d.Circuit.Branch.Names, d.Log)
	return nil
}

// Ntc is the net transfer capacity: the most restrictive branch limit of the
// last run. Infinite when nothing binds.
func (d *Driver) Ntc() float64 {
	ntc := math.Inf(1)
	if d.Results == nil {
		return ntc
	}
	for _, v := range d.Results.AtcFinal {
		if math.Abs(v) < math.Abs(ntc) {
			ntc = v
		}
	}
	return ntc
}

// Report assembles the per-branch rows, most restrictive first. Branches that
// never qualify are excluded.
func (d *Driver) Report() []ReportRow {
	if d.Results == nil {
		return nil
	}
	var rows []ReportRow
	for m, atc := range d.Results.AtcFinal {
		if math.IsInf(atc, 0) {
			continue
		}
		row := ReportRow{
			Branch: d.Circuit.Branch.Names[m],
			Atc:    atc,
			AtcN:   d.Results.AtcN[m],
			Flow:   d.Flows[m],
			Rate:   d.Circuit.Branch.Rates[m][0],
		}
		if c := d.Results.WorstContingency[m]; c >= 0 {
			row.WorstContingency = d.Circuit.Branch.Names[c]
			row.ContingencyFlow = d.Results.ContingencyFlow[m]
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return math.Abs(rows[i].Atc) < math.Abs(rows[j].Atc)
	})
	return rows
}

// TimeSeriesDriver evaluates the study over every compiled time step. It can
// be cancelled from another goroutine; completed steps are kept.
type TimeSeriesDriver struct {
	Grid *grid.Grid
	Opt  Options
	Log  *plog.Logger

	Results []*Results
	Ntc     []float64

	cancel atomic.Bool
}

func NewTimeSeriesDriver(g *grid.Grid, opt Options, log *plog.Logger) *TimeSeriesDriver {
	opt.defaults()
	return &TimeSeriesDriver{Grid: g, Opt: opt, Log: log}
}

// Cancel requests a stop after the current time step.
func (d *TimeSeriesDriver) Cancel() { d.cancel.Store(true) }

// Run compiles the grid once and evaluates the snapshot study per time step.
// Steps sharing a branch topology reuse one sensitivity analysis. A failing
// step is logged and skipped; the series continues.
func (d *TimeSeriesDriver) Run(ntime int) error {
	d.Results = make([]*Results, ntime)
	d.Ntc = make([]float64, ntime)
	for t := range d.Ntc {
		d.Ntc[t] = math.Inf(1)
	}

	nc, err := compile.Compile(d.Grid, compile.Options{TimeSeries: true, NTime: ntime}, d.Log)
	if err != nil {
		return err
	}

	states := make([][]bool, ntime)
	for t := 0; t < ntime; t++ {
		states[t] = nc.Branch.ActiveAt(t)
	}
	groups := topology.FindDifferentStates(states, false)

	reps := make([]int, 0, len(groups))
	for r := range groups {
		reps = append(reps, r)
	}
	sort.Ints(reps)

	for _, rep := range reps {
		groupLog := plog.New()
		an := linear.NewAnalysis(nc, linear.Options{
			DistributeSlack: d.Opt.DistributeSlack,
			CorrectValues:   d.Opt.CorrectValues,
		}, groupLog)
		runErr := an.RunAt(rep)
		if runErr != nil {
			groupLog.AddError("Sensitivity analysis failed", fmt.Sprintf("t=%d", rep), runErr.Error(), "")
		}
		if d.Log != nil {
			d.Log.Append(groupLog)
		}
		if runErr != nil {
			continue
		}

		for _, t := range groups[rep] {
			if d.cancel.Load() {
				if d.Log != nil {
					d.Log.AddInfo("Cancelled", "time series", t, ntime)
				}
				return nil
			}

			stepLog := plog.New()
			drv := NewDriver(nc, d.Opt, stepLog)
			if err := drv.evalWith(an, t); err != nil {
				stepLog.AddError("Transfer capacity step failed", fmt.Sprintf("t=%d", t), err.Error(), "")
				if d.Log != nil {
					d.Log.Append(stepLog)
				}
				continue
			}

			d.Results[t] = drv.Results
			d.Ntc[t] = drv.Ntc()
			if d.Log != nil {
				d.Log.Append(stepLog)
			}
		}
	}
	return nil
}
