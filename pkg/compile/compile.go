// Package compile turns the device registry into the flat, per-class arrays
// and incidence matrices a numerical solver consumes. Compilation is a pure
// function of the registry snapshot and the options: the same input always
// yields the same arrays.
package compile

import (
	"errors"
	"fmt"

	"github.com/ramferan/GridCal/pkg/grid"
	"github.com/ramferan/GridCal/pkg/plog"
)

// ErrUnknownBus reports a device pointing at a bus absent from the registry's
// bus ordering.
var ErrUnknownBus = errors.New("unknown bus reference")

// Options configure one compilation pass.
type Options struct {
	TimeSeries bool
	NTime      int

	ApplyTemperature    bool
	BranchToleranceMode grid.BranchImpedanceMode

	// UseStoredGuess seeds Vbus from the buses' stored voltages and disables
	// the set-point accumulator.
	UseStoredGuess bool

	// VoltageGuess, when non-nil, overrides the initial Vbus entirely.
	VoltageGuess []complex128

	// OPF enables the dispatch-bound and cost arrays; OPFResults substitutes
	// a previous OPF stage's dispatch into the injections.
	OPF        bool
	OPFResults *OPFResults
}

// VoltageAccumulator collects voltage set points written by controllable
// devices into the shared Vbus guess. The first set point for a bus wins;
// later differing ones are reported as conflicts.
type VoltageAccumulator struct {
	V        []complex128
	assigned []bool
}

// SetPointConflict records a losing voltage set point.
type SetPointConflict struct {
	BusIdx   int
	Value    float64
	Existing float64
}

func NewVoltageAccumulator(v []complex128) *VoltageAccumulator {
	a := &VoltageAccumulator{V: v, assigned: make([]bool, len(v))}
	for i, x := range v {
		if x != complex(1, 0) {
			a.assigned[i] = true
		}
	}
	return a
}

// Propose offers a set point for bus i. It returns a non-nil conflict when
// the bus already holds a different value.
func (a *VoltageAccumulator) Propose(i int, vset float64) *SetPointConflict {
	if !a.assigned[i] {
		a.V[i] = complex(vset, 0)
		a.assigned[i] = true
		return nil
	}
	if vset != real(a.V[i]) || imag(a.V[i]) != 0 {
		return &SetPointConflict{BusIdx: i, Value: vset, Existing: real(a.V[i])}
	}
	return nil
}

// Compile builds the numerical circuit from the registry. Devices referencing
// unknown buses fail the compilation; every other inconsistency is logged and
// compilation proceeds.
func Compile(g *grid.Grid, opt Options, log *plog.Logger) (*NumCircuit, error) {
	ntime := 1
	if opt.TimeSeries {
		ntime = opt.NTime
		if ntime < 1 {
			ntime = 1
		}
	}

	nbus := len(g.Buses)
	busIdx := g.BusIndex()

	nc := &NumCircuit{
		Ntime:   ntime,
		Sbase:   g.Sbase,
		Nline:   len(g.Lines),
		Ndcline: len(g.DcLines),
		Ntr:     len(g.Transformers),
		Nvsc:    len(g.VSCs),
		Nupfc:   len(g.UPFCs),
	}
	if nc.Sbase == 0 {
		nc.Sbase = 100.0
	}

	nc.Bus = getBusData(g, opt)

	if opt.VoltageGuess != nil {
		copy(nc.Bus.Vbus, opt.VoltageGuess)
	}
	acc := NewVoltageAccumulator(nc.Bus.Vbus)
	propose := func(bus int, vset float64) {
		if opt.UseStoredGuess || opt.VoltageGuess != nil {
			return
		}
		if c := acc.Propose(bus, vset); c != nil && log != nil {
			log.AddError("Different set points", nc.Bus.Names[c.BusIdx], c.Value, c.Existing)
		}
	}

	var err error
	if nc.Load, err = getLoadData(g, busIdx, opt); err != nil {
		return nil, err
	}
	if nc.Stagen, err = getStaticGeneratorData(g, busIdx, opt); err != nil {
		return nil, err
	}
	if nc.Shunt, err = getShuntData(g, busIdx, opt, propose); err != nil {
		return nil, err
	}
	if nc.Gen, err = getGeneratorData(g, busIdx, opt, propose, nc.Bus.Types); err != nil {
		return nil, err
	}
	if nc.Batt, err = getBatteryData(g, busIdx, opt, propose, nc.Bus.Types); err != nil {
		return nil, err
	}
	if nc.Branch, err = getBranchData(g, busIdx, opt, propose); err != nil {
		return nil, err
	}
	if nc.Hvdc, err = getHvdcData(g, busIdx, opt, nc.Bus.Types); err != nil {
		return nil, err
	}

	nc.OriginalBusIdx = iota0(nbus)
	nc.OriginalBranchIdx = iota0(nc.Branch.Nbr)
	nc.OriginalLoadIdx = iota0(nc.Load.Nload)
	nc.OriginalStagenIdx = iota0(nc.Stagen.Nstagen)
	nc.OriginalShuntIdx = iota0(nc.Shunt.Nshunt)
	nc.OriginalGenIdx = iota0(nc.Gen.Ngen)
	nc.OriginalBattIdx = iota0(nc.Batt.Ngen)
	nc.OriginalHvdcIdx = iota0(nc.Hvdc.Nhvdc)

	nc.Consolidate(log)

	return nc, nil
}

func iota0(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func lookupBus(busIdx map[*grid.Bus]int, b *grid.Bus, devName string) (int, error) {
	i, ok := busIdx[b]
	if !ok {
		name := "<nil>"
		if b != nil {
			name = b.Name
		}
		return 0, fmt.Errorf("device %s references bus %s: %w", devName, name, ErrUnknownBus)
	}
	return i, nil
}

// Profile helpers: in time-series mode the profile value is taken when the
// profile is long enough, the scalar otherwise.

func profFloat(opt Options, prof []float64, t int, scalar float64) float64 {
	if opt.TimeSeries && t < len(prof) {
		return prof[t]
	}
	return scalar
}

func profBool(opt Options, prof []bool, t int, scalar bool) bool {
	if opt.TimeSeries && t < len(prof) {
		return prof[t]
	}
	return scalar
}

func getBusData(g *grid.Grid, opt Options) *BusData {
	ntime := 1
	if opt.TimeSeries {
		ntime = max(opt.NTime, 1)
	}
	d := NewBusData(len(g.Buses), ntime)
	for i, b := range g.Buses {
		d.Names[i] = b.Name
		d.Areas[i] = b.Area
		d.Vmin[i] = b.Vmin
		d.Vmax[i] = b.Vmax
		d.AngleMin[i] = b.AngleMin
		d.AngleMax[i] = b.AngleMax
		d.Vbus[i] = b.VoltageGuess(opt.UseStoredGuess)
		d.Types[i] = b.Mode()
		for t := 0; t < ntime; t++ {
			d.Active[i][t] = profBool(opt, b.ActiveProf, t, b.Active)
		}
	}
	return d
}

func getLoadData(g *grid.Grid, busIdx map[*grid.Bus]int, opt Options) (*LoadData, error) {
	ntime := 1
	if opt.TimeSeries {
		ntime = max(opt.NTime, 1)
	}
	d := NewLoadData(len(g.Loads), len(g.Buses), ntime)
	for k, elm := range g.Loads {
		i, err := lookupBus(busIdx, elm.Bus, elm.Name)
		if err != nil {
			return nil, err
		}
		d.Names[k] = elm.Name
		d.BusIdx[k] = i
		for t := 0; t < ntime; t++ {
			d.Active[k][t] = profBool(opt, elm.ActiveProf, t, elm.Active)
			d.S[k][t] = complex(profFloat(opt, elm.PProf, t, elm.P), profFloat(opt, elm.QProf, t, elm.Q))
			d.I[k][t] = complex(profFloat(opt, elm.IrProf, t, elm.Ir), profFloat(opt, elm.IiProf, t, elm.Ii))
			d.Y[k][t] = complex(profFloat(opt, elm.GProf, t, elm.G), profFloat(opt, elm.BProf, t, elm.B))
			if opt.OPF {
				d.Cost[k][t] = profFloat(opt, elm.CostProf, t, elm.Cost)
			}
			if opt.OPFResults != nil {
				if shed, ok := opfAt(opt.OPFResults.LoadShedding, k, t); ok {
					d.S[k][t] -= complex(shed, 0)
				}
			}
		}
		d.CBusLoad.Set(i, k, 1)
	}
	return d, nil
}

func getStaticGeneratorData(g *grid.Grid, busIdx map[*grid.Bus]int, opt Options) (*StaticGeneratorData, error) {
	ntime := 1
	if opt.TimeSeries {
		ntime = max(opt.NTime, 1)
	}
	d := NewStaticGeneratorData(len(g.StaticGenerators), len(g.Buses), ntime)
	for k, elm := range g.StaticGenerators {
		i, err := lookupBus(busIdx, elm.Bus, elm.Name)
		if err != nil {
			return nil, err
		}
		d.Names[k] = elm.Name
		d.BusIdx[k] = i
		for t := 0; t < ntime; t++ {
			d.Active[k][t] = profBool(opt, elm.ActiveProf, t, elm.Active)
			d.S[k][t] = complex(profFloat(opt, elm.PProf, t, elm.P), profFloat(opt, elm.QProf, t, elm.Q))
		}
		d.CBusStagen.Set(i, k, 1)
	}
	return d, nil
}

func getShuntData(g *grid.Grid, busIdx map[*grid.Bus]int, opt Options, propose func(int, float64)) (*ShuntData, error) {
	ntime := 1
	if opt.TimeSeries {
		ntime = max(opt.NTime, 1)
	}
	d := NewShuntData(len(g.Shunts), len(g.Buses), ntime)
	for k, elm := range g.Shunts {
		i, err := lookupBus(busIdx, elm.Bus, elm.Name)
		if err != nil {
			return nil, err
		}
		d.Names[k] = elm.Name
		d.BusIdx[k] = i
		d.Controlled[k] = elm.IsControlled
		d.Bmin[k] = elm.Bmin
		d.Bmax[k] = elm.Bmax
		for t := 0; t < ntime; t++ {
			d.Active[k][t] = profBool(opt, elm.ActiveProf, t, elm.Active)
			d.Admittance[k][t] = complex(profFloat(opt, elm.GProf, t, elm.G), profFloat(opt, elm.BProf, t, elm.B))
		}
		if elm.Active && elm.IsControlled {
			propose(i, elm.Vset)
		}
		d.CBusShunt.Set(i, k, 1)
	}
	return d, nil
}

func fillGeneratorEntry(d *GeneratorData, k, i, ntime int, elm *grid.Generator, opt Options,
	dispatch [][]float64, shed [][]float64) {

	d.Names[k] = elm.Name
	d.BusIdx[k] = i
	d.Controllable[k] = elm.IsControlled
	d.InstalledP[k] = elm.Snom
	d.Qmin[k] = elm.Qmin
	d.Qmax[k] = elm.Qmax
	d.R0[k], d.R1[k], d.R2[k] = elm.R0, elm.R1, elm.R2
	d.X0[k], d.X1[k], d.X2[k] = elm.X0, elm.X1, elm.X2

	if opt.OPF {
		d.Dispatchable[k] = elm.EnabledDispatch
		d.Pmin[k] = elm.Pmin
		d.Pmax[k] = elm.Pmax
	}

	for t := 0; t < ntime; t++ {
		d.Active[k][t] = profBool(opt, elm.ActiveProf, t, elm.Active)
		d.P[k][t] = profFloat(opt, elm.PProf, t, elm.P)
		d.Pf[k][t] = profFloat(opt, elm.PfProf, t, elm.Pf)
		d.V[k][t] = profFloat(opt, elm.VsetProf, t, elm.Vset)
		if opt.OPF {
			d.Cost[k][t] = profFloat(opt, elm.CostProf, t, elm.Cost)
		}
		if p, ok := opfAt(dispatch, k, t); ok {
			d.P[k][t] = p
			if s, ok2 := opfAt(shed, k, t); ok2 {
				d.P[k][t] = p - s
			}
		}
	}
	d.CBusGen.Set(i, k, 1)
}

func getGeneratorData(g *grid.Grid, busIdx map[*grid.Bus]int, opt Options, propose func(int, float64), busTypes []grid.BusMode) (*GeneratorData, error) {
	ntime := 1
	if opt.TimeSeries {
		ntime = max(opt.NTime, 1)
	}
	d := NewGeneratorData(len(g.Generators), len(g.Buses), ntime)
	var dispatch, shed [][]float64
	if opt.OPFResults != nil {
		dispatch = opt.OPFResults.GeneratorPower
		shed = opt.OPFResults.GeneratorShedding
	}
	for k, elm := range g.Generators {
		i, err := lookupBus(busIdx, elm.Bus, elm.Name)
		if err != nil {
			return nil, err
		}
		fillGeneratorEntry(d, k, i, ntime, elm, opt, dispatch, shed)
		if elm.Active && elm.IsControlled {
			propose(i, elm.Vset)
			if busTypes[i] != grid.Slack {
				busTypes[i] = grid.PV
			}
		}
	}
	return d, nil
}

func getBatteryData(g *grid.Grid, busIdx map[*grid.Bus]int, opt Options, propose func(int, float64), busTypes []grid.BusMode) (*BatteryData, error) {
	ntime := 1
	if opt.TimeSeries {
		ntime = max(opt.NTime, 1)
	}
	d := NewBatteryData(len(g.Batteries), len(g.Buses), ntime)
	var dispatch [][]float64
	if opt.OPFResults != nil {
		dispatch = opt.OPFResults.BatteryPower
	}
	for k, elm := range g.Batteries {
		i, err := lookupBus(busIdx, elm.Bus, elm.Name)
		if err != nil {
			return nil, err
		}
		fillGeneratorEntry(&d.GeneratorData, k, i, ntime, &elm.Generator, opt, dispatch, nil)
		d.Enom[k] = elm.Enom
		d.MinSoc[k] = elm.MinSoc
		d.MaxSoc[k] = elm.MaxSoc
		d.Soc0[k] = elm.Soc0
		d.ChargeEfficiency[k] = elm.ChargeEfficiency
		d.DischargeEfficiency[k] = elm.DischargeEfficiency
		if elm.Active && elm.IsControlled {
			propose(i, elm.Vset)
			if busTypes[i] != grid.Slack {
				busTypes[i] = grid.PV
			}
		}
	}
	return d, nil
}

func getHvdcData(g *grid.Grid, busIdx map[*grid.Bus]int, opt Options, busTypes []grid.BusMode) (*HvdcData, error) {
	ntime := 1
	if opt.TimeSeries {
		ntime = max(opt.NTime, 1)
	}
	d := NewHvdcData(len(g.HvdcLines), len(g.Buses), ntime)
	for k, elm := range g.HvdcLines {
		f, err := lookupBus(busIdx, elm.BusFrom, elm.Name)
		if err != nil {
			return nil, err
		}
		t2, err := lookupBus(busIdx, elm.BusTo, elm.Name)
		if err != nil {
			return nil, err
		}
		d.Names[k] = elm.Name
		d.F[k] = f
		d.T[k] = t2
		d.R[k] = elm.R
		d.Control[k] = int(elm.Control)
		d.QminF[k], d.QmaxF[k] = elm.QminF, elm.QmaxF
		d.QminT[k], d.QmaxT[k] = elm.QminT, elm.QmaxT
		d.Dispatchable[k] = elm.Dispatchable

		for t := 0; t < ntime; t++ {
			d.Active[k][t] = profBool(opt, elm.ActiveProf, t, elm.Active)
			rate := profFloat(opt, elm.RateProf, t, elm.Rate)
			d.Rate[k][t] = rate
			d.ContingencyRate[k][t] = rate * profFloat(opt, elm.ContingencyFactorProf, t, elm.ContingencyFactor)
			d.Pset[k][t] = profFloat(opt, elm.PsetProf, t, elm.Pset)
			d.VsetF[k][t] = profFloat(opt, elm.VsetFProf, t, elm.VsetF)
			d.VsetT[k][t] = profFloat(opt, elm.VsetTProf, t, elm.VsetT)
			d.AngleDroop[k][t] = profFloat(opt, elm.AngleDroopProf, t, elm.AngleDroop)
			if opt.OPFResults != nil {
				if pf, ok := opfAt(opt.OPFResults.HvdcPf, k, t); ok {
					d.Pset[k][t] = -pf
				}
			}
		}

		// An active link's terminals provide controllable injections, which
		// forces PV behavior on both buses.
		if elm.Active && busTypes[f] != grid.Slack {
			busTypes[f] = grid.PV
		}
		if elm.Active && busTypes[t2] != grid.Slack {
			busTypes[t2] = grid.PV
		}

		d.CHvdcBusF.Set(k, f, 1)
		d.CHvdcBusT.Set(k, t2, 1)
	}
	return d, nil
}
