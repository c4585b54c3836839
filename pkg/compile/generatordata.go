package compile

import "github.com/ramferan/GridCal/pkg/grid"

// GeneratorData holds the compiled generators. P carries MW, Pf the power
// factor from which the reactive injection is derived, V the voltage set
// point of controllable machines.
type GeneratorData struct {
	Ngen  int
	Ntime int

	Names  []string
	BusIdx []int

	Active [][]bool
	P      [][]float64
	Pf     [][]float64
	V      [][]float64

	Controllable []bool
	InstalledP   []float64
	Qmin         []float64
	Qmax         []float64

	// Sequence impedances
	R0, R1, R2 []float64
	X0, X1, X2 []float64

	// Dispatch data, OPF variant
	Dispatchable []bool
	Pmin         []float64
	Pmax         []float64
	Cost         [][]float64

	CBusGen *IncMatrix // (nbus, ngen)
}

func NewGeneratorData(ngen, nbus, ntime int) *GeneratorData {
	return &GeneratorData{
		Ngen:         ngen,
		Ntime:        ntime,
		Names:        make([]string, ngen),
		BusIdx:       make([]int, ngen),
		Active:       makeBoolProf(ngen, ntime),
		P:            makeFloatProf(ngen, ntime),
		Pf:           makeFloatProf(ngen, ntime),
		V:            makeFloatProf(ngen, ntime),
		Controllable: make([]bool, ngen),
		InstalledP:   make([]float64, ngen),
		Qmin:         make([]float64, ngen),
		Qmax:         make([]float64, ngen),
		R0:           make([]float64, ngen),
		R1:           make([]float64, ngen),
		R2:           make([]float64, ngen),
		X0:           make([]float64, ngen),
		X1:           make([]float64, ngen),
		X2:           make([]float64, ngen),
		Dispatchable: make([]bool, ngen),
		Pmin:         make([]float64, ngen),
		Pmax:         make([]float64, ngen),
		Cost:         makeFloatProf(ngen, ntime),
		CBusGen:      NewIncMatrix(nbus, ngen),
	}
}

func (d *GeneratorData) GetIsland(busIdx []int, t int) []int {
	return elementsOfIsland(d.Ngen,
		func(k int) []int { return []int{d.BusIdx[k]} },
		busIdx,
		func(k int) bool { return d.Active[k][t] })
}

func (d *GeneratorData) Slice(elmIdx, busIdx []int, timeIdx []int) *GeneratorData {
	ntime := d.Ntime
	if timeIdx != nil {
		ntime = len(timeIdx)
	}
	out := NewGeneratorData(len(elmIdx), len(busIdx), ntime)
	out.Names = takeString(d.Names, elmIdx)
	out.Active = takeBoolProf(d.Active, elmIdx, timeIdx)
	out.P = takeFloatProf(d.P, elmIdx, timeIdx)
	out.Pf = takeFloatProf(d.Pf, elmIdx, timeIdx)
	out.V = takeFloatProf(d.V, elmIdx, timeIdx)
	out.Controllable = takeBool(d.Controllable, elmIdx)
	out.InstalledP = takeFloat(d.InstalledP, elmIdx)
	out.Qmin = takeFloat(d.Qmin, elmIdx)
	out.Qmax = takeFloat(d.Qmax, elmIdx)
	out.R0 = takeFloat(d.R0, elmIdx)
	out.R1 = takeFloat(d.R1, elmIdx)
	out.R2 = takeFloat(d.R2, elmIdx)
	out.X0 = takeFloat(d.X0, elmIdx)
	out.X1 = takeFloat(d.X1, elmIdx)
	out.X2 = takeFloat(d.X2, elmIdx)
	out.Dispatchable = takeBool(d.Dispatchable, elmIdx)
	out.Pmin = takeFloat(d.Pmin, elmIdx)
	out.Pmax = takeFloat(d.Pmax, elmIdx)
	out.Cost = takeFloatProf(d.Cost, elmIdx, timeIdx)
	out.CBusGen = d.CBusGen.Slice(busIdx, elmIdx)
	remapBusIdx(out.BusIdx, d.BusIdx, elmIdx, busIdx)
	return out
}

// InjectionsPerBus aggregates P + jQ(Pf) of active machines at time t.
func (d *GeneratorData) InjectionsPerBus(nbus, t int) []complex128 {
	out := make([]complex128, nbus)
	for k := 0; k < d.Ngen; k++ {
		if d.Active[k][t] {
			p := d.P[k][t]
			q := grid.QFromPowerFactor(p, d.Pf[k][t])
			out[d.BusIdx[k]] += complex(p, q)
		}
	}
	return out
}

func (d *GeneratorData) Len() int { return d.Ngen }

// BatteryData is GeneratorData plus the energy-store parameters.
type BatteryData struct {
	GeneratorData

	Enom                []float64
	MinSoc              []float64
	MaxSoc              []float64
	Soc0                []float64
	ChargeEfficiency    []float64
	DischargeEfficiency []float64
}

func NewBatteryData(nbatt, nbus, ntime int) *BatteryData {
	return &BatteryData{
		GeneratorData:       *NewGeneratorData(nbatt, nbus, ntime),
		Enom:                make([]float64, nbatt),
		MinSoc:              make([]float64, nbatt),
		MaxSoc:              make([]float64, nbatt),
		Soc0:                make([]float64, nbatt),
		ChargeEfficiency:    make([]float64, nbatt),
		DischargeEfficiency: make([]float64, nbatt),
	}
}

func (d *BatteryData) Slice(elmIdx, busIdx []int, timeIdx []int) *BatteryData {
	out := &BatteryData{GeneratorData: *d.GeneratorData.Slice(elmIdx, busIdx, timeIdx)}
	out.Enom = takeFloat(d.Enom, elmIdx)
	out.MinSoc = takeFloat(d.MinSoc, elmIdx)
	out.MaxSoc = takeFloat(d.MaxSoc, elmIdx)
	out.Soc0 = takeFloat(d.Soc0, elmIdx)
	out.ChargeEfficiency = takeFloat(d.ChargeEfficiency, elmIdx)
	out.DischargeEfficiency = takeFloat(d.DischargeEfficiency, elmIdx)
	return out
}
