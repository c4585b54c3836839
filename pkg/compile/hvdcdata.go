package compile

// HvdcData holds the compiled HVDC links. Links do not participate in the AC
// topology; they only contribute controllable injections at both terminals
// and force those buses to PV behavior.
type HvdcData struct {
	Nhvdc int
	Ntime int

	Names []string

	// Terminal bus indices. A link may bridge islands; after slicing, the
	// terminal outside the island is -1.
	F []int
	T []int

	Active          [][]bool
	Rate            [][]float64
	ContingencyRate [][]float64
	Pset            [][]float64
	VsetF           [][]float64
	VsetT           [][]float64
	AngleDroop      [][]float64

	R       []float64
	Control []int

	QminF, QmaxF []float64
	QminT, QmaxT []float64

	Dispatchable []bool

	CHvdcBusF *IncMatrix // (nhvdc, nbus)
	CHvdcBusT *IncMatrix
}

func NewHvdcData(nhvdc, nbus, ntime int) *HvdcData {
	return &HvdcData{
		Nhvdc:           nhvdc,
		Ntime:           ntime,
		Names:           make([]string, nhvdc),
		F:               make([]int, nhvdc),
		T:               make([]int, nhvdc),
		Active:          makeBoolProf(nhvdc, ntime),
		Rate:            makeFloatProf(nhvdc, ntime),
		ContingencyRate: makeFloatProf(nhvdc, ntime),
		Pset:            makeFloatProf(nhvdc, ntime),
		VsetF:           makeFloatProf(nhvdc, ntime),
		VsetT:           makeFloatProf(nhvdc, ntime),
		AngleDroop:      makeFloatProf(nhvdc, ntime),
		R:               make([]float64, nhvdc),
		Control:         make([]int, nhvdc),
		QminF:           make([]float64, nhvdc),
		QmaxF:           make([]float64, nhvdc),
		QminT:           make([]float64, nhvdc),
		QmaxT:           make([]float64, nhvdc),
		Dispatchable:    make([]bool, nhvdc),
		CHvdcBusF:       NewIncMatrix(nhvdc, nbus),
		CHvdcBusT:       NewIncMatrix(nhvdc, nbus),
	}
}

func (d *HvdcData) GetIsland(busIdx []int, t int) []int {
	return elementsOfIsland(d.Nhvdc,
		func(k int) []int { return []int{d.F[k], d.T[k]} },
		busIdx,
		func(k int) bool { return d.Active[k][t] })
}

func (d *HvdcData) Slice(elmIdx, busIdx []int, timeIdx []int) *HvdcData {
	ntime := d.Ntime
	if timeIdx != nil {
		ntime = len(timeIdx)
	}
	out := NewHvdcData(len(elmIdx), len(busIdx), ntime)
	out.Names = takeString(d.Names, elmIdx)
	out.Active = takeBoolProf(d.Active, elmIdx, timeIdx)
	out.Rate = takeFloatProf(d.Rate, elmIdx, timeIdx)
	out.ContingencyRate = takeFloatProf(d.ContingencyRate, elmIdx, timeIdx)
	out.Pset = takeFloatProf(d.Pset, elmIdx, timeIdx)
	out.VsetF = takeFloatProf(d.VsetF, elmIdx, timeIdx)
	out.VsetT = takeFloatProf(d.VsetT, elmIdx, timeIdx)
	out.AngleDroop = takeFloatProf(d.AngleDroop, elmIdx, timeIdx)
	out.R = takeFloat(d.R, elmIdx)
	out.Control = takeInt(d.Control, elmIdx)
	out.QminF = takeFloat(d.QminF, elmIdx)
	out.QmaxF = takeFloat(d.QmaxF, elmIdx)
	out.QminT = takeFloat(d.QminT, elmIdx)
	out.QmaxT = takeFloat(d.QmaxT, elmIdx)
	out.Dispatchable = takeBool(d.Dispatchable, elmIdx)
	out.CHvdcBusF = d.CHvdcBusF.Slice(elmIdx, busIdx)
	out.CHvdcBusT = d.CHvdcBusT.Slice(elmIdx, busIdx)
	remapBusIdx(out.F, d.F, elmIdx, busIdx)
	remapBusIdx(out.T, d.T, elmIdx, busIdx)
	return out
}

// InjectionsPerBus aggregates the scheduled link power at time t: -Pset at
// the sending terminal, +Pset at the receiving one (losses neglected).
func (d *HvdcData) InjectionsPerBus(nbus, t int) []complex128 {
	out := make([]complex128, nbus)
	for k := 0; k < d.Nhvdc; k++ {
		if !d.Active[k][t] {
			continue
		}
		if f := d.F[k]; f >= 0 {
			out[f] -= complex(d.Pset[k][t], 0)
		}
		if to := d.T[k]; to >= 0 {
			out[to] += complex(d.Pset[k][t], 0)
		}
	}
	return out
}

func (d *HvdcData) Len() int { return d.Nhvdc }
