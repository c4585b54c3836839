package compile

// BranchData is the unified branch container: lines, DC lines, 2-winding
// transformers, VSCs and UPFCs concatenated in that order, each sub-class
// occupying a disjoint index offset range. F and T always index buses of the
// same circuit; Cf and Ct are consistent with them row by row.
type BranchData struct {
	Nbr   int
	Ntime int

	Names []string
	Codes []string

	F []int
	T []int

	Active           [][]bool    // (nbr, ntime)
	Rates            [][]float64 // MW
	ContingencyRates [][]float64

	R, X, G, B     []float64
	R0, X0, G0, B0 []float64
	R2, X2, G2, B2 []float64

	DC []bool // DC branches use R instead of X in the linearization

	// Tap and converter state. For lines every entry stays at the neutral
	// defaults set by the constructor.
	TapModule    []float64
	TapAngle     []float64
	TapModuleMin []float64
	TapModuleMax []float64
	TapAngleMin  []float64
	TapAngleMax  []float64
	VirtualTapF  []float64
	VirtualTapT  []float64

	G0sw                   []float64
	Beq                    []float64
	K                      []float64
	Kdp                    []float64
	Alpha1, Alpha2, Alpha3 []float64

	Control []int
	Vset    []float64
	VfSet   []float64
	VtSet   []float64
	PfSet   []float64
	QtSet   []float64

	MonitorLoading     []bool
	ContingencyEnabled []bool

	Cost [][]float64 // overload cost, OPF variant

	Cf *IncMatrix // (nbr, nbus) "from" incidence
	Ct *IncMatrix // (nbr, nbus) "to" incidence
}

func NewBranchData(nbr, nbus, ntime int) *BranchData {
	d := &BranchData{
		Nbr:                nbr,
		Ntime:              ntime,
		Names:              make([]string, nbr),
		Codes:              make([]string, nbr),
		F:                  make([]int, nbr),
		T:                  make([]int, nbr),
		Active:             makeBoolProf(nbr, ntime),
		Rates:              makeFloatProf(nbr, ntime),
		ContingencyRates:   makeFloatProf(nbr, ntime),
		R:                  make([]float64, nbr),
		X:                  make([]float64, nbr),
		G:                  make([]float64, nbr),
		B:                  make([]float64, nbr),
		R0:                 make([]float64, nbr),
		X0:                 make([]float64, nbr),
		G0:                 make([]float64, nbr),
		B0:                 make([]float64, nbr),
		R2:                 make([]float64, nbr),
		X2:                 make([]float64, nbr),
		G2:                 make([]float64, nbr),
		B2:                 make([]float64, nbr),
		DC:                 make([]bool, nbr),
		TapModule:          make([]float64, nbr),
		TapAngle:           make([]float64, nbr),
		TapModuleMin:       make([]float64, nbr),
		TapModuleMax:       make([]float64, nbr),
		TapAngleMin:        make([]float64, nbr),
		TapAngleMax:        make([]float64, nbr),
		VirtualTapF:        make([]float64, nbr),
		VirtualTapT:        make([]float64, nbr),
		G0sw:               make([]float64, nbr),
		Beq:                make([]float64, nbr),
		K:                  make([]float64, nbr),
		Kdp:                make([]float64, nbr),
		Alpha1:             make([]float64, nbr),
		Alpha2:             make([]float64, nbr),
		Alpha3:             make([]float64, nbr),
		Control:            make([]int, nbr),
		Vset:               make([]float64, nbr),
		VfSet:              make([]float64, nbr),
		VtSet:              make([]float64, nbr),
		PfSet:              make([]float64, nbr),
		QtSet:              make([]float64, nbr),
		MonitorLoading:     make([]bool, nbr),
		ContingencyEnabled: make([]bool, nbr),
		Cost:               makeFloatProf(nbr, ntime),
		Cf:                 NewIncMatrix(nbr, nbus),
		Ct:                 NewIncMatrix(nbr, nbus),
	}
	for i := 0; i < nbr; i++ {
		d.TapModule[i] = 1.0
		d.VirtualTapF[i] = 1.0
		d.VirtualTapT[i] = 1.0
	}
	return d
}

// GetIsland returns the branches active at time t with both terminals in
// busIdx. A branch reaching a bus outside the island cannot be stamped against
// the island's compact numbering, so it is excluded rather than remapped.
func (d *BranchData) GetIsland(busIdx []int, t int) []int {
	busSet := make(map[int]struct{}, len(busIdx))
	for _, b := range busIdx {
		busSet[b] = struct{}{}
	}
	var out []int
	for k := 0; k < d.Nbr; k++ {
		if !d.Active[k][t] {
			continue
		}
		if _, ok := busSet[d.F[k]]; !ok {
			continue
		}
		if _, ok := busSet[d.T[k]]; !ok {
			continue
		}
		out = append(out, k)
	}
	return out
}

func (d *BranchData) Slice(elmIdx, busIdx []int, timeIdx []int) *BranchData {
	ntime := d.Ntime
	if timeIdx != nil {
		ntime = len(timeIdx)
	}
	out := NewBranchData(len(elmIdx), len(busIdx), ntime)
	out.Names = takeString(d.Names, elmIdx)
	out.Codes = takeString(d.Codes, elmIdx)
	out.Active = takeBoolProf(d.Active, elmIdx, timeIdx)
	out.Rates = takeFloatProf(d.Rates, elmIdx, timeIdx)
	out.ContingencyRates = takeFloatProf(d.ContingencyRates, elmIdx, timeIdx)
	out.R = takeFloat(d.R, elmIdx)
	out.X = takeFloat(d.X, elmIdx)
	out.G = takeFloat(d.G, elmIdx)
	out.B = takeFloat(d.B, elmIdx)
	out.R0 = takeFloat(d.R0, elmIdx)
	out.X0 = takeFloat(d.X0, elmIdx)
	out.G0 = takeFloat(d.G0, elmIdx)
	out.B0 = takeFloat(d.B0, elmIdx)
	out.R2 = takeFloat(d.R2, elmIdx)
	out.X2 = takeFloat(d.X2, elmIdx)
	out.G2 = takeFloat(d.G2, elmIdx)
	out.B2 = takeFloat(d.B2, elmIdx)
	out.DC = takeBool(d.DC, elmIdx)
	out.TapModule = takeFloat(d.TapModule, elmIdx)
	out.TapAngle = takeFloat(d.TapAngle, elmIdx)
	out.TapModuleMin = takeFloat(d.TapModuleMin, elmIdx)
	out.TapModuleMax = takeFloat(d.TapModuleMax, elmIdx)
	out.TapAngleMin = takeFloat(d.TapAngleMin, elmIdx)
	out.TapAngleMax = takeFloat(d.TapAngleMax, elmIdx)
	out.VirtualTapF = takeFloat(d.VirtualTapF, elmIdx)
	out.VirtualTapT = takeFloat(d.VirtualTapT, elmIdx)
	out.G0sw = takeFloat(d.G0sw, elmIdx)
	out.Beq = takeFloat(d.Beq, elmIdx)
	out.K = takeFloat(d.K, elmIdx)
	out.Kdp = takeFloat(d.Kdp, elmIdx)
	out.Alpha1 = takeFloat(d.Alpha1, elmIdx)
	out.Alpha2 = takeFloat(d.Alpha2, elmIdx)
	out.Alpha3 = takeFloat(d.Alpha3, elmIdx)
	out.Control = takeInt(d.Control, elmIdx)
	out.Vset = takeFloat(d.Vset, elmIdx)
	out.VfSet = takeFloat(d.VfSet, elmIdx)
	out.VtSet = takeFloat(d.VtSet, elmIdx)
	out.PfSet = takeFloat(d.PfSet, elmIdx)
	out.QtSet = takeFloat(d.QtSet, elmIdx)
	out.MonitorLoading = takeBool(d.MonitorLoading, elmIdx)
	out.ContingencyEnabled = takeBool(d.ContingencyEnabled, elmIdx)
	out.Cost = takeFloatProf(d.Cost, elmIdx, timeIdx)
	out.Cf = d.Cf.Slice(elmIdx, busIdx)
	out.Ct = d.Ct.Slice(elmIdx, busIdx)
	remapBusIdx(out.F, d.F, elmIdx, busIdx)
	remapBusIdx(out.T, d.T, elmIdx, busIdx)
	return out
}

func (d *BranchData) Len() int { return d.Nbr }

// RatesAt returns the rating column for time t.
func (d *BranchData) RatesAt(t int) []float64 {
	out := make([]float64, d.Nbr)
	for i := range out {
		out[i] = d.Rates[i][t]
	}
	return out
}

// ContingencyRatesAt returns the contingency rating column for time t.
func (d *BranchData) ContingencyRatesAt(t int) []float64 {
	out := make([]float64, d.Nbr)
	for i := range out {
		out[i] = d.ContingencyRates[i][t]
	}
	return out
}

// ActiveAt returns the active column for time t.
func (d *BranchData) ActiveAt(t int) []bool {
	out := make([]bool, d.Nbr)
	for i := range out {
		out[i] = d.Active[i][t]
	}
	return out
}
