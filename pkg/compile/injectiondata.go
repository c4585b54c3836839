package compile

// LoadData holds the compiled ZIP loads. S, I and Y follow the load sign
// convention (consumption is positive here; the aggregation into Sbus negates
// them).
type LoadData struct {
	Nload int
	Ntime int

	Names  []string
	BusIdx []int

	Active [][]bool       // (nload, ntime)
	S      [][]complex128 // constant power (MW, MVAr)
	I      [][]complex128 // constant current
	Y      [][]complex128 // constant admittance

	Cost [][]float64 // shedding cost, OPF variant

	CBusLoad *IncMatrix // (nbus, nload)
}

func NewLoadData(nload, nbus, ntime int) *LoadData {
	return &LoadData{
		Nload:    nload,
		Ntime:    ntime,
		Names:    make([]string, nload),
		BusIdx:   make([]int, nload),
		Active:   makeBoolProf(nload, ntime),
		S:        makeComplexProf(nload, ntime),
		I:        makeComplexProf(nload, ntime),
		Y:        makeComplexProf(nload, ntime),
		Cost:     makeFloatProf(nload, ntime),
		CBusLoad: NewIncMatrix(nbus, nload),
	}
}

// GetIsland returns the loads active at time t whose bus is in busIdx.
func (d *LoadData) GetIsland(busIdx []int, t int) []int {
	return elementsOfIsland(d.Nload,
		func(k int) []int { return []int{d.BusIdx[k]} },
		busIdx,
		func(k int) bool { return d.Active[k][t] })
}

func (d *LoadData) Slice(elmIdx, busIdx []int, timeIdx []int) *LoadData {
	ntime := d.Ntime
	if timeIdx != nil {
		ntime = len(timeIdx)
	}
	out := NewLoadData(len(elmIdx), len(busIdx), ntime)
	out.Names = takeString(d.Names, elmIdx)
	out.Active = takeBoolProf(d.Active, elmIdx, timeIdx)
	out.S = takeComplexProf(d.S, elmIdx, timeIdx)
	out.I = takeComplexProf(d.I, elmIdx, timeIdx)
	out.Y = takeComplexProf(d.Y, elmIdx, timeIdx)
	out.Cost = takeFloatProf(d.Cost, elmIdx, timeIdx)
	out.CBusLoad = d.CBusLoad.Slice(busIdx, elmIdx)
	remapBusIdx(out.BusIdx, d.BusIdx, elmIdx, busIdx)
	return out
}

// InjectionsPerBus aggregates S over active devices onto their buses at time t.
func (d *LoadData) InjectionsPerBus(nbus, t int) []complex128 {
	out := make([]complex128, nbus)
	for k := 0; k < d.Nload; k++ {
		if d.Active[k][t] {
			out[d.BusIdx[k]] += d.S[k][t]
		}
	}
	return out
}

// CurrentsPerBus aggregates the constant-current component at time t.
func (d *LoadData) CurrentsPerBus(nbus, t int) []complex128 {
	out := make([]complex128, nbus)
	for k := 0; k < d.Nload; k++ {
		if d.Active[k][t] {
			out[d.BusIdx[k]] += d.I[k][t]
		}
	}
	return out
}

// AdmittancesPerBus aggregates the constant-admittance component at time t.
func (d *LoadData) AdmittancesPerBus(nbus, t int) []complex128 {
	out := make([]complex128, nbus)
	for k := 0; k < d.Nload; k++ {
		if d.Active[k][t] {
			out[d.BusIdx[k]] += d.Y[k][t]
		}
	}
	return out
}

func (d *LoadData) Len() int { return d.Nload }

// StaticGeneratorData holds fixed complex power injections.
type StaticGeneratorData struct {
	Nstagen int
	Ntime   int

	Names  []string
	BusIdx []int

	Active [][]bool
	S      [][]complex128

	CBusStagen *IncMatrix // (nbus, nstagen)
}

func NewStaticGeneratorData(nstagen, nbus, ntime int) *StaticGeneratorData {
	return &StaticGeneratorData{
		Nstagen:    nstagen,
		Ntime:      ntime,
		Names:      make([]string, nstagen),
		BusIdx:     make([]int, nstagen),
		Active:     makeBoolProf(nstagen, ntime),
		S:          makeComplexProf(nstagen, ntime),
		CBusStagen: NewIncMatrix(nbus, nstagen),
	}
}

func (d *StaticGeneratorData) GetIsland(busIdx []int, t int) []int {
	return elementsOfIsland(d.Nstagen,
		func(k int) []int { return []int{d.BusIdx[k]} },
		busIdx,
		func(k int) bool { return d.Active[k][t] })
}

func (d *StaticGeneratorData) Slice(elmIdx, busIdx []int, timeIdx []int) *StaticGeneratorData {
	ntime := d.Ntime
	if timeIdx != nil {
		ntime = len(timeIdx)
	}
	out := NewStaticGeneratorData(len(elmIdx), len(busIdx), ntime)
	out.Names = takeString(d.Names, elmIdx)
	out.Active = takeBoolProf(d.Active, elmIdx, timeIdx)
	out.S = takeComplexProf(d.S, elmIdx, timeIdx)
	out.CBusStagen = d.CBusStagen.Slice(busIdx, elmIdx)
	remapBusIdx(out.BusIdx, d.BusIdx, elmIdx, busIdx)
	return out
}

func (d *StaticGeneratorData) InjectionsPerBus(nbus, t int) []complex128 {
	out := make([]complex128, nbus)
	for k := 0; k < d.Nstagen; k++ {
		if d.Active[k][t] {
			out[d.BusIdx[k]] += d.S[k][t]
		}
	}
	return out
}

func (d *StaticGeneratorData) Len() int { return d.Nstagen }

// ShuntData holds fixed and controlled shunt admittances.
type ShuntData struct {
	Nshunt int
	Ntime  int

	Names  []string
	BusIdx []int

	Active     [][]bool
	Admittance [][]complex128 // G + jB (MVAr at V=1)

	Controlled []bool
	Bmin       []float64
	Bmax       []float64

	CBusShunt *IncMatrix // (nbus, nshunt)
}

func NewShuntData(nshunt, nbus, ntime int) *ShuntData {
	return &ShuntData{
		Nshunt:     nshunt,
		Ntime:      ntime,
		Names:      make([]string, nshunt),
		BusIdx:     make([]int, nshunt),
		Active:     makeBoolProf(nshunt, ntime),
		Admittance: makeComplexProf(nshunt, ntime),
		Controlled: make([]bool, nshunt),
		Bmin:       make([]float64, nshunt),
		Bmax:       make([]float64, nshunt),
		CBusShunt:  NewIncMatrix(nbus, nshunt),
	}
}

func (d *ShuntData) GetIsland(busIdx []int, t int) []int {
	return elementsOfIsland(d.Nshunt,
		func(k int) []int { return []int{d.BusIdx[k]} },
		busIdx,
		func(k int) bool { return d.Active[k][t] })
}

func (d *ShuntData) Slice(elmIdx, busIdx []int, timeIdx []int) *ShuntData {
	ntime := d.Ntime
	if timeIdx != nil {
		ntime = len(timeIdx)
	}
	out := NewShuntData(len(elmIdx), len(busIdx), ntime)
	out.Names = takeString(d.Names, elmIdx)
	out.Active = takeBoolProf(d.Active, elmIdx, timeIdx)
	out.Admittance = takeComplexProf(d.Admittance, elmIdx, timeIdx)
	out.Controlled = takeBool(d.Controlled, elmIdx)
	out.Bmin = takeFloat(d.Bmin, elmIdx)
	out.Bmax = takeFloat(d.Bmax, elmIdx)
	out.CBusShunt = d.CBusShunt.Slice(busIdx, elmIdx)
	remapBusIdx(out.BusIdx, d.BusIdx, elmIdx, busIdx)
	return out
}

// AdmittancesPerBus aggregates active shunt admittances onto buses at time t.
func (d *ShuntData) AdmittancesPerBus(nbus, t int) []complex128 {
	out := make([]complex128, nbus)
	for k := 0; k < d.Nshunt; k++ {
		if d.Active[k][t] {
			out[d.BusIdx[k]] += d.Admittance[k][t]
		}
	}
	return out
}

func (d *ShuntData) Len() int { return d.Nshunt }

// remapBusIdx rewrites the bus references of the sliced devices to the
// island's compact bus numbering. A terminal outside the sliced bus set maps
// to -1 so a stale reference can never alias a real bus.
func remapBusIdx(dst, src []int, elmIdx, busIdx []int) {
	busMap := make(map[int]int, len(busIdx))
	for k, b := range busIdx {
		busMap[b] = k
	}
	for k, e := range elmIdx {
		if b, ok := busMap[src[e]]; ok {
			dst[k] = b
		} else {
			dst[k] = -1
		}
	}
}
