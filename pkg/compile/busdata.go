package compile

import "github.com/ramferan/GridCal/pkg/grid"

// BusData holds the compiled per-bus arrays. All arrays share the same
// 0..Nbus-1 ordering, which is the registry's bus ordering (or the island's
// sliced subset of it).
type BusData struct {
	Nbus  int
	Ntime int

	Names []string
	Areas []int

	Vmin     []float64
	Vmax     []float64
	AngleMin []float64
	AngleMax []float64

	// Vbus is the shared voltage-guess array. Controllable devices write
	// their set points into it during compilation.
	Vbus []complex128

	// Types is the tentative bus classification; CompileTypes refines it
	// into the ref/pq/pv partition after consolidation.
	Types []grid.BusMode

	Active [][]bool // (nbus, ntime)
}

func NewBusData(nbus, ntime int) *BusData {
	d := &BusData{
		Nbus:     nbus,
		Ntime:    ntime,
		Names:    make([]string, nbus),
		Areas:    make([]int, nbus),
		Vmin:     make([]float64, nbus),
		Vmax:     make([]float64, nbus),
		AngleMin: make([]float64, nbus),
		AngleMax: make([]float64, nbus),
		Vbus:     make([]complex128, nbus),
		Types:    make([]grid.BusMode, nbus),
		Active:   makeBoolProf(nbus, ntime),
	}
	for i := range d.Vbus {
		d.Vbus[i] = complex(1, 0)
	}
	return d
}

func (d *BusData) ActiveAt(i, t int) bool { return d.Active[i][t] }

// Slice restricts the data to the buses in busIdx (ascending) and, when
// timeIdx is not nil, to those time steps.
func (d *BusData) Slice(busIdx []int, timeIdx []int) *BusData {
	ntime := d.Ntime
	if timeIdx != nil {
		ntime = len(timeIdx)
	}
	out := NewBusData(len(busIdx), ntime)
	out.Names = takeString(d.Names, busIdx)
	out.Areas = takeInt(d.Areas, busIdx)
	out.Vmin = takeFloat(d.Vmin, busIdx)
	out.Vmax = takeFloat(d.Vmax, busIdx)
	out.AngleMin = takeFloat(d.AngleMin, busIdx)
	out.AngleMax = takeFloat(d.AngleMax, busIdx)
	out.Vbus = takeComplex(d.Vbus, busIdx)
	out.Types = make([]grid.BusMode, len(busIdx))
	for k, i := range busIdx {
		out.Types[k] = d.Types[i]
	}
	out.Active = takeBoolProf(d.Active, busIdx, timeIdx)
	return out
}

func (d *BusData) Len() int { return d.Nbus }
