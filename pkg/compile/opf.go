package compile

// OPFResults carries a previous optimal-power-flow stage's outcome into the
// next compilation pass: dispatched powers and shed amounts replace the
// registry's scheduled values. Arrays are device-major: a[k][t].
type OPFResults struct {
	LoadShedding      [][]float64
	GeneratorPower    [][]float64
	GeneratorShedding [][]float64
	BatteryPower      [][]float64
	HvdcPf            [][]float64
	PhaseShift        [][]float64 // (nbr unified, ntime)
}

func opfAt(a [][]float64, k, t int) (float64, bool) {
	if a == nil || k >= len(a) || t >= len(a[k]) {
		return 0, false
	}
	return a[k][t], true
}
