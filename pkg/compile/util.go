package compile

// Array slicing helpers. Time-indexed arrays are stored device-major:
// a[k][t] is device k at time step t. A nil timeIdx keeps every time step.

func takeBool(a []bool, idx []int) []bool {
	out := make([]bool, len(idx))
	for k, i := range idx {
		out[k] = a[i]
	}
	return out
}

func takeInt(a []int, idx []int) []int {
	out := make([]int, len(idx))
	for k, i := range idx {
		out[k] = a[i]
	}
	return out
}

func takeFloat(a []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = a[i]
	}
	return out
}

func takeComplex(a []complex128, idx []int) []complex128 {
	out := make([]complex128, len(idx))
	for k, i := range idx {
		out[k] = a[i]
	}
	return out
}

func takeString(a []string, idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = a[i]
	}
	return out
}

func takeBoolProf(a [][]bool, idx []int, timeIdx []int) [][]bool {
	out := make([][]bool, len(idx))
	for k, i := range idx {
		if timeIdx == nil {
			out[k] = append([]bool(nil), a[i]...)
		} else {
			out[k] = takeBool(a[i], timeIdx)
		}
	}
	return out
}

func takeFloatProf(a [][]float64, idx []int, timeIdx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for k, i := range idx {
		if timeIdx == nil {
			out[k] = append([]float64(nil), a[i]...)
		} else {
			out[k] = takeFloat(a[i], timeIdx)
		}
	}
	return out
}

func takeComplexProf(a [][]complex128, idx []int, timeIdx []int) [][]complex128 {
	out := make([][]complex128, len(idx))
	for k, i := range idx {
		if timeIdx == nil {
			out[k] = append([]complex128(nil), a[i]...)
		} else {
			out[k] = takeComplex(a[i], timeIdx)
		}
	}
	return out
}

func makeBoolProf(n, ntime int) [][]bool {
	out := make([][]bool, n)
	for i := range out {
		out[i] = make([]bool, ntime)
	}
	return out
}

func makeFloatProf(n, ntime int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, ntime)
	}
	return out
}

func makeComplexProf(n, ntime int) [][]complex128 {
	out := make([][]complex128, n)
	for i := range out {
		out[i] = make([]complex128, ntime)
	}
	return out
}

func fillBool(row []bool, v bool) {
	for i := range row {
		row[i] = v
	}
}

func fillFloat(row []float64, v float64) {
	for i := range row {
		row[i] = v
	}
}

func fillComplex(row []complex128, v complex128) {
	for i := range row {
		row[i] = v
	}
}
