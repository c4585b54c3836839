package compile

import "sort"

// IncMatrix is a sparse device-bus incidence matrix. Entries are +1 or -1 and
// every row holds at most a couple of them, so rows are kept as short index
// lists. The orientation (buses x devices for injections, branches x buses
// for branches) follows the owning data container.
type IncMatrix struct {
	NRows int
	NCols int
	cols  [][]int
	vals  [][]int
}

func NewIncMatrix(rows, cols int) *IncMatrix {
	return &IncMatrix{
		NRows: rows,
		NCols: cols,
		cols:  make([][]int, rows),
		vals:  make([][]int, rows),
	}
}

func (m *IncMatrix) Set(i, j, v int) {
	for k, c := range m.cols[i] {
		if c == j {
			m.vals[i][k] = v
			return
		}
	}
	m.cols[i] = append(m.cols[i], j)
	m.vals[i] = append(m.vals[i], v)
}

func (m *IncMatrix) At(i, j int) int {
	for k, c := range m.cols[i] {
		if c == j {
			return m.vals[i][k]
		}
	}
	return 0
}

// Row returns the column indices and values of row i. The returned slices are
// the backing storage and must not be modified.
func (m *IncMatrix) Row(i int) ([]int, []int) {
	return m.cols[i], m.vals[i]
}

// NonZeroRows counts the entries of row i.
func (m *IncMatrix) RowLen(i int) int { return len(m.cols[i]) }

// Slice keeps only the rows in rowIdx and the columns in colIdx, remapping
// both to the new compact 0-based numbering. Index slices must be ascending.
func (m *IncMatrix) Slice(rowIdx, colIdx []int) *IncMatrix {
	colMap := make(map[int]int, len(colIdx))
	for k, j := range colIdx {
		colMap[j] = k
	}
	out := NewIncMatrix(len(rowIdx), len(colIdx))
	for k, i := range rowIdx {
		for p, j := range m.cols[i] {
			if nj, ok := colMap[j]; ok {
				out.Set(k, nj, m.vals[i][p])
			}
		}
	}
	return out
}

// T returns the transposed matrix.
func (m *IncMatrix) T() *IncMatrix {
	out := NewIncMatrix(m.NCols, m.NRows)
	for i := range m.cols {
		for p, j := range m.cols[i] {
			out.Set(j, i, m.vals[i][p])
		}
	}
	return out
}

// elementsOfIsland returns, sorted ascending, the indices k in [0, n) whose
// connection bus set intersects busIdx and for which active(k) holds.
func elementsOfIsland(n int, busesOf func(k int) []int, busIdx []int, active func(k int) bool) []int {
	busSet := make(map[int]struct{}, len(busIdx))
	for _, b := range busIdx {
		busSet[b] = struct{}{}
	}
	var out []int
	for k := 0; k < n; k++ {
		if !active(k) {
			continue
		}
		for _, b := range busesOf(k) {
			if _, ok := busSet[b]; ok {
				out = append(out, k)
				break
			}
		}
	}
	sort.Ints(out)
	return out
}
