// Package linear computes the DC-linearized sensitivity factors of branch
// flows: PTDF (flow vs bus injection), LODF (flow vs single branch outage),
// OTDF (their composition) and the transfer limits derived from them.
package linear

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/ramferan/GridCal/internal/consts"
	"github.com/ramferan/GridCal/pkg/compile"
	"github.com/ramferan/GridCal/pkg/matrix"
)

// MakePTDF computes the power transfer distribution factors (nbr, nbus) from
// the linearized susceptance structure. The reference angles are held at zero,
// so only the pqpv sub-system is solved. With distributeSlack a unit injection
// at a bus is balanced by an even negative spread over every other bus instead
// of the slack alone.
func MakePTDF(Bbus, Bf *mat.Dense, pqpv []int, distributeSlack bool) (*mat.Dense, error) {
	nbus, _ := Bbus.Dims()
	nbr, _ := Bf.Dims()
	nred := len(pqpv)

	// dP: identity, or 1 on the diagonal and -1/(n-1) elsewhere.
	off := 0.0
	if distributeSlack && nbus > 1 {
		off = -1.0 / float64(nbus-1)
	}

	sys, err := matrix.NewSystemMatrix(nred)
	if err != nil {
		return nil, err
	}
	defer sys.Destroy()

	for a, i := range pqpv {
		for b, j := range pqpv {
			if v := Bbus.At(i, j); v != 0 {
				sys.AddElement(a, b, v)
			}
		}
	}
	if err := sys.Factor(); err != nil {
		return nil, err
	}

	// dTheta carries a column per injection bus; reference rows stay zero.
	dTheta := mat.NewDense(nbus, nbus, nil)
	rhs := make([]float64, nred)
	for j := 0; j < nbus; j++ {
		for a, i := range pqpv {
			if i == j {
				rhs[a] = 1.0
			} else {
				rhs[a] = off
			}
		}
		x, err := sys.Solve(rhs)
		if err != nil {
			return nil, err
		}
		for a, i := range pqpv {
			dTheta.Set(i, j, x[a])
		}
	}

	ptdf := mat.NewDense(nbr, nbus, nil)
	ptdf.Mul(Bf, dTheta)
	return ptdf, nil
}

// MakeLODF computes the line outage distribution factors (nbr, nbr). A column
// whose redistribution denominator vanishes is left at zero: dividing there
// would only manufacture inf out of an islanding outage. With correctValues
// any entry beyond the plausible magnitude bound is zeroed as numerical noise.
func MakeLODF(Cf, Ct *compile.IncMatrix, ptdf *mat.Dense, correctValues bool) *mat.Dense {
	nbr, _ := ptdf.Dims()

	// H = PTDF * (Cf - Ct)^T, accumulated over the sparse incidence rows.
	H := mat.NewDense(nbr, nbr, nil)
	for c := 0; c < nbr; c++ {
		fCols, fVals := Cf.Row(c)
		tCols, tVals := Ct.Row(c)
		for k := 0; k < nbr; k++ {
			s := 0.0
			for a, b := range fCols {
				s += ptdf.At(k, b) * float64(fVals[a])
			}
			for a, b := range tCols {
				s -= ptdf.At(k, b) * float64(tVals[a])
			}
			H.Set(k, c, s)
		}
	}

	lodf := mat.NewDense(nbr, nbr, nil)
	for c := 0; c < nbr; c++ {
		den := 1.0 - H.At(c, c)
		if math.Abs(den) <= consts.NUMERICAL_ZERO {
			continue
		}
		for k := 0; k < nbr; k++ {
			lodf.Set(k, c, H.At(k, c)/den)
		}
	}
	for i := 0; i < nbr; i++ {
		lodf.Set(i, i, -1.0)
	}

	if correctValues {
		for k := 0; k < nbr; k++ {
			for c := 0; c < nbr; c++ {
				if math.Abs(lodf.At(k, c)) > consts.LODF_MAX {
					lodf.Set(k, c, 0)
				}
			}
		}
	}
	return lodf
}

// MakeOTDF composes the injection and outage sensitivities for injection bus
// j: OTDF[k, l] is the sensitivity of branch k's flow to an injection at j
// while branch l is out.
func MakeOTDF(ptdf, lodf *mat.Dense, j int) *mat.Dense {
	nbr, _ := ptdf.Dims()
	otdf := mat.NewDense(nbr, nbr, nil)
	for k := 0; k < nbr; k++ {
		for l := 0; l < nbr; l++ {
			otdf.Set(k, l, ptdf.At(k, j)+lodf.At(k, l)*ptdf.At(l, j))
		}
	}
	return otdf
}

// MakeOTDFMax reduces OTDF over every injection bus, keeping per (k, l) the
// signed value of largest magnitude. Rows are independent, so the outer loop
// parallelizes once the branch count warrants it.
func MakeOTDFMax(ptdf, lodf *mat.Dense) *mat.Dense {
	nbr, nbus := ptdf.Dims()
	otdf := mat.NewDense(nbr, nbr, nil)

	row := func(k int) {
		for l := 0; l < nbr; l++ {
			best := 0.0
			for j := 0; j < nbus; j++ {
				v := ptdf.At(k, j) + lodf.At(k, l)*ptdf.At(l, j)
				if math.Abs(v) > math.Abs(best) {
					best = v
				}
			}
			otdf.Set(k, l, best)
		}
	}

	if nbr < consts.PARALLEL_MIN {
		for k := 0; k < nbr; k++ {
			row(k)
		}
		return otdf
	}

	var wg sync.WaitGroup
	nw := runtime.GOMAXPROCS(0)
	for w := 0; w < nw; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for k := w; k < nbr; k += nw {
				row(k)
			}
		}(w)
	}
	wg.Wait()
	return otdf
}

// MakeContingencyFlows returns the post-outage flow estimate (nbr, nbr):
// entry (m, c) is branch m's flow after branch c goes out.
func MakeContingencyFlows(lodf *mat.Dense, flows []float64) *mat.Dense {
	nbr := len(flows)
	out := mat.NewDense(nbr, nbr, nil)
	for m := 0; m < nbr; m++ {
		for c := 0; c < nbr; c++ {
			out.Set(m, c, flows[m]+lodf.At(m, c)*flows[c])
		}
	}
	return out
}

// MakeLODFNx generalizes LODF to a simultaneous multi-branch outage. The
// fixed point of the mutual redistribution is L * M^-1 with M[i,i]=1 and
// M[i,j] = -LODF[gi, gj]. A singular M (the group islands the network)
// returns nil.
func MakeLODFNx(lodf *mat.Dense, group []int) *mat.Dense {
	nbr, _ := lodf.Dims()
	ng := len(group)
	if ng == 0 {
		return mat.NewDense(nbr, 1, nil)
	}

	L := mat.NewDense(nbr, ng, nil)
	for k := 0; k < nbr; k++ {
		for a, c := range group {
			L.Set(k, a, lodf.At(k, c))
		}
	}

	M := mat.NewDense(ng, ng, nil)
	for a, ci := range group {
		for b, cj := range group {
			if a == b {
				M.Set(a, b, 1.0)
			} else {
				M.Set(a, b, -lodf.At(ci, cj))
			}
		}
	}

	var Minv mat.Dense
	if err := Minv.Inverse(M); err != nil {
		return nil
	}

	out := mat.NewDense(nbr, ng, nil)
	out.Mul(L, &Minv)
	return out
}

// MakeTransferLimits returns, per branch, the signed maximum MW transfer that
// can drive the branch to its rating: the largest-magnitude headroom over the
// single injection buses.
func MakeTransferLimits(ptdf *mat.Dense, flows, rates []float64) []float64 {
	nbr, nbus := ptdf.Dims()
	tmc := make([]float64, nbr)
	for m := 0; m < nbr; m++ {
		for j := 0; j < nbus; j++ {
			p := ptdf.At(m, j)
			if p == 0 {
				continue
			}
			v := (rates[m] - flows[m]) / p
			if math.Abs(v) > math.Abs(tmc[m]) {
				tmc[m] = v
			}
		}
	}
	return tmc
}

// MakeContingencyTransferLimits is the N-1 counterpart (nbr, nbr): entry
// (m, c) is the transfer headroom of branch m when branch c is out, measured
// against the contingency ratings. Rows parallelize for large systems.
func MakeContingencyTransferLimits(otdfMax, lodf *mat.Dense, flows, contingencyRates []float64) *mat.Dense {
	nbr, _ := otdfMax.Dims()
	tmc := mat.NewDense(nbr, nbr, nil)

	row := func(m int) {
		for c := 0; c < nbr; c++ {
			if c == m {
				continue
			}
			s := otdfMax.At(m, c)
			if s == 0 {
				continue
			}
			omw := flows[m] + lodf.At(m, c)*flows[c]
			tmc.Set(m, c, (contingencyRates[m]-omw)/s)
		}
	}

	if nbr < consts.PARALLEL_MIN {
		for m := 0; m < nbr; m++ {
			row(m)
		}
		return tmc
	}

	var wg sync.WaitGroup
	nw := runtime.GOMAXPROCS(0)
	for w := 0; w < nw; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for m := w; m < nbr; m += nw {
				row(m)
			}
		}(w)
	}
	wg.Wait()
	return tmc
}

// MakeWorstContingencyTransferLimits collapses the N-1 limit matrix to its
// per-branch extremes: the row-wise maximum and minimum transfer values.
func MakeWorstContingencyTransferLimits(tmc *mat.Dense) (maxs, mins []float64) {
	nbr, _ := tmc.Dims()
	maxs = make([]float64, nbr)
	mins = make([]float64, nbr)
	for m := 0; m < nbr; m++ {
		maxs[m] = tmc.At(m, 0)
		mins[m] = tmc.At(m, 0)
		for c := 1; c < nbr; c++ {
			v := tmc.At(m, c)
			if v > maxs[m] {
				maxs[m] = v
			}
			if v < mins[m] {
				mins[m] = v
			}
		}
	}
	return maxs, mins
}
