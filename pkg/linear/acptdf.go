package linear

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// MakeACPTDF linearizes around the full AC Jacobian at the operating voltage
// V instead of the flat DC assumptions. The Jacobian is factorized once and
// each injection column is solved against it; the branch sensitivities follow
// from the from-side power derivative.
func MakeACPTDF(Ybus, Yf *mat.CDense, V []complex128, F []int, pq, pv []int, distributeSlack bool) (*mat.Dense, error) {
	n := len(V)
	nbr, _ := Yf.Dims()

	pvpq := append(append([]int{}, pv...), pq...)
	npvpq := len(pvpq)
	npq := len(pq)
	dim := npvpq + npq
	if dim == 0 {
		return mat.NewDense(nbr, n, nil), nil
	}

	// Ibus = Ybus * V
	Ibus := make([]complex128, n)
	for i := 0; i < n; i++ {
		var s complex128
		for j := 0; j < n; j++ {
			s += Ybus.At(i, j) * V[j]
		}
		Ibus[i] = s
	}

	// dS/dVa = j * diag(V) * conj(diag(Ibus) - Ybus*diag(V))
	// dS/dVm = diag(V) * conj(Ybus*diag(Vnorm)) + diag(conj(Ibus)) * diag(Vnorm)
	dSdVa := mat.NewCDense(n, n, nil)
	dSdVm := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			yv := Ybus.At(i, j) * V[j]
			vnj := V[j]
			if a := cmplx.Abs(vnj); a > 0 {
				vnj /= complex(a, 0)
			}
			var da complex128
			if i == j {
				da = complex(0, 1) * V[i] * cmplx.Conj(Ibus[i]-yv)
				dSdVm.Set(i, j, V[i]*cmplx.Conj(Ybus.At(i, j)*vnj)+cmplx.Conj(Ibus[i])*vnj)
			} else {
				da = complex(0, 1) * V[i] * cmplx.Conj(-yv)
				dSdVm.Set(i, j, V[i]*cmplx.Conj(Ybus.At(i, j)*vnj))
			}
			dSdVa.Set(i, j, da)
		}
	}

	// J = [ Re(dSdVa[pvpq,pvpq])  Re(dSdVm[pvpq,pq]) ]
	//     [ Im(dSdVa[pq,  pvpq])  Im(dSdVm[pq,  pq]) ]
	J := mat.NewDense(dim, dim, nil)
	for a, i := range pvpq {
		for b, j := range pvpq {
			J.Set(a, b, real(dSdVa.At(i, j)))
		}
		for b, j := range pq {
			J.Set(a, npvpq+b, real(dSdVm.At(i, j)))
		}
	}
	for a, i := range pq {
		for b, j := range pvpq {
			J.Set(npvpq+a, b, imag(dSdVa.At(i, j)))
		}
		for b, j := range pq {
			J.Set(npvpq+a, npvpq+b, imag(dSdVm.At(i, j)))
		}
	}

	var lu mat.LU
	lu.Factorize(J)

	off := 0.0
	if distributeSlack && n > 1 {
		off = -1.0 / float64(n-1)
	}

	If := make([]complex128, nbr)
	for m := 0; m < nbr; m++ {
		var s complex128
		for j := 0; j < n; j++ {
			s += Yf.At(m, j) * V[j]
		}
		If[m] = s
	}

	ptdf := mat.NewDense(nbr, n, nil)
	rhs := mat.NewVecDense(dim, nil)
	for col := 0; col < n; col++ {
		for a, i := range pvpq {
			if i == col {
				rhs.SetVec(a, 1.0)
			} else {
				rhs.SetVec(a, off)
			}
		}
		for a := 0; a < npq; a++ {
			rhs.SetVec(npvpq+a, 0)
		}

		var dx mat.VecDense
		if err := lu.SolveVecTo(&dx, false, rhs); err != nil {
			return nil, fmt.Errorf("singular jacobian: %w", err)
		}

		dVa := make([]float64, n)
		dVm := make([]float64, n)
		for a, i := range pvpq {
			dVa[i] = dx.AtVec(a)
		}
		for a, i := range pq {
			dVm[i] = dx.AtVec(npvpq + a)
		}

		// dV = diag(V) * (j*dVa + dVm/|V|)
		dV := make([]complex128, n)
		for i := 0; i < n; i++ {
			vm := cmplx.Abs(V[i])
			e := complex(0, dVa[i])
			if vm > 0 {
				e += complex(dVm[i]/vm, 0)
			}
			dV[i] = V[i] * e
		}

		for m := 0; m < nbr; m++ {
			var dIf complex128
			for j := 0; j < n; j++ {
				dIf += Yf.At(m, j) * dV[j]
			}
			dSf := V[F[m]]*cmplx.Conj(dIf) + dV[F[m]]*cmplx.Conj(If[m])
			ptdf.Set(m, col, real(dSf))
		}
	}
	return ptdf, nil
}
