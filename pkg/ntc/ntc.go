// Package ntc computes available and net transfer capacities between two bus
// groups: the exchange sensitivity of every branch and the MW headroom before
// a rating or contingency rating binds.
package ntc

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ramferan/GridCal/pkg/grid"
	"github.com/ramferan/GridCal/pkg/plog"
)

// ComputeAlpha builds the exchange sensitivity vector: MW of flow change per
// MW transferred from the sending group idx1 to the receiving group idx2.
// Only dispatchable buses take part in the perturbation, each in proportion
// to its share of the group's current injection. P is in MW.
func ComputeAlpha(ptdf *mat.Dense, P []float64, types []grid.BusMode, idx1, idx2 []int, dT float64) []float64 {
	nbr, _ := ptdf.Dims()
	dP := make([]float64, len(P))

	dispatchable := func(i int) bool {
		return types[i] == grid.PV || types[i] == grid.Slack
	}

	var total1 float64
	for _, i := range idx1 {
		if dispatchable(i) && P[i] > 0 {
			total1 += P[i]
		}
	}
	var total2 float64
	for _, i := range idx2 {
		if dispatchable(i) && P[i] < 0 {
			total2 += -P[i]
		}
	}

	if total1 > 0 {
		for _, i := range idx1 {
			if dispatchable(i) && P[i] > 0 {
				dP[i] = dT * P[i] / total1
			}
		}
	}
	if total2 > 0 {
		for _, i := range idx2 {
			if dispatchable(i) && P[i] < 0 {
				dP[i] = -dT * -P[i] / total2
			}
		}
	}

	alpha := make([]float64, nbr)
	for m := 0; m < nbr; m++ {
		var s float64
		for j := range dP {
			s += ptdf.At(m, j) * dP[j]
		}
		alpha[m] = s / dT
	}
	return alpha
}

// Results of one transfer-capacity evaluation. Arrays are per branch in the
// unified ordering.
type Results struct {
	Alpha []float64
	Beta  *mat.Dense // (nbr, nbr) post-contingency sensitivities

	AtcN     []float64 // intact network
	AtcMC    []float64 // worst single contingency
	AtcFinal []float64 // most restrictive of the two

	// Limiting contingency identity per branch; -1 when the intact case
	// binds or the branch never qualifies.
	WorstContingency []int
	ContingencyFlow  []float64

	// Branches loaded beyond rating before any transfer. They are excluded
	// from the limit search and reported instead of silently masked.
	Overloaded []int
}

// atcFor evaluates the sign-dependent headroom formula.
func atcFor(sens, flow, rate float64) float64 {
	if sens > 0 {
		return (rate - flow) / sens
	}
	return (-rate - flow) / sens
}

// ComputeATC derives the transfer limits per branch from the sensitivities
// and the time-step flows. Branches whose exchange sensitivity is below
// threshold never bind; branches already beyond rating are collected in
// Overloaded and logged.
func ComputeATC(lodf *mat.Dense, alpha, flows, rates, contingencyRates []float64,
	monitor []bool, threshold float64, names []string, log *plog.Logger) *Results {

	nbr := len(flows)
	r := &Results{
		Alpha:            alpha,
		Beta:             mat.NewDense(nbr, nbr, nil),
		AtcN:             make([]float64, nbr),
		AtcMC:            make([]float64, nbr),
		AtcFinal:         make([]float64, nbr),
		WorstContingency: make([]int, nbr),
		ContingencyFlow:  make([]float64, nbr),
	}

	for m := 0; m < nbr; m++ {
		r.WorstContingency[m] = -1
		r.AtcN[m] = math.Inf(1)
		r.AtcMC[m] = math.Inf(1)

		if monitor != nil && !monitor[m] {
			r.AtcFinal[m] = math.Inf(1)
			continue
		}

		if math.Abs(flows[m]) > rates[m] {
			r.Overloaded = append(r.Overloaded, m)
			if log != nil {
				log.AddWarning("Overloaded before transfer", names[m], flows[m], rates[m])
			}
			r.AtcFinal[m] = math.Inf(1)
			continue
		}

		// An exchange-insensitive branch can never become limiting, not
		// even through an outage coupling.
		if math.Abs(alpha[m]) <= threshold {
			r.AtcFinal[m] = math.Inf(1)
			continue
		}

		r.AtcN[m] = atcFor(alpha[m], flows[m], rates[m])

		for c := 0; c < nbr; c++ {
			if c == m {
				continue
			}
			beta := alpha[m] + lodf.At(m, c)*alpha[c]
			r.Beta.Set(m, c, beta)

			cflow := flows[m] + lodf.At(m, c)*flows[c]
			if math.Abs(beta) <= threshold || math.Abs(cflow) > contingencyRates[m] {
				continue
			}
			v := atcFor(beta, cflow, contingencyRates[m])
			if math.Abs(v) < math.Abs(r.AtcMC[m]) {
				r.AtcMC[m] = v
				r.WorstContingency[m] = c
				r.ContingencyFlow[m] = cflow
			}
		}

		r.AtcFinal[m] = r.AtcN[m]
		if math.Abs(r.AtcMC[m]) < math.Abs(r.AtcN[m]) {
			r.AtcFinal[m] = r.AtcMC[m]
		}
	}
	return r
}
