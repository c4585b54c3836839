package linear

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/ramferan/GridCal/pkg/compile"
	"github.com/ramferan/GridCal/pkg/plog"
)

// Options tune one linear analysis run.
type Options struct {
	DistributeSlack bool
	CorrectValues   bool

	// UseAC linearizes around the AC Jacobian at the compiled voltage guess
	// instead of the DC susceptance model.
	UseAC bool
}

// Analysis owns the sensitivity matrices of one compiled circuit. PTDF and
// LODF are filled by Run; the OTDF reduction is derived lazily on first use
// and cached for the analysis lifetime.
type Analysis struct {
	Circuit *compile.NumCircuit
	Opt     Options
	Log     *plog.Logger

	PTDF *mat.Dense // (nbr, nbus)
	LODF *mat.Dense // (nbr, nbr)

	otdfOnce sync.Once
	otdfMax  *mat.Dense
}

func NewAnalysis(nc *compile.NumCircuit, opt Options, log *plog.Logger) *Analysis {
	return &Analysis{Circuit: nc, Opt: opt, Log: log}
}

// Run computes PTDF and LODF for the time-step-0 topology.
func (a *Analysis) Run() error {
	return a.RunAt(0)
}

// RunAt computes PTDF and LODF island by island over the time-step-t topology
// and scatters the blocks back into full-system coordinates. Islands without a
// usable reference contribute zero blocks; disjoint islands never interfere.
func (a *Analysis) RunAt(t int) error {
	nc := a.Circuit
	nbus := nc.Nbus()
	nbr := nc.Nbr()

	// A branch-free circuit has no sensitivities to compute.
	if nbr == 0 {
		a.PTDF = nil
		a.LODF = nil
		return nil
	}

	a.PTDF = mat.NewDense(nbr, nbus, nil)
	a.LODF = mat.NewDense(nbr, nbr, nil)

	islands, err := nc.SplitIntoIslandsAt(t, true, a.Log)
	if err != nil {
		return err
	}

	for _, isl := range islands {
		if !a.islandSolvable(isl) {
			continue
		}

		var ptdf *mat.Dense
		if a.Opt.UseAC {
			ptdf, err = MakeACPTDF(isl.Ybus, isl.Yf, isl.Bus.Vbus, isl.Branch.F, isl.Pq, isl.Pv, a.Opt.DistributeSlack)
		} else {
			ptdf, err = MakePTDF(isl.Bbus, isl.Bf, isl.Pqpv, a.Opt.DistributeSlack)
		}
		if err != nil {
			return err
		}
		lodf := MakeLODF(isl.Branch.Cf, isl.Branch.Ct, ptdf, a.Opt.CorrectValues)

		for k, bk := range isl.OriginalBranchIdx {
			for j, bj := range isl.OriginalBusIdx {
				a.PTDF.Set(bk, bj, ptdf.At(k, j))
			}
			for c, bc := range isl.OriginalBranchIdx {
				a.LODF.Set(bk, bc, lodf.At(k, c))
			}
		}
	}
	return nil
}

func (a *Analysis) islandSolvable(isl *compile.NumCircuit) bool {
	switch {
	case len(isl.Ref) == 0:
		if a.Log != nil {
			a.Log.AddWarning("No slack bus", islandName(isl), 0, 1)
		}
		return false
	case len(isl.Ref) > 1:
		if a.Log != nil {
			a.Log.AddError("More than one slack bus", islandName(isl), len(isl.Ref), 1)
		}
		return false
	case len(isl.Pqpv) == 0:
		if a.Log != nil {
			a.Log.AddError("No PQ or PV nodes", islandName(isl), 0, "> 0")
		}
		return false
	}
	return true
}

func islandName(isl *compile.NumCircuit) string {
	if len(isl.Bus.Names) > 0 {
		return isl.Bus.Names[0]
	}
	return "island"
}

// OTDFMax is the worst-case injection/outage sensitivity matrix, computed on
// first access.
func (a *Analysis) OTDFMax() *mat.Dense {
	a.otdfOnce.Do(func() {
		if a.PTDF != nil {
			a.otdfMax = MakeOTDFMax(a.PTDF, a.LODF)
		}
	})
	return a.otdfMax
}

// GetFlows maps the time-t bus injections to MW branch flows through the
// PTDF.
func (a *Analysis) GetFlows(t int) []float64 {
	S := a.Circuit.ComputeInjections(t)
	nbr := a.Circuit.Nbr()
	flows := make([]float64, nbr)
	for m := 0; m < nbr; m++ {
		var s float64
		for j := range S {
			s += a.PTDF.At(m, j) * real(S[j])
		}
		flows[m] = s * a.Circuit.Sbase
	}
	return flows
}

// GetFlowsTimeSeries evaluates GetFlows for every compiled time step against
// the sensitivities of the last run. Steps whose branch topology differs need
// their own RunAt first.
func (a *Analysis) GetFlowsTimeSeries() [][]float64 {
	out := make([][]float64, a.Circuit.Ntime)
	for t := 0; t < a.Circuit.Ntime; t++ {
		out[t] = a.GetFlows(t)
	}
	return out
}

// GetContingencyFlows is the post-outage flow estimate for the time-t
// operating point.
func (a *Analysis) GetContingencyFlows(t int) *mat.Dense {
	if a.LODF == nil {
		return nil
	}
	return MakeContingencyFlows(a.LODF, a.GetFlows(t))
}

// GetTransferLimits returns the intact-network transfer headroom per branch
// at time t.
func (a *Analysis) GetTransferLimits(t int) []float64 {
	if a.PTDF == nil {
		return nil
	}
	return MakeTransferLimits(a.PTDF, a.GetFlows(t), a.Circuit.Branch.RatesAt(t))
}

// GetContingencyTransferLimits returns the N-1 transfer headroom matrix at
// time t.
func (a *Analysis) GetContingencyTransferLimits(t int) *mat.Dense {
	if a.OTDFMax() == nil {
		return nil
	}
	return MakeContingencyTransferLimits(a.OTDFMax(), a.LODF, a.GetFlows(t), a.Circuit.Branch.ContingencyRatesAt(t))
}

// GetLODFNx resolves each contingency group of branch indices into its
// combined multi-outage sensitivity block.
func (a *Analysis) GetLODFNx(groups [][]int) []*mat.Dense {
	out := make([]*mat.Dense, len(groups))
	if a.LODF == nil {
		return out
	}
	for i, g := range groups {
		out[i] = MakeLODFNx(a.LODF, g)
	}
	return out
}
