package compile

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/ramferan/GridCal/internal/consts"
	"github.com/ramferan/GridCal/pkg/plog"
	"github.com/ramferan/GridCal/pkg/topology"
)

var (
	// ErrNotConsolidated is returned by island-dependent operations called
	// before Consolidate has run.
	ErrNotConsolidated = errors.New("numerical circuit not consolidated")
)

// NumCircuit is the compiled, solver-ready snapshot of a network. Index
// ordering is assigned once at compilation and stable for the circuit's
// lifetime; island slices carry Original*Idx back-references into the parent
// ordering for result scatter-back.
type NumCircuit struct {
	Ntime int
	Sbase float64

	Bus    *BusData
	Load   *LoadData
	Stagen *StaticGeneratorData
	Shunt  *ShuntData
	Gen    *GeneratorData
	Batt   *BatteryData
	Branch *BranchData
	Hvdc   *HvdcData

	// Sub-class counts; offsets into Branch follow the compilation order
	// lines, DC lines, transformers, VSCs, UPFCs.
	Nline, Ndcline, Ntr, Nvsc, Nupfc int

	OriginalBusIdx    []int
	OriginalBranchIdx []int
	OriginalLoadIdx   []int
	OriginalStagenIdx []int
	OriginalShuntIdx  []int
	OriginalGenIdx    []int
	OriginalBattIdx   []int
	OriginalHvdcIdx   []int

	// Consolidated vectors (p.u.) for the consolidation time step.
	Sbus      []complex128
	Ibus      []complex128
	YloadBus  []complex128
	YshuntBus []complex128

	// Admittance structure. The branch-indexed matrices stay nil when the
	// circuit carries no branches.
	Ybus *mat.CDense // (nbus, nbus)
	Yf   *mat.CDense // (nbr, nbus)
	Yt   *mat.CDense
	Bbus *mat.Dense // DC linearization, Im of the lossless Ybus
	Bf   *mat.Dense

	// Bus classification.
	Ref  []int
	Pq   []int
	Pv   []int
	Pqpv []int

	consolidated bool
}

func (nc *NumCircuit) Nbus() int { return nc.Bus.Nbus }
func (nc *NumCircuit) Nbr() int  { return nc.Branch.Nbr }

// BranchNames returns the unified branch name array.
func (nc *NumCircuit) BranchNames() []string { return nc.Branch.Names }

// BusNames returns the bus name array.
func (nc *NumCircuit) BusNames() []string { return nc.Bus.Names }

// ComputeInjections aggregates every injection class into the per-bus net
// complex power at time t, in p.u.
func (nc *NumCircuit) ComputeInjections(t int) []complex128 {
	n := nc.Nbus()
	S := make([]complex128, n)

	add := func(v []complex128, sign complex128) {
		for i := range v {
			S[i] += sign * v[i]
		}
	}
	add(nc.Gen.InjectionsPerBus(n, t), 1)
	add(nc.Batt.InjectionsPerBus(n, t), 1)
	add(nc.Stagen.InjectionsPerBus(n, t), 1)
	add(nc.Load.InjectionsPerBus(n, t), -1)
	add(nc.Hvdc.InjectionsPerBus(n, t), 1)

	for i := range S {
		S[i] /= complex(nc.Sbase, 0)
	}
	return S
}

// Consolidate finalizes the compiled circuit for time step 0.
func (nc *NumCircuit) Consolidate(log *plog.Logger) {
	nc.ConsolidateAt(0, log)
}

// ConsolidateAt finalizes the compiled circuit for time step t: aggregates
// injections, builds the admittance and linearized susceptance structure and
// classifies the buses. It must run before islands or sensitivities are
// requested.
func (nc *NumCircuit) ConsolidateAt(t int, log *plog.Logger) {
	n := nc.Nbus()

	nc.Sbus = nc.ComputeInjections(t)

	nc.Ibus = nc.Load.CurrentsPerBus(n, t)
	for i := range nc.Ibus {
		nc.Ibus[i] = -nc.Ibus[i] / complex(nc.Sbase, 0)
	}

	nc.YloadBus = nc.Load.AdmittancesPerBus(n, t)
	for i := range nc.YloadBus {
		nc.YloadBus[i] = -nc.YloadBus[i] / complex(nc.Sbase, 0)
	}

	nc.YshuntBus = nc.Shunt.AdmittancesPerBus(n, t)
	for i := range nc.YshuntBus {
		nc.YshuntBus[i] /= complex(nc.Sbase, 0)
	}

	nc.buildAdmittances(t, log)

	types := topology.CompileTypes(nc.Sbus, nc.Bus.Types, log)
	nc.Ref = types.Ref
	nc.Pq = types.Pq
	nc.Pv = types.Pv
	nc.Pqpv = types.Pqpv

	nc.consolidated = true
}

// buildAdmittances assembles Ybus/Yf/Yt and the DC-linearized Bbus/Bf from
// the unified branch data plus the device shunts at time step t. Inactive
// branches leave zero rows.
func (nc *NumCircuit) buildAdmittances(t int, log *plog.Logger) {
	n := nc.Nbus()
	m := nc.Nbr()
	br := nc.Branch

	if n == 0 {
		return
	}
	nc.Ybus = mat.NewCDense(n, n, nil)
	nc.Bbus = mat.NewDense(n, n, nil)
	if m > 0 {
		nc.Yf = mat.NewCDense(m, n, nil)
		nc.Yt = mat.NewCDense(m, n, nil)
		nc.Bf = mat.NewDense(m, n, nil)
	}

	for i := 0; i < m; i++ {
		if !br.Active[i][t] {
			continue
		}
		f, t := br.F[i], br.T[i]

		// series admittance
		var ys complex128
		den := complex(br.R[i], br.X[i])
		if br.DC[i] {
			den = complex(br.R[i], 0)
		}
		if cmplx.Abs(den) > consts.NUMERICAL_ZERO {
			ys = 1 / den
		} else if log != nil {
			log.AddWarning("Zero impedance branch", br.Names[i], den, "> 0")
		}

		gbc := complex(br.G[i], br.B[i])
		tapm := br.TapModule[i]
		tap := complex(tapm, 0) * cmplx.Exp(complex(0, br.TapAngle[i]))
		tf := br.VirtualTapF[i]
		tt := br.VirtualTapT[i]

		yff := (ys+gbc/2)/complex(tapm*tapm*tf*tf, 0) + complex(br.G0sw[i], br.Beq[i])
		yft := -ys / (cmplx.Conj(tap) * complex(tf*tt, 0))
		ytf := -ys / (tap * complex(tf*tt, 0))
		ytt := (ys + gbc/2) / complex(tt*tt, 0)

		nc.Yf.Set(i, f, nc.Yf.At(i, f)+yff)
		nc.Yf.Set(i, t, nc.Yf.At(i, t)+yft)
		nc.Yt.Set(i, f, nc.Yt.At(i, f)+ytf)
		nc.Yt.Set(i, t, nc.Yt.At(i, t)+ytt)

		nc.Ybus.Set(f, f, nc.Ybus.At(f, f)+yff)
		nc.Ybus.Set(f, t, nc.Ybus.At(f, t)+yft)
		nc.Ybus.Set(t, f, nc.Ybus.At(t, f)+ytf)
		nc.Ybus.Set(t, t, nc.Ybus.At(t, t)+ytt)

		// DC linearization: susceptance of the lossless branch. DC branches
		// use the resistance as the linear coefficient.
		x := br.X[i]
		if br.DC[i] {
			x = br.R[i]
		}
		den2 := x * tapm
		if den2 > consts.NUMERICAL_ZERO || den2 < -consts.NUMERICAL_ZERO {
			b := 1.0 / den2
			nc.Bf.Set(i, f, nc.Bf.At(i, f)-b)
			nc.Bf.Set(i, t, nc.Bf.At(i, t)+b)
			nc.Bbus.Set(f, f, nc.Bbus.At(f, f)-b)
			nc.Bbus.Set(t, t, nc.Bbus.At(t, t)-b)
			nc.Bbus.Set(f, t, nc.Bbus.At(f, t)+b)
			nc.Bbus.Set(t, f, nc.Bbus.At(t, f)+b)
		}
	}

	// Device shunts enter the diagonal.
	for i := 0; i < n; i++ {
		nc.Ybus.Set(i, i, nc.Ybus.At(i, i)+nc.YshuntBus[i]+nc.YloadBus[i])
	}
}

// SplitIntoIslands partitions the circuit into independently solvable
// sub-circuits over the time-step-0 topology. Single-node islands are
// discarded when ignoreSingleNode is set: with no branch there is no slack
// reference to solve against.
func (nc *NumCircuit) SplitIntoIslands(ignoreSingleNode bool, log *plog.Logger) ([]*NumCircuit, error) {
	return nc.SplitIntoIslandsAt(0, ignoreSingleNode, log)
}

// SplitIntoIslandsAt is SplitIntoIslands for an arbitrary time step.
func (nc *NumCircuit) SplitIntoIslandsAt(t int, ignoreSingleNode bool, log *plog.Logger) ([]*NumCircuit, error) {
	if !nc.consolidated {
		return nil, ErrNotConsolidated
	}

	busActive := make([]bool, nc.Nbus())
	for i := range busActive {
		busActive[i] = nc.Bus.Active[i][t]
	}
	islands := topology.FindIslands(nc.Nbus(), nc.Branch.F, nc.Branch.T, nc.Branch.ActiveAt(t), busActive)

	var out []*NumCircuit
	for _, busIdx := range islands {
		if ignoreSingleNode && len(busIdx) < 2 {
			continue
		}
		isl := nc.GetIsland(busIdx, nil, t)
		isl.ConsolidateAt(t, log)
		out = append(out, isl)
	}
	return out, nil
}

// GetIsland slices the circuit to the given ascending bus-index set. When the
// set covers every bus the circuit itself is returned (round-trip identity).
// timeIdx narrows the time dimension; nil keeps all steps. t selects the time
// step whose active flags decide device membership.
func (nc *NumCircuit) GetIsland(busIdx []int, timeIdx []int, t int) *NumCircuit {
	if len(busIdx) == len(nc.OriginalBusIdx) {
		same := true
		for k, b := range busIdx {
			if nc.OriginalBusIdx[k] != b {
				same = false
				break
			}
		}
		if same {
			return nc
		}
	}

	brIdx := nc.Branch.GetIsland(busIdx, t)
	loadIdx := nc.Load.GetIsland(busIdx, t)
	stagenIdx := nc.Stagen.GetIsland(busIdx, t)
	shuntIdx := nc.Shunt.GetIsland(busIdx, t)
	genIdx := nc.Gen.GetIsland(busIdx, t)
	battIdx := nc.Batt.GetIsland(busIdx, t)
	hvdcIdx := nc.Hvdc.GetIsland(busIdx, t)

	isl := &NumCircuit{
		Ntime:  lenOr(timeIdx, nc.Ntime),
		Sbase:  nc.Sbase,
		Bus:    nc.Bus.Slice(busIdx, timeIdx),
		Load:   nc.Load.Slice(loadIdx, busIdx, timeIdx),
		Stagen: nc.Stagen.Slice(stagenIdx, busIdx, timeIdx),
		Shunt:  nc.Shunt.Slice(shuntIdx, busIdx, timeIdx),
		Gen:    nc.Gen.Slice(genIdx, busIdx, timeIdx),
		Batt:   nc.Batt.Slice(battIdx, busIdx, timeIdx),
		Branch: nc.Branch.Slice(brIdx, busIdx, timeIdx),
		Hvdc:   nc.Hvdc.Slice(hvdcIdx, busIdx, timeIdx),

		OriginalBusIdx:    busIdx,
		OriginalBranchIdx: brIdx,
		OriginalLoadIdx:   loadIdx,
		OriginalStagenIdx: stagenIdx,
		OriginalShuntIdx:  shuntIdx,
		OriginalGenIdx:    genIdx,
		OriginalBattIdx:   battIdx,
		OriginalHvdcIdx:   hvdcIdx,
	}

	// Recompute the sub-class counts from the parent's offset ranges.
	o1 := nc.Nline
	o2 := o1 + nc.Ndcline
	o3 := o2 + nc.Ntr
	o4 := o3 + nc.Nvsc
	for _, b := range brIdx {
		switch {
		case b < o1:
			isl.Nline++
		case b < o2:
			isl.Ndcline++
		case b < o3:
			isl.Ntr++
		case b < o4:
			isl.Nvsc++
		default:
			isl.Nupfc++
		}
	}
	return isl
}

func lenOr(idx []int, n int) int {
	if idx == nil {
		return n
	}
	return len(idx)
}
