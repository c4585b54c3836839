package topology

import (
	"sort"

	"github.com/ramferan/GridCal/pkg/grid"
	"github.com/ramferan/GridCal/pkg/plog"
)

// BusTypes is the ref/pq/pv partition required before any power-flow style
// equation can be formed. Pqpv is the ascending merge of Pq and Pv, the
// reduced-system ordering.
type BusTypes struct {
	Ref  []int
	Pq   []int
	Pv   []int
	Pqpv []int
}

// CompileTypes partitions the bus indices by their tentative type and repairs
// the no-slack configuration: when there is no slack but there are PV buses,
// the PV bus with the largest positive injection is promoted (the first PV
// bus when every PV injection is non-positive). Multiple slack buses are left
// as they are. A network with neither slack nor PV candidates cannot be
// repaired; it is logged and returned all-PQ.
//
// types is mutated: the promoted bus is rewritten to Slack.
func CompileTypes(Sbus []complex128, types []grid.BusMode, log *plog.Logger) BusTypes {
	var bt BusTypes
	for i, tp := range types {
		switch tp {
		case grid.PQ:
			bt.Pq = append(bt.Pq, i)
		case grid.PV:
			bt.Pv = append(bt.Pv, i)
		case grid.Slack:
			bt.Ref = append(bt.Ref, i)
		}
	}

	if len(bt.Ref) == 0 {
		if len(bt.Pv) == 0 {
			// Blackout grid: no reference is possible.
			if log != nil {
				log.AddWarning("No slack and no PV candidates", "grid", len(types), ">= 1 slack")
			}
		} else {
			sel := bt.Pv[0]
			mx := real(Sbus[sel])
			for _, i := range bt.Pv[1:] {
				if real(Sbus[i]) > mx {
					mx = real(Sbus[i])
					sel = i
				}
			}
			if mx <= 0 {
				// Nothing is injecting; fall back to the first PV bus.
				sel = bt.Pv[0]
			}

			types[sel] = grid.Slack
			bt.Ref = []int{sel}
			pv := bt.Pv[:0]
			for _, i := range bt.Pv {
				if i != sel {
					pv = append(pv, i)
				}
			}
			bt.Pv = pv
		}
	}

	bt.Pqpv = append(append([]int{}, bt.Pq...), bt.Pv...)
	sort.Ints(bt.Pqpv)
	return bt
}
