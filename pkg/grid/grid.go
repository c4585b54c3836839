// Package grid is the editable network model: buses and the devices attached
// to them. It is the input of the numerical circuit compiler; nothing in this
// package knows about indices, arrays or matrices.
package grid

import "github.com/google/uuid"

type Grid struct {
	Name  string
	Sbase float64 // MVA

	Buses []*Bus

	Loads            []*Load
	StaticGenerators []*StaticGenerator
	Shunts           []*Shunt
	Generators       []*Generator
	Batteries        []*Battery

	Lines        []*Line
	DcLines      []*DcLine
	Transformers []*Transformer2W
	VSCs         []*VSC
	UPFCs        []*UPFC
	HvdcLines    []*HvdcLine

	ContingencyGroups []*ContingencyGroup
	Contingencies     []*Contingency
}

func New(name string) *Grid {
	return &Grid{Name: name, Sbase: 100.0}
}

func (g *Grid) AddBus(b *Bus) *Bus {
	g.Buses = append(g.Buses, b)
	return b
}

func (g *Grid) AddLoad(l *Load) *Load {
	g.Loads = append(g.Loads, l)
	return l
}

func (g *Grid) AddStaticGenerator(s *StaticGenerator) *StaticGenerator {
	g.StaticGenerators = append(g.StaticGenerators, s)
	return s
}

func (g *Grid) AddShunt(s *Shunt) *Shunt {
	g.Shunts = append(g.Shunts, s)
	return s
}

func (g *Grid) AddGenerator(gen *Generator) *Generator {
	g.Generators = append(g.Generators, gen)
	return gen
}

func (g *Grid) AddBattery(b *Battery) *Battery {
	g.Batteries = append(g.Batteries, b)
	return b
}

func (g *Grid) AddLine(l *Line) *Line {
	g.Lines = append(g.Lines, l)
	return l
}

func (g *Grid) AddDcLine(l *DcLine) *DcLine {
	g.DcLines = append(g.DcLines, l)
	return l
}

func (g *Grid) AddTransformer(t *Transformer2W) *Transformer2W {
	g.Transformers = append(g.Transformers, t)
	return t
}

func (g *Grid) AddVSC(v *VSC) *VSC {
	g.VSCs = append(g.VSCs, v)
	return v
}

func (g *Grid) AddUPFC(u *UPFC) *UPFC {
	g.UPFCs = append(g.UPFCs, u)
	return u
}

func (g *Grid) AddHvdcLine(h *HvdcLine) *HvdcLine {
	g.HvdcLines = append(g.HvdcLines, h)
	return h
}

func (g *Grid) AddContingencyGroup(cg *ContingencyGroup) *ContingencyGroup {
	g.ContingencyGroups = append(g.ContingencyGroups, cg)
	return cg
}

func (g *Grid) AddContingency(c *Contingency) *Contingency {
	g.Contingencies = append(g.Contingencies, c)
	return c
}

// BusIndex maps every bus to its 0-based position in the registry ordering.
// This ordering is the one every compiled array follows.
func (g *Grid) BusIndex() map[*Bus]int {
	m := make(map[*Bus]int, len(g.Buses))
	for i, b := range g.Buses {
		m[b] = i
	}
	return m
}

// BranchIDs returns the device IDs of every branch in the unified compiled
// ordering: lines, DC lines, transformers, VSCs, UPFCs.
func (g *Grid) BranchIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0,
		len(g.Lines)+len(g.DcLines)+len(g.Transformers)+len(g.VSCs)+len(g.UPFCs))
	for _, e := range g.Lines {
		ids = append(ids, e.ID)
	}
	for _, e := range g.DcLines {
		ids = append(ids, e.ID)
	}
	for _, e := range g.Transformers {
		ids = append(ids, e.ID)
	}
	for _, e := range g.VSCs {
		ids = append(ids, e.ID)
	}
	for _, e := range g.UPFCs {
		ids = append(ids, e.ID)
	}
	return ids
}

// ContingencyGroupBranches resolves each contingency group into the sorted,
// de-duplicated unified branch indices of its members.
func (g *Grid) ContingencyGroupBranches() map[*ContingencyGroup][]int {
	idx := make(map[uuid.UUID]int)
	for i, id := range g.BranchIDs() {
		idx[id] = i
	}

	out := make(map[*ContingencyGroup][]int, len(g.ContingencyGroups))
	for _, cg := range g.ContingencyGroups {
		out[cg] = nil
	}
	for _, c := range g.Contingencies {
		if i, ok := idx[c.DeviceID]; ok {
			out[c.Group] = appendUnique(out[c.Group], i)
		}
	}
	return out
}

func appendUnique(s []int, v int) []int {
	pos := len(s)
	for i, x := range s {
		if x == v {
			return s
		}
		if x > v {
			pos = i
			break
		}
	}
	s = append(s, 0)
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}
