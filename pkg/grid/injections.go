package grid

import (
	"math"
	"math/cmplx"

	"github.com/google/uuid"
)

func polar(mag, ang float64) complex128 {
	return cmplx.Rect(mag, ang)
}

// Load is a composite ZIP load: constant power (P, Q in MW/MVAr), constant
// current (Ir, Ii in equivalent MW/MVAr at V=1) and constant impedance
// (G, B in equivalent MW/MVAr at V=1).
type Load struct {
	ID     uuid.UUID
	Name   string
	Bus    *Bus
	Active bool

	P, Q   float64
	Ir, Ii float64
	G, B   float64

	Cost float64 // shedding cost for the OPF variant

	ActiveProf     []bool
	PProf, QProf   []float64
	IrProf, IiProf []float64
	GProf, BProf   []float64
	CostProf       []float64
}

func NewLoad(name string, bus *Bus, p, q float64) *Load {
	return &Load{ID: uuid.New(), Name: name, Bus: bus, Active: true, P: p, Q: q}
}

func (l *Load) Copy() *Load {
	nl := *l
	nl.ID = uuid.New()
	nl.ActiveProf = append([]bool(nil), l.ActiveProf...)
	nl.PProf = append([]float64(nil), l.PProf...)
	nl.QProf = append([]float64(nil), l.QProf...)
	nl.IrProf = append([]float64(nil), l.IrProf...)
	nl.IiProf = append([]float64(nil), l.IiProf...)
	nl.GProf = append([]float64(nil), l.GProf...)
	nl.BProf = append([]float64(nil), l.BProf...)
	nl.CostProf = append([]float64(nil), l.CostProf...)
	return &nl
}

// StaticGenerator is a fixed complex power injection with no voltage control.
type StaticGenerator struct {
	ID     uuid.UUID
	Name   string
	Bus    *Bus
	Active bool

	P, Q float64

	ActiveProf   []bool
	PProf, QProf []float64
}

func NewStaticGenerator(name string, bus *Bus, p, q float64) *StaticGenerator {
	return &StaticGenerator{ID: uuid.New(), Name: name, Bus: bus, Active: true, P: p, Q: q}
}

func (s *StaticGenerator) Copy() *StaticGenerator {
	ns := *s
	ns.ID = uuid.New()
	ns.ActiveProf = append([]bool(nil), s.ActiveProf...)
	ns.PProf = append([]float64(nil), s.PProf...)
	ns.QProf = append([]float64(nil), s.QProf...)
	return &ns
}

// Shunt is a fixed or controlled admittance to ground (G, B in MVAr at V=1).
type Shunt struct {
	ID     uuid.UUID
	Name   string
	Bus    *Bus
	Active bool

	G, B float64

	IsControlled bool
	Vset         float64
	Bmin, Bmax   float64

	ActiveProf   []bool
	GProf, BProf []float64
}

func NewShunt(name string, bus *Bus, g, b float64) *Shunt {
	return &Shunt{ID: uuid.New(), Name: name, Bus: bus, Active: true, G: g, B: b, Vset: 1.0}
}

func (s *Shunt) Copy() *Shunt {
	ns := *s
	ns.ID = uuid.New()
	ns.ActiveProf = append([]bool(nil), s.ActiveProf...)
	ns.GProf = append([]float64(nil), s.GProf...)
	ns.BProf = append([]float64(nil), s.BProf...)
	return &ns
}

// QFromPowerFactor converts an active power and power factor into the
// matching reactive power, keeping the sign of P.
func QFromPowerFactor(p, pf float64) float64 {
	if pf == 0 {
		return 0
	}
	pf2 := pf * pf
	return p * math.Sqrt((1.0-pf2)/pf2)
}
