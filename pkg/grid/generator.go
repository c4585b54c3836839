package grid

import (
	"math"

	"github.com/google/uuid"
)

// QCurvePoint is one sample of a generator reactive capability curve:
// the reactive limits that apply at active power P.
type QCurvePoint struct {
	P    float64
	Qmin float64
	Qmax float64
}

// MakeDefaultQCurve samples the circular capability region of a machine with
// nominal power Snom and hard reactive limits [Qmin, Qmax] at n points
// (n >= 3). The first point is at P=0 with the full limits; the rest follow
// the natural curve Q = sqrt(Snom^2 - P^2) clipped to the limits.
func MakeDefaultQCurve(Snom, Qmin, Qmax float64, n int) []QCurvePoint {
	if n < 3 {
		n = 3
	}
	pts := make([]QCurvePoint, n)
	s2 := Snom * Snom

	qmax2 := math.Min(Qmax, Snom)
	qmin2 := math.Max(Qmin, -Snom)

	// Intersections of the reactive limits with the natural curve; sampling
	// starts at the lower of the two.
	p0max := math.Sqrt(s2 - qmax2*qmax2)
	p0min := math.Sqrt(s2 - qmin2*qmin2)
	p0 := math.Min(p0max, p0min)

	pts[0] = QCurvePoint{P: 0, Qmin: qmin2, Qmax: qmax2}
	for i := 1; i < n; i++ {
		p := p0 + (Snom-p0)*float64(i-1)/float64(n-2)
		q := math.Sqrt(math.Max(s2-p*p, 0))

		qmin := math.Max(-q, qmin2)
		qmax := math.Min(q, qmax2)
		if qmax < qmin {
			qmax = qmin
		}
		pts[i] = QCurvePoint{P: p, Qmin: qmin, Qmax: qmax}
	}
	return pts
}

// QLimitsAt interpolates the reactive limits of a capability curve at active
// power p. Outside the sampled range the end values hold.
func QLimitsAt(points []QCurvePoint, p float64) (qmin, qmax float64) {
	n := len(points)
	if n == 0 {
		return 0, 0
	}
	if p <= points[0].P {
		return points[0].Qmin, points[0].Qmax
	}
	if p >= points[n-1].P {
		return points[n-1].Qmin, points[n-1].Qmax
	}
	for i := 1; i < n; i++ {
		if p <= points[i].P {
			a, b := points[i-1], points[i]
			f := (p - a.P) / (b.P - a.P)
			return a.Qmin + f*(b.Qmin-a.Qmin), a.Qmax + f*(b.Qmax-a.Qmax)
		}
	}
	return points[n-1].Qmin, points[n-1].Qmax
}

// Generator is a dispatchable machine. When IsControlled it regulates the
// voltage of its bus to Vset, otherwise it injects P with power factor Pf.
type Generator struct {
	ID     uuid.UUID
	Name   string
	Bus    *Bus
	Active bool

	P            float64 // MW
	Pf           float64 // power factor
	Vset         float64 // p.u.
	IsControlled bool

	Snom       float64
	Qmin, Qmax float64
	QCurve     []QCurvePoint

	// Sequence impedances
	R0, R1, R2 float64
	X0, X1, X2 float64

	// Dispatch data for the OPF variant
	Pmin, Pmax      float64
	Cost            float64
	EnabledDispatch bool

	ActiveProf []bool
	PProf      []float64
	PfProf     []float64
	VsetProf   []float64
	CostProf   []float64
}

func NewGenerator(name string, bus *Bus, p, vset float64) *Generator {
	g := &Generator{
		ID:              uuid.New(),
		Name:            name,
		Bus:             bus,
		Active:          true,
		P:               p,
		Pf:              0.8,
		Vset:            vset,
		IsControlled:    true,
		Snom:            9999.0,
		Qmin:            -9999.0,
		Qmax:            9999.0,
		Pmax:            9999.0,
		EnabledDispatch: true,
		X1:              1e-20,
	}
	g.QCurve = MakeDefaultQCurve(g.Snom, g.Qmin, g.Qmax, 3)
	return g
}

// QLimits returns the reactive limits in force at active power p, using the
// capability curve when one is present.
func (g *Generator) QLimits(p float64) (float64, float64) {
	if len(g.QCurve) > 0 {
		return QLimitsAt(g.QCurve, p)
	}
	return g.Qmin, g.Qmax
}

func (g *Generator) Copy() *Generator {
	ng := *g
	ng.ID = uuid.New()
	ng.QCurve = append([]QCurvePoint(nil), g.QCurve...)
	ng.ActiveProf = append([]bool(nil), g.ActiveProf...)
	ng.PProf = append([]float64(nil), g.PProf...)
	ng.PfProf = append([]float64(nil), g.PfProf...)
	ng.VsetProf = append([]float64(nil), g.VsetProf...)
	ng.CostProf = append([]float64(nil), g.CostProf...)
	return &ng
}

// Battery is a generator with an energy store.
type Battery struct {
	Generator

	Enom                float64 // nominal energy (MWh)
	MinSoc, MaxSoc      float64
	Soc0                float64
	ChargeEfficiency    float64
	DischargeEfficiency float64
}

func NewBattery(name string, bus *Bus, p, vset float64) *Battery {
	b := &Battery{
		Generator:           *NewGenerator(name, bus, p, vset),
		Enom:                9999.0,
		MinSoc:              0.2,
		MaxSoc:              1.0,
		Soc0:                0.5,
		ChargeEfficiency:    0.9,
		DischargeEfficiency: 0.9,
	}
	return b
}

func (b *Battery) Copy() *Battery {
	nb := *b
	nb.Generator = *b.Generator.Copy()
	return &nb
}
