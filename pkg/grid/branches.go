package grid

import "github.com/google/uuid"

// Line is an AC line between two buses. Impedances are p.u. over the system
// base; positive (R, X, B), zero (R0, X0, B0) and negative (R2, X2, B2)
// sequence values are carried.
type Line struct {
	ID     uuid.UUID
	Name   string
	Code   string
	Active bool

	BusFrom *Bus
	BusTo   *Bus

	R, X, B    float64
	R0, X0, B0 float64
	R2, X2, B2 float64

	Rate              float64 // MW
	ContingencyFactor float64
	Tolerance         float64 // impedance tolerance (%)

	// Temperature correction of the resistance.
	TempBase float64
	TempOper float64
	Alpha    float64

	Cost float64

	MonitorLoading     bool
	ContingencyEnabled bool

	ActiveProf            []bool
	RateProf              []float64
	ContingencyFactorProf []float64
	CostProf              []float64
}

func NewLine(name string, f, t *Bus, r, x, b, rate float64) *Line {
	return &Line{
		ID: uuid.New(), Name: name, Active: true,
		BusFrom: f, BusTo: t,
		R: r, X: x, B: b,
		Rate: rate, ContingencyFactor: 1.0,
		TempBase: 20, TempOper: 20, Alpha: 0.00330,
		MonitorLoading: true, ContingencyEnabled: true,
	}
}

// RCorrected is the resistance adjusted to the operating temperature.
func (l *Line) RCorrected() float64 {
	return l.R * (1.0 + l.Alpha*(l.TempOper-l.TempBase))
}

func (l *Line) Copy() *Line {
	nl := *l
	nl.ID = uuid.New()
	nl.ActiveProf = append([]bool(nil), l.ActiveProf...)
	nl.RateProf = append([]float64(nil), l.RateProf...)
	nl.ContingencyFactorProf = append([]float64(nil), l.ContingencyFactorProf...)
	nl.CostProf = append([]float64(nil), l.CostProf...)
	return &nl
}

// DcLine is a DC line: purely resistive, with the same temperature and
// tolerance corrections as an AC line.
type DcLine struct {
	ID     uuid.UUID
	Name   string
	Active bool

	BusFrom *Bus
	BusTo   *Bus

	R         float64
	Tolerance float64

	Rate              float64
	ContingencyFactor float64

	TempBase float64
	TempOper float64
	Alpha    float64

	Cost float64

	MonitorLoading     bool
	ContingencyEnabled bool

	ActiveProf            []bool
	RateProf              []float64
	ContingencyFactorProf []float64
	CostProf              []float64
}

func NewDcLine(name string, f, t *Bus, r, rate float64) *DcLine {
	return &DcLine{
		ID: uuid.New(), Name: name, Active: true,
		BusFrom: f, BusTo: t, R: r,
		Rate: rate, ContingencyFactor: 1.0,
		TempBase: 20, TempOper: 20, Alpha: 0.00330,
		MonitorLoading: true, ContingencyEnabled: true,
	}
}

func (l *DcLine) RCorrected() float64 {
	return l.R * (1.0 + l.Alpha*(l.TempOper-l.TempBase))
}

func (l *DcLine) Copy() *DcLine {
	nl := *l
	nl.ID = uuid.New()
	nl.ActiveProf = append([]bool(nil), l.ActiveProf...)
	nl.RateProf = append([]float64(nil), l.RateProf...)
	nl.ContingencyFactorProf = append([]float64(nil), l.ContingencyFactorProf...)
	nl.CostProf = append([]float64(nil), l.CostProf...)
	return &nl
}

// Transformer2W is a two-winding transformer with a tap changer.
type Transformer2W struct {
	ID     uuid.UUID
	Name   string
	Code   string
	Active bool

	BusFrom *Bus
	BusTo   *Bus

	HV, LV float64 // winding nominal voltages (kV)

	R, X, G, B     float64
	R0, X0, G0, B0 float64
	R2, X2, G2, B2 float64

	TapModule    float64
	TapAngle     float64 // rad
	TapModuleMin float64
	TapModuleMax float64
	AngleMin     float64
	AngleMax     float64

	Control        TransformerControl
	Vset           float64
	Pset           float64
	BusToRegulated bool

	Rate              float64
	ContingencyFactor float64

	Cost float64

	MonitorLoading     bool
	ContingencyEnabled bool

	ActiveProf            []bool
	RateProf              []float64
	ContingencyFactorProf []float64
	TapModuleProf         []float64
	TapAngleProf          []float64
	CostProf              []float64
}

func NewTransformer2W(name string, f, t *Bus, r, x, rate float64) *Transformer2W {
	return &Transformer2W{
		ID: uuid.New(), Name: name, Active: true,
		BusFrom: f, BusTo: t,
		HV: f.Vnom, LV: t.Vnom,
		R: r, X: x,
		TapModule: 1.0, TapModuleMin: 0.5, TapModuleMax: 1.5,
		AngleMin: -0.5, AngleMax: 0.5,
		Vset: 1.0,
		Rate: rate, ContingencyFactor: 1.0,
		MonitorLoading: true, ContingencyEnabled: true,
	}
}

// VirtualTaps compensates connection voltages that are off the winding
// nominals: tap_f = HV/Vnom(from), tap_t = LV/Vnom(to).
func (t *Transformer2W) VirtualTaps() (tapF, tapT float64) {
	tapF, tapT = 1.0, 1.0
	if t.BusFrom != nil && t.BusFrom.Vnom > 0 && t.HV > 0 {
		tapF = t.HV / t.BusFrom.Vnom
	}
	if t.BusTo != nil && t.BusTo.Vnom > 0 && t.LV > 0 {
		tapT = t.LV / t.BusTo.Vnom
	}
	return tapF, tapT
}

func (t *Transformer2W) Copy() *Transformer2W {
	nt := *t
	nt.ID = uuid.New()
	nt.ActiveProf = append([]bool(nil), t.ActiveProf...)
	nt.RateProf = append([]float64(nil), t.RateProf...)
	nt.ContingencyFactorProf = append([]float64(nil), t.ContingencyFactorProf...)
	nt.TapModuleProf = append([]float64(nil), t.TapModuleProf...)
	nt.TapAngleProf = append([]float64(nil), t.TapAngleProf...)
	nt.CostProf = append([]float64(nil), t.CostProf...)
	return &nt
}
