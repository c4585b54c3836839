package grid

import "github.com/google/uuid"

// VSC is a voltage-source converter joining a DC bus (from) and an AC bus (to).
type VSC struct {
	ID     uuid.UUID
	Name   string
	Active bool

	BusFrom *Bus // DC side
	BusTo   *Bus // AC side

	R1, X1 float64
	R0, X0 float64
	R2, X2 float64

	G0sw float64 // switching losses conductance
	Beq  float64 // equalization susceptance
	M    float64 // modulation amplitude
	Mmin float64
	Mmax float64

	Theta    float64 // firing angle (rad)
	ThetaMin float64
	ThetaMax float64

	K   float64 // converter gain, sqrt(3)/2 by construction
	Kdp float64 // droop slope

	Alpha1, Alpha2, Alpha3 float64 // loss curve coefficients

	Control ConverterControl
	PdcSet  float64
	QacSet  float64
	VacSet  float64
	VdcSet  float64

	Rate              float64
	ContingencyFactor float64

	Cost float64

	MonitorLoading     bool
	ContingencyEnabled bool

	ActiveProf            []bool
	RateProf              []float64
	ContingencyFactorProf []float64
	CostProf              []float64
}

func NewVSC(name string, f, t *Bus, r1, x1, rate float64) *VSC {
	return &VSC{
		ID: uuid.New(), Name: name, Active: true,
		BusFrom: f, BusTo: t,
		R1: r1, X1: x1,
		M: 1.0, Mmin: 0.5, Mmax: 1.5,
		ThetaMin: -6.28, ThetaMax: 6.28,
		K:      0.8660254037844386,
		VacSet: 1.0, VdcSet: 1.0,
		Rate: rate, ContingencyFactor: 1.0,
		MonitorLoading: true, ContingencyEnabled: true,
	}
}

func (v *VSC) Copy() *VSC {
	nv := *v
	nv.ID = uuid.New()
	nv.ActiveProf = append([]bool(nil), v.ActiveProf...)
	nv.RateProf = append([]float64(nil), v.RateProf...)
	nv.ContingencyFactorProf = append([]float64(nil), v.ContingencyFactorProf...)
	nv.CostProf = append([]float64(nil), v.CostProf...)
	return &nv
}

// UPFC is a unified power flow controller: a series impedance (Rs, Xs) with a
// shunt branch (Rsh, Xsh) and a line-side filter (Rl, Xl, Bl).
type UPFC struct {
	ID     uuid.UUID
	Name   string
	Active bool

	BusFrom *Bus
	BusTo   *Bus

	Rl, Xl, Bl float64
	Rs, Xs     float64
	Rsh, Xsh   float64

	Rs0, Xs0 float64
	Rs2, Xs2 float64

	Pfset float64
	Qfset float64
	Vsh   float64

	Rate              float64
	ContingencyFactor float64

	Cost float64

	MonitorLoading     bool
	ContingencyEnabled bool

	ActiveProf            []bool
	RateProf              []float64
	ContingencyFactorProf []float64
	CostProf              []float64
}

func NewUPFC(name string, f, t *Bus, rs, xs, rate float64) *UPFC {
	return &UPFC{
		ID: uuid.New(), Name: name, Active: true,
		BusFrom: f, BusTo: t,
		Rs: rs, Xs: xs, Vsh: 1.0,
		Rate: rate, ContingencyFactor: 1.0,
		MonitorLoading: true, ContingencyEnabled: true,
	}
}

// ShuntAdmittance1 is the positive-sequence shunt admittance of the
// controller's shunt branch.
func (u *UPFC) ShuntAdmittance1() complex128 {
	d := u.Rsh*u.Rsh + u.Xsh*u.Xsh
	if d == 0 {
		return 0
	}
	return complex(u.Rsh/d, -u.Xsh/d)
}

func (u *UPFC) Copy() *UPFC {
	nu := *u
	nu.ID = uuid.New()
	nu.ActiveProf = append([]bool(nil), u.ActiveProf...)
	nu.RateProf = append([]float64(nil), u.RateProf...)
	nu.ContingencyFactorProf = append([]float64(nil), u.ContingencyFactorProf...)
	nu.CostProf = append([]float64(nil), u.CostProf...)
	return &nu
}

// HvdcLine is a controllable point-to-point DC link. Its terminals behave as
// voltage-controlled injections in AC analysis.
type HvdcLine struct {
	ID     uuid.UUID
	Name   string
	Active bool

	BusFrom *Bus
	BusTo   *Bus

	R float64

	Control      HvdcControl
	Pset         float64 // MW, scheduled power from -> to
	AngleDroop   float64 // MW/deg
	VsetF, VsetT float64 // p.u.

	QminF, QmaxF float64
	QminT, QmaxT float64

	Dispatchable bool

	Rate              float64
	ContingencyFactor float64

	ActiveProf            []bool
	RateProf              []float64
	ContingencyFactorProf []float64
	PsetProf              []float64
	AngleDroopProf        []float64
	VsetFProf, VsetTProf  []float64
}

func NewHvdcLine(name string, f, t *Bus, pset, rate float64) *HvdcLine {
	return &HvdcLine{
		ID: uuid.New(), Name: name, Active: true,
		BusFrom: f, BusTo: t,
		Pset: pset, VsetF: 1.0, VsetT: 1.0,
		QminF: -9999, QmaxF: 9999, QminT: -9999, QmaxT: 9999,
		Dispatchable: true,
		Rate:         rate, ContingencyFactor: 1.0,
	}
}

func (h *HvdcLine) Copy() *HvdcLine {
	nh := *h
	nh.ID = uuid.New()
	nh.ActiveProf = append([]bool(nil), h.ActiveProf...)
	nh.RateProf = append([]float64(nil), h.RateProf...)
	nh.ContingencyFactorProf = append([]float64(nil), h.ContingencyFactorProf...)
	nh.PsetProf = append([]float64(nil), h.PsetProf...)
	nh.AngleDroopProf = append([]float64(nil), h.AngleDroopProf...)
	nh.VsetFProf = append([]float64(nil), h.VsetFProf...)
	nh.VsetTProf = append([]float64(nil), h.VsetTProf...)
	return &nh
}
