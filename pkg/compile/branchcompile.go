package compile

import (
	"github.com/ramferan/GridCal/pkg/grid"
)

// toleranceR applies the branch impedance tolerance mode to a resistance.
func toleranceR(mode grid.BranchImpedanceMode, r, tolPct float64) float64 {
	switch mode {
	case grid.ImpedanceLower:
		return r * (1.0 - tolPct/100.0)
	case grid.ImpedanceUpper:
		return r * (1.0 + tolPct/100.0)
	}
	return r
}

// getBranchData fills the unified branch container in the fixed concatenation
// order: lines, DC lines, transformers, VSCs, UPFCs. The offsets of each
// sub-class are implied by the registry counts.
func getBranchData(g *grid.Grid, busIdx map[*grid.Bus]int, opt Options, propose func(int, float64)) (*BranchData, error) {
	ntime := 1
	if opt.TimeSeries {
		ntime = max(opt.NTime, 1)
	}
	nbr := len(g.Lines) + len(g.DcLines) + len(g.Transformers) + len(g.VSCs) + len(g.UPFCs)
	d := NewBranchData(nbr, len(g.Buses), ntime)

	setCommon := func(k int, name, code string, f, t int,
		active []bool, activeScalar bool,
		rateProf []float64, rate float64,
		cfProf []float64, cf float64,
		costProf []float64, cost float64,
		monitor, contingency bool) {

		d.Names[k] = name
		d.Codes[k] = code
		d.F[k] = f
		d.T[k] = t
		d.MonitorLoading[k] = monitor
		d.ContingencyEnabled[k] = contingency
		for t2 := 0; t2 < ntime; t2++ {
			d.Active[k][t2] = profBool(opt, active, t2, activeScalar)
			r := profFloat(opt, rateProf, t2, rate)
			d.Rates[k][t2] = r
			d.ContingencyRates[k][t2] = r * profFloat(opt, cfProf, t2, cf)
			if opt.OPF {
				d.Cost[k][t2] = profFloat(opt, costProf, t2, cost)
			}
		}
		d.Cf.Set(k, f, 1)
		d.Ct.Set(k, t, 1)
	}

	k := 0
	for _, elm := range g.Lines {
		f, err := lookupBus(busIdx, elm.BusFrom, elm.Name)
		if err != nil {
			return nil, err
		}
		t, err := lookupBus(busIdx, elm.BusTo, elm.Name)
		if err != nil {
			return nil, err
		}
		setCommon(k, elm.Name, elm.Code, f, t,
			elm.ActiveProf, elm.Active,
			elm.RateProf, elm.Rate,
			elm.ContingencyFactorProf, elm.ContingencyFactor,
			elm.CostProf, elm.Cost,
			elm.MonitorLoading, elm.ContingencyEnabled)

		r := elm.R
		if opt.ApplyTemperature {
			r = elm.RCorrected()
		}
		d.R[k] = toleranceR(opt.BranchToleranceMode, r, elm.Tolerance)
		d.X[k] = elm.X
		d.B[k] = elm.B
		d.R0[k], d.X0[k], d.B0[k] = elm.R0, elm.X0, elm.B0
		d.R2[k], d.X2[k], d.B2[k] = elm.R2, elm.X2, elm.B2
		k++
	}

	for _, elm := range g.DcLines {
		f, err := lookupBus(busIdx, elm.BusFrom, elm.Name)
		if err != nil {
			return nil, err
		}
		t, err := lookupBus(busIdx, elm.BusTo, elm.Name)
		if err != nil {
			return nil, err
		}
		setCommon(k, elm.Name, "", f, t,
			elm.ActiveProf, elm.Active,
			elm.RateProf, elm.Rate,
			elm.ContingencyFactorProf, elm.ContingencyFactor,
			elm.CostProf, elm.Cost,
			elm.MonitorLoading, elm.ContingencyEnabled)

		r := elm.R
		if opt.ApplyTemperature {
			r = elm.RCorrected()
		}
		d.R[k] = toleranceR(opt.BranchToleranceMode, r, elm.Tolerance)
		d.DC[k] = true
		k++
	}

	for j, elm := range g.Transformers {
		f, err := lookupBus(busIdx, elm.BusFrom, elm.Name)
		if err != nil {
			return nil, err
		}
		t, err := lookupBus(busIdx, elm.BusTo, elm.Name)
		if err != nil {
			return nil, err
		}
		setCommon(k, elm.Name, elm.Code, f, t,
			elm.ActiveProf, elm.Active,
			elm.RateProf, elm.Rate,
			elm.ContingencyFactorProf, elm.ContingencyFactor,
			elm.CostProf, elm.Cost,
			elm.MonitorLoading, elm.ContingencyEnabled)

		d.R[k], d.X[k], d.G[k], d.B[k] = elm.R, elm.X, elm.G, elm.B
		d.R0[k], d.X0[k], d.G0[k], d.B0[k] = elm.R0, elm.X0, elm.G0, elm.B0
		d.R2[k], d.X2[k], d.G2[k], d.B2[k] = elm.R2, elm.X2, elm.G2, elm.B2

		d.TapModule[k] = profFloat(opt, elm.TapModuleProf, 0, elm.TapModule)
		d.TapAngle[k] = profFloat(opt, elm.TapAngleProf, 0, elm.TapAngle)
		d.TapModuleMin[k] = elm.TapModuleMin
		d.TapModuleMax[k] = elm.TapModuleMax
		d.TapAngleMin[k] = elm.AngleMin
		d.TapAngleMax[k] = elm.AngleMax
		d.VirtualTapF[k], d.VirtualTapT[k] = elm.VirtualTaps()

		d.Control[k] = int(elm.Control)
		d.Vset[k] = elm.Vset
		d.PfSet[k] = elm.Pset

		if opt.OPFResults != nil {
			if a, ok := opfAt(opt.OPFResults.PhaseShift, j, 0); ok {
				d.TapAngle[k] = a
			}
		}

		if elm.Active && (elm.Control == grid.TransformerV || elm.Control == grid.TransformerPtV) {
			reg := f
			if elm.BusToRegulated {
				reg = t
			}
			propose(reg, elm.Vset)
		}
		k++
	}

	for _, elm := range g.VSCs {
		f, err := lookupBus(busIdx, elm.BusFrom, elm.Name)
		if err != nil {
			return nil, err
		}
		t, err := lookupBus(busIdx, elm.BusTo, elm.Name)
		if err != nil {
			return nil, err
		}
		setCommon(k, elm.Name, "", f, t,
			elm.ActiveProf, elm.Active,
			elm.RateProf, elm.Rate,
			elm.ContingencyFactorProf, elm.ContingencyFactor,
			elm.CostProf, elm.Cost,
			elm.MonitorLoading, elm.ContingencyEnabled)

		d.R[k], d.X[k] = elm.R1, elm.X1
		d.R0[k], d.X0[k] = elm.R0, elm.X0
		d.R2[k], d.X2[k] = elm.R2, elm.X2

		d.G0sw[k] = elm.G0sw
		d.Beq[k] = elm.Beq
		d.TapModule[k] = elm.M
		d.TapModuleMin[k] = elm.Mmin
		d.TapModuleMax[k] = elm.Mmax
		d.TapAngle[k] = elm.Theta
		d.TapAngleMin[k] = elm.ThetaMin
		d.TapAngleMax[k] = elm.ThetaMax
		d.K[k] = elm.K
		d.Kdp[k] = elm.Kdp
		d.Alpha1[k], d.Alpha2[k], d.Alpha3[k] = elm.Alpha1, elm.Alpha2, elm.Alpha3

		d.Control[k] = int(elm.Control)
		d.PfSet[k] = elm.PdcSet
		d.QtSet[k] = elm.QacSet
		d.VfSet[k] = elm.VdcSet
		d.VtSet[k] = elm.VacSet

		if elm.Active {
			switch elm.Control {
			case grid.ConverterVac, grid.ConverterPdcVac, grid.ConverterDroopVac:
				propose(t, elm.VacSet)
			case grid.ConverterVdc, grid.ConverterVdcQac:
				propose(f, elm.VdcSet)
			case grid.ConverterVdcVac:
				propose(f, elm.VdcSet)
				propose(t, elm.VacSet)
			}
		}
		k++
	}

	for _, elm := range g.UPFCs {
		f, err := lookupBus(busIdx, elm.BusFrom, elm.Name)
		if err != nil {
			return nil, err
		}
		t, err := lookupBus(busIdx, elm.BusTo, elm.Name)
		if err != nil {
			return nil, err
		}
		setCommon(k, elm.Name, "", f, t,
			elm.ActiveProf, elm.Active,
			elm.RateProf, elm.Rate,
			elm.ContingencyFactorProf, elm.ContingencyFactor,
			elm.CostProf, elm.Cost,
			elm.MonitorLoading, elm.ContingencyEnabled)

		// Series path is the controller impedance plus the line segment; the
		// shunt branch folds into the converter shunt terms.
		d.R[k] = elm.Rs + elm.Rl
		d.X[k] = elm.Xs + elm.Xl
		d.B[k] = elm.Bl
		d.R0[k], d.X0[k] = elm.Rs0, elm.Xs0
		d.R2[k], d.X2[k] = elm.Rs2, elm.Xs2

		ysh := elm.ShuntAdmittance1()
		d.G0sw[k] = real(ysh)
		d.Beq[k] = imag(ysh)

		d.PfSet[k] = elm.Pfset
		d.QtSet[k] = elm.Qfset
		d.Vset[k] = elm.Vsh
		k++
	}

	return d, nil
}
