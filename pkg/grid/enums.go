package grid

// BusMode is the electrical role of a bus.
type BusMode int

const (
	PQ    BusMode = 1
	PV    BusMode = 2
	Slack BusMode = 3
)

func (m BusMode) String() string {
	switch m {
	case PQ:
		return "PQ"
	case PV:
		return "PV"
	case Slack:
		return "Slack"
	}
	return "?"
}

// BranchImpedanceMode selects how the branch resistance tolerance is applied.
type BranchImpedanceMode int

const (
	ImpedanceSpecified BranchImpedanceMode = iota
	ImpedanceLower                         // R * (1 - tolerance/100)
	ImpedanceUpper                         // R * (1 + tolerance/100)
)

// TransformerControl is the transformer regulation mode.
type TransformerControl int

const (
	TransformerFixed TransformerControl = iota
	TransformerV                        // voltage module at the regulated bus
	TransformerPt                       // active power flow
	TransformerPtQt
	TransformerPtV
	TransformerQt
)

// ConverterControl is the VSC control mode.
type ConverterControl int

const (
	ConverterFree ConverterControl = iota
	ConverterVac
	ConverterPdcQac
	ConverterPdcVac
	ConverterVdcQac
	ConverterVdcVac
	ConverterDroopQac
	ConverterDroopVac
	ConverterVdc
)

// HvdcControl is the HVDC link control mode.
type HvdcControl int

const (
	HvdcPset HvdcControl = iota
	HvdcAngleDroop
)
