package grid

import (
	"math"

	"github.com/google/uuid"
)

// Bus is an electrical node. Devices attach to buses; the compiler maps each
// bus to a 0-based index following the registry's bus ordering.
type Bus struct {
	ID     uuid.UUID
	Name   string
	Active bool
	Area   int

	IsSlack bool

	Vnom     float64 // nominal voltage (kV)
	Vmin     float64 // p.u.
	Vmax     float64 // p.u.
	AngleMin float64 // rad
	AngleMax float64 // rad

	// Stored voltage guess, used when compiling with UseStoredGuess.
	Vm0 float64
	Va0 float64

	ActiveProf []bool
}

func NewBus(name string) *Bus {
	return &Bus{
		ID:       uuid.New(),
		Name:     name,
		Active:   true,
		Vnom:     10.0,
		Vmin:     0.9,
		Vmax:     1.1,
		AngleMin: -math.Pi,
		AngleMax: math.Pi,
		Vm0:      1.0,
		Va0:      0.0,
	}
}

// VoltageGuess returns the complex seed voltage for power-flow style solves.
// Without a stored guess the flat start 1+0j is used; the compiler later
// overwrites it from device set points.
func (b *Bus) VoltageGuess(useStored bool) complex128 {
	if useStored {
		return polar(b.Vm0, b.Va0)
	}
	return complex(1, 0)
}

// Mode returns the tentative bus type from the bus configuration alone.
// Whether the bus is promoted to PV depends on the attached devices and is
// decided during compilation.
func (b *Bus) Mode() BusMode {
	if b.IsSlack {
		return Slack
	}
	return PQ
}

func (b *Bus) ActiveAt(t int) bool {
	if t < len(b.ActiveProf) {
		return b.ActiveProf[t]
	}
	return b.Active
}

// Copy returns a field-by-field copy with a fresh identity.
func (b *Bus) Copy() *Bus {
	nb := *b
	nb.ID = uuid.New()
	nb.ActiveProf = append([]bool(nil), b.ActiveProf...)
	return &nb
}
