package metrics

import (
	"math"

	"github.com/san-kum/gearbox/internal/gearbox"
	"github.com/san-kum/gearbox/internal/sim"
)

// IAE is the integral of absolute tracking error.
type IAE struct {
	sum float64
}

func NewIAE() *IAE { return &IAE{} }

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(s sim.Sample) {
	m.sum += math.Abs(s.Error) * s.Dt
}

func (m *IAE) Value() float64 { return m.sum }
func (m *IAE) Reset()         { m.sum = 0 }

// Overshoot is the largest excursion of the measured value above the
// setpoint, zero if it never went above.
type Overshoot struct {
	peak float64
}

func NewOvershoot() *Overshoot { return &Overshoot{} }

func (m *Overshoot) Name() string { return "overshoot" }

func (m *Overshoot) Observe(s sim.Sample) {
	if d := s.Measured - gearbox.Setpoint; d > m.peak {
		m.peak = d
	}
}

func (m *Overshoot) Value() float64 { return m.peak }
func (m *Overshoot) Reset()         { m.peak = 0 }

// SettlingTime is the time of the first sample after which every error
// stays within the band. It is -1 while the run ends outside the band.
type SettlingTime struct {
	band      float64
	settled   bool
	settledAt float64
}

func NewSettlingTime(band float64) *SettlingTime {
	return &SettlingTime{band: band}
}

func (m *SettlingTime) Name() string { return "settling_time" }

func (m *SettlingTime) Observe(s sim.Sample) {
	if !(math.Abs(s.Error) <= m.band) {
		m.settled = false
		return
	}
	if !m.settled {
		m.settled = true
		m.settledAt = s.Time
	}
}

func (m *SettlingTime) Value() float64 {
	if !m.settled {
		return -1
	}
	return m.settledAt
}

func (m *SettlingTime) Reset() {
	m.settled = false
	m.settledAt = 0
}

// NonFinite counts ticks whose output was NaN or Inf.
type NonFinite struct {
	count int
}

func NewNonFinite() *NonFinite { return &NonFinite{} }

func (m *NonFinite) Name() string { return "non_finite" }

func (m *NonFinite) Observe(s sim.Sample) {
	if !finite(s.Output) {
		m.count++
	}
}

func (m *NonFinite) Value() float64 { return float64(m.count) }
func (m *NonFinite) Reset()         { m.count = 0 }
