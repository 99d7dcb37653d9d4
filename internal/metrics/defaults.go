package metrics

import (
	"github.com/san-kum/gearbox/internal/gearbox"
	"github.com/san-kum/gearbox/internal/sim"
)

// DefaultBand is the settling band, 2% of the setpoint.
const DefaultBand = 0.02 * gearbox.Setpoint

func Defaults() []sim.Metric {
	return []sim.Metric{
		NewControlEffort(),
		NewIAE(),
		NewOvershoot(),
		NewSettlingTime(DefaultBand),
		NewNonFinite(),
	}
}
