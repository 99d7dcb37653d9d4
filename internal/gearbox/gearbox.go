package gearbox

const (
	// Setpoint is the frequency the controller drives its input toward.
	Setpoint = 15.0

	// OverrideKey is the only key EngageOverride accepts.
	OverrideKey = "OPHANE-X7"
)

// Gains holds the tuning constants of a Controller.
type Gains struct {
	Kp float64
	Ki float64
	Kd float64
}

// Controller is a PID controller with a fixed Setpoint.
type Controller struct {
	gains     Gains
	integral  float64
	prevError float64
	mode      Mode
}

// New returns a controller with zeroed accumulators in Normal mode. Gains
// are not validated; zero and negative values are legal.
func New(kp, ki, kd float64) *Controller {
	return &Controller{
		gains: Gains{Kp: kp, Ki: ki, Kd: kd},
		mode:  Normal,
	}
}

// Tick consumes one sample and returns the corrective output. It updates
// the accumulators on every call regardless of mode. A zero dt yields a
// non-finite output.
func (c *Controller) Tick(dt, measured float64) float64 {
	err := Setpoint - measured

	c.integral += err * dt
	derivative := (err - c.prevError) / dt
	c.prevError = err

	return c.gains.Kp*err + c.gains.Ki*c.integral + c.gains.Kd*derivative
}

// Reset clears the accumulators and returns to Normal mode. Gains are kept.
func (c *Controller) Reset() {
	c.integral = 0
	c.prevError = 0
	c.mode = Normal
}

// EngageOverride switches to Sovereign when key matches OverrideKey and to
// AccessDenied otherwise. The current mode is not consulted.
func (c *Controller) EngageOverride(key string) {
	if key == OverrideKey {
		c.mode = Sovereign
	} else {
		c.mode = AccessDenied
	}
}

// Status returns the display label of the current mode.
func (c *Controller) Status() string {
	return c.mode.String()
}

func (c *Controller) Mode() Mode         { return c.mode }
func (c *Controller) Gains() Gains       { return c.gains }
func (c *Controller) Integral() float64  { return c.integral }
func (c *Controller) PrevError() float64 { return c.prevError }
