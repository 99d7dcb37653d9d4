package sim

// Measurement is one recorded frequency reading.
type Measurement struct {
	Time  float64
	Value float64
}

type ReplayOptions struct {
	FirstDt float64
	// AllowDegenerate feeds non-positive elapsed times through to the
	// controller instead of rejecting the trace.
	AllowDegenerate bool
	Events          []Event
}

func (o ReplayOptions) elapsed(trace []Measurement) []float64 {
	dts := make([]float64, len(trace))
	for i := 1; i < len(trace); i++ {
		dts[i] = trace[i].Time - trace[i-1].Time
	}
	switch {
	case o.FirstDt != 0:
		dts[0] = o.FirstDt
	case len(trace) > 1:
		dts[0] = dts[1]
	}
	return dts
}
