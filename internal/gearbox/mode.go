package gearbox

import "fmt"

// Mode is the advisory operational state of a Controller.
type Mode int

const (
	Normal Mode = iota
	Sovereign
	AccessDenied
)

// Display labels returned by Controller.Status.
const (
	NormalLabel       = "⚙️ NORMAL"
	SovereignLabel    = "⚙️ SOVEREIGN"
	AccessDeniedLabel = "🚫 ACCESS DENIED"
)

// String returns the display label.
func (m Mode) String() string {
	switch m {
	case Normal:
		return NormalLabel
	case Sovereign:
		return SovereignLabel
	case AccessDenied:
		return AccessDeniedLabel
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Name returns a stable machine name, used in stored runs and configs.
func (m Mode) Name() string {
	switch m {
	case Normal:
		return "normal"
	case Sovereign:
		return "sovereign"
	case AccessDenied:
		return "access_denied"
	}
	return fmt.Sprintf("mode_%d", int(m))
}

// ParseMode maps a machine name or a display label back to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{Normal, Sovereign, AccessDenied} {
		if s == m.Name() || s == m.String() {
			return m, nil
		}
	}
	return Normal, fmt.Errorf("gearbox: unknown mode %q", s)
}
