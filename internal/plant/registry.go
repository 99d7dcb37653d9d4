package plant

import (
	"fmt"
	"sort"

	"github.com/san-kum/gearbox/internal/sim"
)

// Tunable is a plant that also supports live parameter changes.
type Tunable interface {
	sim.Plant
	sim.Configurable
}

var registry = map[string]func() Tunable{
	"first_order": func() Tunable { return NewFirstOrder(DefaultNatural, DefaultGain, DefaultTau) },
	"drift":       func() Tunable { return NewDrift(DefaultGain, 0.5) },
}

// Get builds a plant by name and applies params over its defaults.
func Get(name string, params map[string]float64) (Tunable, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown plant: %s", name)
	}
	p := fn()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := p.SetParam(k, params[k]); err != nil {
			return nil, fmt.Errorf("plant %s: %w", name, err)
		}
	}
	return p, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
