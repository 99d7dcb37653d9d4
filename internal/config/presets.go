package config

import (
	"sort"

	"github.com/san-kum/gearbox/internal/gearbox"
	"github.com/san-kum/gearbox/internal/sim"
)

var Presets = map[string]map[string]*Config{
	"first_order": {
		"gentle": {
			Plant: "first_order", Integrator: "rk4", Dt: 0.01, Duration: 20.0, InitFreq: 10.0,
			Gains: GainsConfig{Kp: 0.5, Ki: 0.5},
		},
		"aggressive": {
			Plant: "first_order", Integrator: "rk4", Dt: 0.01, Duration: 10.0, InitFreq: 5.0,
			Gains: GainsConfig{Kp: 4.0, Ki: 3.0, Kd: 0.05},
		},
		"proportional": {
			Plant: "first_order", Integrator: "rk4", Dt: 0.01, Duration: 10.0, InitFreq: 10.0,
			Gains: GainsConfig{Kp: 2.0},
		},
		"sovereign": {
			Plant: "first_order", Integrator: "rk4", Dt: 0.01, Duration: 30.0, InitFreq: 10.0,
			Gains: GainsConfig{Kp: 2.0, Ki: 2.0, Kd: 0.01},
			Events: []sim.Event{
				{At: 5.0, Action: sim.ActionOverride, Key: "wrong"},
				{At: 8.0, Action: sim.ActionOverride, Key: gearbox.OverrideKey},
				{At: 12.0, Action: sim.ActionReset},
			},
		},
	},
	"drift": {
		"windup": {
			Plant: "drift", Integrator: "euler", Dt: 0.01, Duration: 30.0, InitFreq: 15.0,
			Gains:       GainsConfig{Kp: 1.0, Ki: 0.8},
			PlantParams: map[string]float64{"rate": 2.0},
		},
		"p_only": {
			Plant: "drift", Integrator: "euler", Dt: 0.01, Duration: 30.0, InitFreq: 15.0,
			Gains:       GainsConfig{Kp: 1.0},
			PlantParams: map[string]float64{"rate": 2.0},
		},
	},
}

// GetPreset returns a copy of the named preset, nil if unknown.
func GetPreset(plant, name string) *Config {
	byName, ok := Presets[plant]
	if !ok {
		return nil
	}
	p, ok := byName[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Events = append([]sim.Event(nil), p.Events...)
	if p.PlantParams != nil {
		cfg.PlantParams = make(map[string]float64, len(p.PlantParams))
		for k, v := range p.PlantParams {
			cfg.PlantParams[k] = v
		}
	}
	return &cfg
}

func ListPresets(plant string) []string {
	byName, ok := Presets[plant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
