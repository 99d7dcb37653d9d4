package config

import (
	"fmt"
	"os"

	"github.com/san-kum/gearbox/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultInitFreq = 10.0
	DefaultKp       = 1.0
	DefaultKi       = 0.5
	DefaultKd       = 0.01
)

type Config struct {
	Plant       string             `yaml:"plant"`
	Integrator  string             `yaml:"integrator"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	InitFreq    float64            `yaml:"init_freq"`
	Gains       GainsConfig        `yaml:"gains"`
	PlantParams map[string]float64 `yaml:"plant_params,omitempty"`
	Events      []sim.Event        `yaml:"events,omitempty"`
}

type GainsConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant:      "first_order",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		InitFreq:   DefaultInitFreq,
		Gains: GainsConfig{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SimConfig converts the file settings into a run configuration.
func (c *Config) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Dt = c.Dt
	cfg.Duration = c.Duration
	cfg.Events = append([]sim.Event(nil), c.Events...)
	return cfg
}

func (c *Config) InitState() sim.State {
	return sim.State{c.InitFreq}
}
