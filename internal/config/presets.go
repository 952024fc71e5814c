package config

func preset(mod func(c *Config)) *Config {
	c := DefaultConfig()
	mod(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"triangle": {
		"exact": preset(func(c *Config) {
			c.Scenario, c.Radius, c.TotalMass = "triangle", 1, 3
			c.Dt, c.Duration, c.SampleEvery = 0.01, 1.0, 1
			c.Gravity.Theta, c.Gravity.HalfExtent = 0, 2
		}),
	},
	"binary": {
		"circular": preset(func(c *Config) {
			c.Scenario, c.Radius = "binary", 0.5
			c.Dt, c.Duration = 0.001, 10.0
		}),
		"rk4": preset(func(c *Config) {
			c.Scenario, c.Integrator, c.Field, c.Radius = "binary", "rk4", "direct", 0.5
			c.Dt, c.Duration = 0.001, 10.0
		}),
	},
	"cube": {
		"collapse": preset(func(c *Config) {
			c.Scenario, c.Bodies, c.Radius = "cube", 512, 0.5
			c.Dt, c.Duration = 0.002, 2.0
			c.Gravity.Theta, c.Gravity.MinSeparation = 0.7, 1e-3
		}),
	},
	"plummer": {
		"small": preset(func(c *Config) {
			c.Scenario, c.Bodies = "plummer", 256
			c.Dt, c.Duration = 0.001, 5.0
			c.Gravity.Theta, c.Gravity.MinSeparation = 0.5, 1e-3
		}),
		"large": preset(func(c *Config) {
			c.Scenario, c.Bodies = "plummer", 4096
			c.Dt, c.Duration = 0.001, 2.0
			c.Gravity.Theta, c.Gravity.MinSeparation, c.Gravity.Parallel = 0.8, 1e-3, true
		}),
		"galaxy": preset(func(c *Config) {
			c.Scenario, c.Bodies, c.TotalMass, c.Units = "plummer", 1024, 1e6, "si"
			// One year per tick for ten thousand years.
			c.Dt, c.Duration = 3.15e7, 3.15e11
			c.Gravity.MinSeparation, c.Gravity.Parallel = 1e-3, true
		}),
	},
	"disk": {
		"thin": preset(func(c *Config) {
			c.Scenario, c.Bodies = "disk", 1000
			c.Dt, c.Duration = 0.001, 5.0
			c.Gravity.Theta, c.Gravity.MinSeparation, c.Gravity.Parallel = 0.7, 1e-3, true
		}),
	},
}

// GetPreset returns a copy of the named preset.
func GetPreset(scenario, name string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	return names
}
