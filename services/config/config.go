// Package config loads the station description from YAML. Firmware builds use
// the embedded station.yaml.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"biasboard-go/errcode"
	"biasboard-go/x/timex"

	"gopkg.in/yaml.v3"
)

//go:embed station.yaml
var embeddedStation []byte

// Config describes one test station: its bus, the addresses strapped on the
// bias cards and the timing of closed-loop operations.
type Config struct {
	Bus      BusConfig      `yaml:"bus"`
	Repeater RepeaterConfig `yaml:"repeater"`
	Expander ExpanderConfig `yaml:"expander"`
	Pots     []PotConfig    `yaml:"pots"`
	Sense    SenseConfig    `yaml:"sense"`
	Search   SearchConfig   `yaml:"search"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Ramp     RampConfig     `yaml:"ramp"`
	Console  ConsoleConfig  `yaml:"console"`
}

type BusConfig struct {
	Device  string `yaml:"device"`   // /dev/i2c-N on Linux, i2c0/i2c1 on RP2
	SpeedHz uint32 `yaml:"speed_hz"` // 0 leaves the adapter alone
}

type RepeaterConfig struct {
	Base uint16 `yaml:"base"`
	Card uint8  `yaml:"card"` // card connected at start-up
}

type ExpanderConfig struct {
	Address uint16 `yaml:"address"`
}

type PotConfig struct {
	Address uint16 `yaml:"address"`
}

type SenseConfig struct {
	Base    uint16  `yaml:"base"`
	Divider float64 `yaml:"divider"` // current divisor for the fitted sense resistor
	Average int     `yaml:"average"` // samples per reading
}

type SearchConfig struct {
	SettleMs         int     `yaml:"settle_ms"`
	CurrentTolerance float64 `yaml:"current_tolerance"` // mA
	VoltageTolerance float64 `yaml:"voltage_tolerance"` // V
	MaxSteps         int     `yaml:"max_steps"`
}

type SweepConfig struct {
	StepMs int `yaml:"step_ms"`
}

type RampConfig struct {
	DurationMs int `yaml:"duration_ms"`
	Steps      int `yaml:"steps"`
}

type ConsoleConfig struct {
	Echo bool   `yaml:"echo"`
	UART string `yaml:"uart"` // firmware only
	Baud uint32 `yaml:"baud"` // firmware only
}

// Settle is the pause between an actuator write and the next measurement.
func (c SearchConfig) Settle() time.Duration { return timex.Millis(c.SettleMs) }

func (c SweepConfig) Step() time.Duration { return timex.Millis(c.StepMs) }

func (c RampConfig) Duration() time.Duration { return timex.Millis(c.DurationMs) }

// Default returns the embedded station configuration.
func Default() Config {
	c, err := Parse(embeddedStation)
	if err != nil {
		panic("config: embedded station.yaml: " + err.Error())
	}
	return c
}

// Load reads path, expanding ${VAR} references first. An empty path returns
// Default. Keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes data over the embedded defaults and validates the result.
// Lists in data (pots) replace the default list.
func Parse(data []byte) (Config, error) {
	var c Config
	if len(embeddedStation) > 0 {
		if err := yaml.Unmarshal(embeddedStation, &c); err != nil {
			return Config{}, fmt.Errorf("config: defaults: %w", err)
		}
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks ranges that would otherwise surface as confusing bus errors.
func (c Config) Validate() error {
	bad := func(msg string) error { return errcode.New(errcode.InvalidParams, "config", msg) }
	switch {
	case c.Repeater.Card > 31:
		return bad("repeater.card must be 0..31")
	case c.Expander.Address == 0 || c.Expander.Address > 0x7F:
		return bad("expander.address must be a 7-bit address")
	case len(c.Pots) == 0:
		return bad("at least one pot is required")
	case c.Sense.Base == 0 || c.Sense.Base > 0x7F:
		return bad("sense.base must be a 7-bit address")
	case c.Sense.Divider <= 0:
		return bad("sense.divider must be > 0")
	case c.Search.CurrentTolerance < 0 || c.Search.VoltageTolerance < 0:
		return bad("search tolerances must be >= 0")
	case c.Search.MaxSteps < 1 || c.Search.MaxSteps > 256:
		return bad("search.max_steps must be 1..256")
	case c.Search.SettleMs < 0 || c.Sweep.StepMs < 0 || c.Ramp.DurationMs < 0:
		return bad("durations must be >= 0")
	}
	for i, p := range c.Pots {
		if p.Address == 0 || p.Address > 0x7F {
			return bad(fmt.Sprintf("pots[%d].address must be a 7-bit address", i))
		}
	}
	return nil
}
