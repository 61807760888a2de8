// Package config loads the settings of the tempo commands from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure returned by Load and Parse.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// SimulationConfig sizes and paces a simulation run.
type SimulationConfig struct {
	// TickRate is the number of scheduler ticks per simulated second.
	TickRate int `yaml:"tick_rate" validate:"gte=1,lte=1000"`
	// TimeScale multiplies game time relative to real time.
	TimeScale float64 `yaml:"time_scale" validate:"gte=0"`
	// Entities is the number of behavior entities spawned.
	Entities int `yaml:"entities" validate:"gte=1"`
	// Duration is how long the run lasts in simulated real time.
	Duration time.Duration `yaml:"duration" validate:"gt=0"`
	// Realtime paces ticks with a wall clock instead of running flat out.
	Realtime bool  `yaml:"realtime"`
	Seed     int64 `yaml:"seed"`
}

// LoggingConfig configures the zap logger built by the telemetry package.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
	// Output is stdout, stderr or a file path.
	Output string `yaml:"output" validate:"required"`
}

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen" validate:"omitempty,hostname_port"`
	Namespace string `yaml:"namespace" validate:"required"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Simulation: SimulationConfig{
			TickRate:  60,
			TimeScale: 1,
			Entities:  1000,
			Duration:  10 * time.Second,
			Seed:      1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Listen:    "127.0.0.1:9090",
			Namespace: "tempo",
		},
	}
}

// TickInterval returns the simulated duration of one tick.
func (s SimulationConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// Ticks returns the number of ticks a run of Duration takes.
func (s SimulationConfig) Ticks() int {
	return int(s.Duration / s.TickInterval())
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks c against its field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s: failed %q", ErrInvalidConfig, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics are enabled without a listen address", ErrInvalidConfig)
	}
	return nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the file at path with Parse. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
