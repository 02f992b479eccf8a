// Package config loads the CLI configuration file.
package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	density "solution-density"
)

// Strategy names accepted in the configuration.
const (
	StrategyQR         = "qr"
	StrategyNormal     = "normal"
	StrategyNelderMead = "nelder-mead"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config is the structure of density.yaml. All keys are optional.
type Config struct {
	Strategy string        `yaml:"strategy" json:"strategy"`
	Ridge    float64       `yaml:"ridge" json:"ridge"`
	Simplex  SimplexConfig `yaml:"simplex" json:"simplex"`
	Log      LogConfig     `yaml:"log" json:"log"`
	Output   string        `yaml:"output" json:"output"`
}

// SimplexConfig tunes the nelder-mead strategy.
type SimplexConfig struct {
	MaxIterations      int     `yaml:"max_iterations" json:"max_iterations"`
	MaxEvaluations     int     `yaml:"max_evaluations" json:"max_evaluations"`
	Tolerance          float64 `yaml:"tolerance" json:"tolerance"`
	ConvergeIterations int     `yaml:"converge_iterations" json:"converge_iterations"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	nm := density.DefaultNelderMead()
	return Config{
		Strategy: StrategyQR,
		Simplex: SimplexConfig{
			MaxIterations:      nm.MaxIterations,
			MaxEvaluations:     nm.MaxEvaluations,
			Tolerance:          nm.Tolerance,
			ConvergeIterations: nm.ConvergeIterations,
		},
		Log:    LogConfig{Level: "info", Format: "text"},
		Output: OutputText,
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate rejects unknown names and negative budgets.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyQR, StrategyNormal, StrategyNelderMead:
	default:
		return errors.Errorf("unknown strategy %q", c.Strategy)
	}
	if c.Ridge < 0 {
		return errors.Errorf("ridge must not be negative, got %g", c.Ridge)
	}
	if c.Simplex.MaxIterations < 0 || c.Simplex.MaxEvaluations < 0 || c.Simplex.ConvergeIterations < 0 {
		return errors.New("simplex budgets must not be negative")
	}
	if c.Simplex.Tolerance < 0 {
		return errors.Errorf("simplex tolerance must not be negative, got %g", c.Simplex.Tolerance)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log level")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("unknown log format %q", c.Log.Format)
	}
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return errors.Errorf("unknown output %q", c.Output)
	}
	return nil
}

// FitStrategy builds the density strategy named by the configuration.
func (c Config) FitStrategy() (density.Strategy, error) {
	switch c.Strategy {
	case StrategyQR:
		return density.QR{}, nil
	case StrategyNormal:
		return density.NormalEquations{Ridge: c.Ridge}, nil
	case StrategyNelderMead:
		return density.NelderMead{
			MaxIterations:      c.Simplex.MaxIterations,
			MaxEvaluations:     c.Simplex.MaxEvaluations,
			Tolerance:          c.Simplex.Tolerance,
			ConvergeIterations: c.Simplex.ConvergeIterations,
		}, nil
	}
	return nil, errors.Errorf("unknown strategy %q", c.Strategy)
}
