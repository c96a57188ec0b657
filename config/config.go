package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/chargehub/core/metrics"
	"github.com/kilianp07/chargehub/core/schedule"
)

type Config struct {
	Input      InputConfig    `json:"input"`
	Output     OutputConfig   `json:"output"`
	Scenarios  []string       `json:"scenarios"`
	Strategies []string       `json:"strategies"`
	Schedule   ScheduleConfig `json:"schedule"`
	Solver     SolverConfig   `json:"solver"`
	Metrics    metrics.Config `json:"metrics"`
	API        APIConfig      `json:"api"`
	PriceAPI   PriceAPIConfig `json:"price_api"`
	LogLevel   string         `json:"log_level"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section with its defaults.
func (c *Config) SetDefaults() {
	c.Output.SetDefaults()
	c.Solver.SetDefaults()
	c.API.SetDefaults()
	c.PriceAPI.SetDefaults()
	if len(c.Strategies) == 0 {
		for _, s := range schedule.Strategies {
			c.Strategies = append(c.Strategies, string(s))
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Input.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario is required")
	}
	for _, s := range c.Strategies {
		if _, err := schedule.ParseStrategy(s); err != nil {
			return err
		}
	}
	return nil
}

// StrategyList returns the parsed strategies. Load has validated them.
func (c Config) StrategyList() []schedule.Strategy {
	out := make([]schedule.Strategy, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		if st, err := schedule.ParseStrategy(s); err == nil {
			out = append(out, st)
		}
	}
	return out
}
