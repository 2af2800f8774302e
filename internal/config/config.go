package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"dayahead-market/internal/book"
	"dayahead-market/internal/clearing"
	"dayahead-market/internal/coupling"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: scenario with bids and links to simulate (YAML or JSON).
	// Relative paths are resolved against the config file directory first.
	ScenarioFile string         `yaml:"scenario_file"`
	Clearing     ClearingConfig `yaml:"clearing"`
	Coupling     CouplingConfig `yaml:"coupling"`
	Log          LogConfig      `yaml:"log"`
	API          APIConfig      `yaml:"api"`
}

type ClearingConfig struct {
	DistributionMethod string `yaml:"distribution_method"`
	ShortagePrice      string `yaml:"shortage_price"`
	// Seed feeds the random source of the RANDOMIZE distribution method.
	Seed int64 `yaml:"seed"`
}

type CouplingConfig struct {
	// Enabled is a pointer so that an omitted key defaults to true.
	Enabled              *bool   `yaml:"enabled"`
	MinDemandOffsetMWh   float64 `yaml:"min_demand_offset_mwh"`
	MinShiftIncrementMWh float64 `yaml:"min_shift_increment_mwh"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type APIConfig struct {
	Port          string  `yaml:"port"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// IsEnabled reports whether markets with links get coupled.
func (c CouplingConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Default returns a config that runs without any file.
func Default() *Config {
	c := &Config{}
	setDefaults(c)
	return c
}

// Load reads the file, applies .env and environment overrides, fills
// defaults and validates.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads config without validating it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("config.Load: parse %q: %w", path, err)
	}
	if c.ScenarioFile != "" && !filepath.IsAbs(c.ScenarioFile) {
		// Prefer paths relative to the config file, fall back to cwd.
		cand := filepath.Join(filepath.Dir(path), c.ScenarioFile)
		if _, err := os.Stat(cand); err == nil {
			c.ScenarioFile = cand
		}
	}
	applyEnvOverrides(&c)
	setDefaults(&c)
	return &c, nil
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		c.API.Port = v
	}
	if v := os.Getenv("DISTRIBUTION_METHOD"); v != "" {
		c.Clearing.DistributionMethod = v
	}
	if v := os.Getenv("CLEARING_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Clearing.Seed = seed
		}
	}
}

func setDefaults(c *Config) {
	if c.Clearing.DistributionMethod == "" {
		c.Clearing.DistributionMethod = string(book.FirstComeFirstServe)
	}
	if c.Clearing.ShortagePrice == "" {
		c.Clearing.ShortagePrice = string(clearing.ScarcityPrice)
	}
	if c.Coupling.MinDemandOffsetMWh == 0 {
		c.Coupling.MinDemandOffsetMWh = coupling.DefaultDemandOffsetMWh
	}
	if c.Coupling.MinShiftIncrementMWh == 0 {
		c.Coupling.MinShiftIncrementMWh = coupling.DefaultMinShiftIncrementMWh
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.API.Port == "" {
		c.API.Port = "8080"
	}
	if c.API.RatePerSecond == 0 {
		c.API.RatePerSecond = 20
	}
	if c.API.Burst == 0 {
		c.API.Burst = 40
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := book.ParseDistributionMethod(c.Clearing.DistributionMethod); err != nil {
		return fmt.Errorf("clearing config invalid: %w", err)
	}
	if _, err := clearing.ParseShortagePrice(c.Clearing.ShortagePrice); err != nil {
		return fmt.Errorf("clearing config invalid: %w", err)
	}
	if c.Coupling.MinDemandOffsetMWh < 0 {
		return errors.New("coupling.min_demand_offset_mwh must be >= 0")
	}
	if c.Coupling.MinShiftIncrementMWh <= 0 {
		return errors.New("coupling.min_shift_increment_mwh must be > 0")
	}
	if c.API.RatePerSecond < 0 || c.API.Burst < 0 {
		return errors.New("api.rate_per_second and api.burst must be >= 0")
	}
	return nil
}
