// Package config loads the settings the snowflake CLI needs to configure a
// Generator: a YAML file, then SNOWFLAKE_* environment variables, then flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paraglidehq/snowflake"
	"github.com/paraglidehq/snowflake/internal/logger"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvDatacenterID = "SNOWFLAKE_DATACENTER_ID"
	EnvNodeID       = "SNOWFLAKE_NODE_ID"
	EnvFormat       = "SNOWFLAKE_FORMAT"
	EnvWaitInterval = "SNOWFLAKE_WAIT_INTERVAL"
	EnvRegression   = "SNOWFLAKE_REGRESSION"
	EnvLogLevel     = "SNOWFLAKE_LOG_LEVEL"
)

type Config struct {
	DatacenterID int64         `yaml:"datacenter_id"`
	NodeID       int64         `yaml:"node_id"`
	Format       string        `yaml:"format"`
	WaitInterval time.Duration `yaml:"wait_interval"`
	Regression   string        `yaml:"regression"`
	Log          LogConfig     `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Format:     string(snowflake.FormatDecimal),
		Regression: snowflake.RegressionHold.String(),
		Log: LogConfig{
			Level:  "info",
			Format: string(logger.FormatText),
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SNOWFLAKE_* environment variables.
func (c *Config) ApplyEnv() error {
	var errs []error
	if v, ok := os.LookupEnv(EnvDatacenterID); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvDatacenterID, err))
		}
		c.DatacenterID = n
	}
	if v, ok := os.LookupEnv(EnvNodeID); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvNodeID, err))
		}
		c.NodeID = n
	}
	if v, ok := os.LookupEnv(EnvWaitInterval); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvWaitInterval, err))
		}
		c.WaitInterval = d
	}
	if v, ok := os.LookupEnv(EnvFormat); ok {
		c.Format = v
	}
	if v, ok := os.LookupEnv(EnvRegression); ok {
		c.Regression = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	return errors.Join(errs...)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DatacenterID < 0 || c.DatacenterID > snowflake.MaxDatacenterID {
		errs = append(errs, fmt.Errorf("%w: datacenter_id must be an integer n, where 0 ≤ n ≤ %d",
			snowflake.ErrInvalidConfiguration, snowflake.MaxDatacenterID))
	}
	if c.NodeID < 0 || c.NodeID > snowflake.MaxNodeID {
		errs = append(errs, fmt.Errorf("%w: node_id must be an integer n, where 0 ≤ n ≤ %d",
			snowflake.ErrInvalidConfiguration, snowflake.MaxNodeID))
	}
	if c.WaitInterval < 0 {
		errs = append(errs, fmt.Errorf("wait_interval must not be negative, got %s", c.WaitInterval))
	}
	if _, err := snowflake.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := snowflake.ParseRegressionPolicy(c.Regression); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// IDFormat returns the configured output format. Call after Validate.
func (c *Config) IDFormat() snowflake.Format {
	f, _ := snowflake.ParseFormat(c.Format)
	return f
}

// Logger builds the logger described by c.Log. Call after Validate.
func (c *Config) Logger(opts ...logger.Option) *slog.Logger {
	level, _ := logger.ParseLevel(c.Log.Level)
	format, _ := logger.ParseFormat(c.Log.Format)
	return logger.New(append([]logger.Option{logger.WithLevel(level), logger.WithFormat(format)}, opts...)...)
}

// NewGenerator returns a configured Generator. Call after Validate.
func (c *Config) NewGenerator(log *slog.Logger) (*snowflake.Generator, error) {
	policy, _ := snowflake.ParseRegressionPolicy(c.Regression)
	g := snowflake.NewGenerator(
		snowflake.WithLogger(log),
		snowflake.WithWaitInterval(c.WaitInterval),
		snowflake.WithRegressionPolicy(policy),
	)
	if err := g.Configure(c.DatacenterID, c.NodeID); err != nil {
		return nil, err
	}
	return g, nil
}
