// Package config loads the settings of the statespace command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/quantscripts/statespace/msv"
)

// EnvPrefix prefixes every environment override, e.g. STATESPACE_BETA_BURN_IN.
const EnvPrefix = "STATESPACE"

// Config represents the complete configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Beta     BetaConfig     `yaml:"beta" envconfig:"BETA"`
	Realized RealizedConfig `yaml:"realized" envconfig:"REALIZED"`
	MSV      MSVConfig      `yaml:"msv" envconfig:"MSV"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// BetaConfig drives the time varying beta pipeline.
type BetaConfig struct {
	Stock         string   `yaml:"stock" envconfig:"STOCK"`
	Market        string   `yaml:"market" envconfig:"MARKET"`
	StockFile     string   `yaml:"stock_file" envconfig:"STOCK_FILE"`
	MarketFile    string   `yaml:"market_file" envconfig:"MARKET_FILE"`
	DateColumn    string   `yaml:"date_column" envconfig:"DATE_COLUMN"`
	CloseColumn   string   `yaml:"close_column" envconfig:"CLOSE_COLUMN"`
	DateLayouts   []string `yaml:"date_layouts" envconfig:"DATE_LAYOUTS"`
	Start         string   `yaml:"start" envconfig:"START"`
	End           string   `yaml:"end" envconfig:"END"`
	ReturnScale   float64  `yaml:"return_scale" envconfig:"RETURN_SCALE"`
	PriorVariance float64  `yaml:"prior_variance" envconfig:"PRIOR_VARIANCE"`
	BurnIn        int      `yaml:"burn_in" envconfig:"BURN_IN"`
	Level         float64  `yaml:"level" envconfig:"LEVEL"`
	MaxIterations int      `yaml:"max_iterations" envconfig:"MAX_ITERATIONS"`
	Output        string   `yaml:"output" envconfig:"OUTPUT"`
}

// RealizedConfig drives the intraday download and the realized measures.
type RealizedConfig struct {
	Symbol        string        `yaml:"symbol" envconfig:"SYMBOL"`
	PriceType     string        `yaml:"price_type" envconfig:"PRICE_TYPE"`
	Interval      string        `yaml:"interval" envconfig:"INTERVAL"`
	From          string        `yaml:"from" envconfig:"FROM"`
	To            string        `yaml:"to" envconfig:"TO"`
	BarsFile      string        `yaml:"bars_file" envconfig:"BARS_FILE"`
	SessionOffset time.Duration `yaml:"session_offset" envconfig:"SESSION_OFFSET"`
	Alpha         float64       `yaml:"alpha" envconfig:"ALPHA"`
	Concurrency   int           `yaml:"concurrency" envconfig:"CONCURRENCY"`
	RPS           float64       `yaml:"rps" envconfig:"RPS"`
	Output        string        `yaml:"output" envconfig:"OUTPUT"`
}

// MSVConfig drives the CmdStan runs.
type MSVConfig struct {
	ModelDir    string        `yaml:"model_dir" envconfig:"MODEL_DIR"`
	OutDir      string        `yaml:"out_dir" envconfig:"OUT_DIR"`
	Variants    []msv.Variant `yaml:"variants" ignored:"true"`
	Params      []string      `yaml:"params" envconfig:"PARAMS"`
	Chains      int           `yaml:"chains" envconfig:"CHAINS"`
	Warmup      int           `yaml:"warmup" envconfig:"WARMUP"`
	Samples     int           `yaml:"samples" envconfig:"SAMPLES"`
	Thin        int           `yaml:"thin" envconfig:"THIN"`
	Seed        int           `yaml:"seed" envconfig:"SEED"`
	Refresh     int           `yaml:"refresh" envconfig:"REFRESH"`
	Concurrency int           `yaml:"concurrency" envconfig:"CONCURRENCY"`
	Window      int           `yaml:"window" envconfig:"WINDOW"`
}

// Default returns the configuration used when neither the file nor the
// environment sets a value.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Beta: BetaConfig{
			Stock:         "9501.JP",
			Market:        "^NKX",
			DateColumn:    "Date",
			CloseColumn:   "Close",
			DateLayouts:   []string{"2006-01-02", "2006/01/02"},
			Start:         "2001-01-01",
			End:           "2023-12-28",
			ReturnScale:   100,
			PriorVariance: 1e7,
			BurnIn:        50,
			Level:         0.95,
			MaxIterations: 200,
			Output:        "beta.csv",
		},
		Realized: RealizedConfig{
			Symbol:        "USD_JPY",
			PriceType:     "ASK",
			Interval:      "5min",
			From:          "2023-10-28",
			To:            "2024-12-01",
			BarsFile:      "usdjpy_5min.csv",
			SessionOffset: 3 * time.Hour,
			Alpha:         0.95,
			Concurrency:   4,
			RPS:           5,
			Output:        "realized.csv",
		},
		MSV: MSVConfig{
			ModelDir:    ".",
			OutDir:      "msv_out",
			Params:      []string{"mu", "phi", "sigma_eta", "sigma_zeta"},
			Chains:      4,
			Warmup:      1000,
			Samples:     1000,
			Thin:        1,
			Seed:        1234,
			Refresh:     10,
			Concurrency: 1,
			Window:      250,
		},
	}
}

// Load returns the defaults, overridden by the YAML file at path (if not
// empty) and then by the STATESPACE_* environment variables. Without default
// tags, envconfig only touches the fields whose variable is set.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if len(cfg.MSV.Variants) == 0 {
		cfg.MSV.Variants = msv.DefaultVariants()
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	if c.Beta.Level <= 0 || c.Beta.Level >= 1 {
		errs = append(errs, fmt.Errorf("beta level %f not in (0, 1)", c.Beta.Level))
	}
	if c.Beta.BurnIn < 0 {
		errs = append(errs, fmt.Errorf("negative burn-in %d", c.Beta.BurnIn))
	}
	if c.Beta.PriorVariance <= 0 {
		errs = append(errs, fmt.Errorf("prior variance %g must be positive", c.Beta.PriorVariance))
	}
	if c.Realized.Alpha <= 0 || c.Realized.Alpha >= 1 {
		errs = append(errs, fmt.Errorf("realized alpha %f not in (0, 1)", c.Realized.Alpha))
	}
	if c.MSV.Chains < 1 || c.MSV.Samples < 1 || c.MSV.Thin < 1 {
		errs = append(errs, errors.New("msv chains, samples and thin must be positive"))
	}
	if c.MSV.Window < 2 {
		errs = append(errs, fmt.Errorf("msv window %d too small", c.MSV.Window))
	}
	for _, v := range c.MSV.Variants {
		if v.Name == "" {
			errs = append(errs, errors.New("msv variant without name"))
		}
	}
	return errors.Join(errs...)
}

// Date parses a configured date.
func Date(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// NewLogger builds the logger described by the logging section.
func (c LoggingConfig) NewLogger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(c.Level); err == nil {
		log.SetLevel(lvl)
	}
	if strings.EqualFold(c.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
