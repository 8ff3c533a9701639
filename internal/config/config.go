// Package config loads the backtester configuration from a YAML file, with
// environment variable overrides for deployment-specific values.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MihutMatei/quant-backtester/types"
)

var (
	ErrMissingTicker     = errors.New("config: ticker is required")
	ErrBadInterval       = errors.New("config: unsupported interval")
	ErrBadTimeRange      = errors.New("config: start must be before end")
	ErrBadCapital        = errors.New("config: initial_capital must be positive")
	ErrMissingStrategy   = errors.New("config: strategy name is required")
	ErrBadStrategyParams = errors.New("config: invalid strategy parameters")
	ErrBadPeriodsPerYear = errors.New("config: periods_per_year must be positive")
)

// Config is the top-level configuration for a backtest run.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Strategy StrategyConfig `yaml:"strategy"`
	Backtest BacktestConfig `yaml:"backtest"`
	Storage  StorageConfig  `yaml:"storage"`
	Report   ReportConfig   `yaml:"report"`
	Log      LogConfig      `yaml:"log"`
}

// DataConfig selects which candles to load.
type DataConfig struct {
	Ticker   string    `yaml:"ticker"`
	Interval string    `yaml:"interval"`
	Start    time.Time `yaml:"start"`
	End      time.Time `yaml:"end"`
}

// StrategyConfig selects a strategy by name and carries the parameters for
// every variant; only the selected variant reads its block.
type StrategyConfig struct {
	Name string `yaml:"name"`

	MACross struct {
		ShortWindow int `yaml:"short_window"`
		LongWindow  int `yaml:"long_window"`
	} `yaml:"ma_cross"`

	MeanReversion struct {
		Window    int     `yaml:"window"`
		Threshold float64 `yaml:"threshold"`
	} `yaml:"mean_reversion"`

	Williams struct {
		Period     int     `yaml:"period"`
		LongEntry  float64 `yaml:"long_entry"`
		LongExit   float64 `yaml:"long_exit"`
		ShortEntry float64 `yaml:"short_entry"`
		ShortExit  float64 `yaml:"short_exit"`
	} `yaml:"williams"`

	Composite struct {
		RSIPeriod    int     `yaml:"rsi_period"`
		RSILow       float64 `yaml:"rsi_low"`
		RSIHigh      float64 `yaml:"rsi_high"`
		WRPeriod     int     `yaml:"wr_period"`
		WRLongEntry  float64 `yaml:"wr_long_entry"`
		WRLongExit   float64 `yaml:"wr_long_exit"`
		WRShortEntry float64 `yaml:"wr_short_entry"`
		WRShortExit  float64 `yaml:"wr_short_exit"`
		VolPeriod    int     `yaml:"vol_period"`
		VolMax       float64 `yaml:"vol_max"`
	} `yaml:"composite"`
}

// BacktestConfig carries the engine execution parameters.
type BacktestConfig struct {
	InitialCapital     float64  `yaml:"initial_capital"`
	StopLossPct        float64  `yaml:"stop_loss_pct"`
	TakeProfitPct      float64  `yaml:"take_profit_pct"`
	TrailingStopPct    float64  `yaml:"trailing_stop_pct"`
	EnableTrailingStop bool     `yaml:"enable_trailing_stop"`
	EnableShorting     bool     `yaml:"enable_shorting"`
	SpreadPct          float64  `yaml:"spread_pct"`
	DedupWindow        Duration `yaml:"dedup_window"`
	PeriodsPerYear     float64  `yaml:"periods_per_year"`
	ShowProgress       bool     `yaml:"show_progress"`
}

// Duration parses YAML durations given either as Go duration strings
// ("30m", "1h") or as plain integer seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var seconds int64
	if err := value.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("config: parse duration: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// StorageConfig holds the candle database and the run result store.
type StorageConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
	SQLitePath  string `yaml:"sqlite_path"`
}

// ReportConfig controls the run outputs.
type ReportConfig struct {
	TransactionsCSV string `yaml:"transactions_csv"`
	PrintTrades     bool   `yaml:"print_trades"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML configuration at path, applies .env and environment
// overrides, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	// Load .env if present; a missing file is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKTESTER_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("BACKTESTER_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("BACKTESTER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 10000
	}
	if cfg.Backtest.PeriodsPerYear == 0 {
		// Daily-bar convention. Intraday runs must override this; it is
		// never inferred from timestamps.
		cfg.Backtest.PeriodsPerYear = 252
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Interval returns the parsed candle interval. Validate has already checked
// that the raw value is supported.
func (c *Config) Interval() types.Interval {
	return types.ConvertInterval[c.Data.Interval]
}

// Validate fails fast on configuration errors so a broken run never starts.
func (c *Config) Validate() error {
	if c.Data.Ticker == "" {
		return ErrMissingTicker
	}
	if _, ok := types.ConvertInterval[c.Data.Interval]; !ok {
		return fmt.Errorf("%w: %q", ErrBadInterval, c.Data.Interval)
	}
	if !c.Data.Start.IsZero() && !c.Data.End.IsZero() && !c.Data.Start.Before(c.Data.End) {
		return ErrBadTimeRange
	}
	if c.Backtest.InitialCapital <= 0 {
		return ErrBadCapital
	}
	if c.Backtest.PeriodsPerYear <= 0 {
		return ErrBadPeriodsPerYear
	}
	if c.Strategy.Name == "" {
		return ErrMissingStrategy
	}
	return c.Strategy.validate()
}

// validate checks the parameter block of the selected strategy so a broken
// period fails here instead of inside the indicator math. Unknown names pass
// through; the strategy registry rejects them.
func (c *StrategyConfig) validate() error {
	switch c.Name {
	case "ma-cross":
		if c.MACross.ShortWindow <= 0 || c.MACross.LongWindow <= 0 {
			return fmt.Errorf("%w: ma_cross windows must be positive", ErrBadStrategyParams)
		}
	case "mean-reversion":
		if c.MeanReversion.Window <= 1 {
			return fmt.Errorf("%w: mean_reversion window must be at least 2", ErrBadStrategyParams)
		}
	case "williams":
		if c.Williams.Period <= 0 {
			return fmt.Errorf("%w: williams period must be positive", ErrBadStrategyParams)
		}
	case "composite":
		if c.Composite.RSIPeriod <= 0 || c.Composite.WRPeriod <= 0 || c.Composite.VolPeriod <= 1 {
			return fmt.Errorf("%w: composite periods must be positive", ErrBadStrategyParams)
		}
	}
	return nil
}
