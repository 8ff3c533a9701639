package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MihutMatei/quant-backtester/types"
)

const sampleYAML = `
data:
  ticker: AAPL
  interval: D
  start: 2023-01-02T00:00:00Z
  end: 2024-01-02T00:00:00Z

strategy:
  name: williams
  williams:
    period: 14
    long_entry: -80
    long_exit: -20
    short_entry: -20
    short_exit: -80

backtest:
  initial_capital: 25000
  stop_loss_pct: 0.02
  take_profit_pct: 0.06
  enable_shorting: true
  dedup_window: 30m

storage:
  sqlite_path: runs.db

report:
  transactions_csv: transactions.csv
  print_trades: true

log:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", cfg.Data.Ticker)
	assert.Equal(t, types.Day, cfg.Interval())
	assert.Equal(t, "williams", cfg.Strategy.Name)
	assert.Equal(t, 14, cfg.Strategy.Williams.Period)
	assert.Equal(t, -80.0, cfg.Strategy.Williams.LongEntry)

	assert.Equal(t, 25000.0, cfg.Backtest.InitialCapital)
	assert.True(t, cfg.Backtest.EnableShorting)
	assert.Equal(t, 30*time.Minute, cfg.Backtest.DedupWindow.Std())

	assert.Equal(t, "runs.db", cfg.Storage.SQLitePath)
	assert.True(t, cfg.Report.PrintTrades)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
data:
  ticker: AAPL
  interval: D
strategy:
  name: ma-cross
  ma_cross:
    short_window: 10
    long_window: 30
`))
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 252.0, cfg.Backtest.PeriodsPerYear)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Zero(t, cfg.Backtest.DedupWindow.Std())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACKTESTER_SQLITE_PATH", "/var/lib/backtester/runs.db")
	t.Setenv("BACKTESTER_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/backtester/runs.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDuration_Unmarshal(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
data:
  ticker: AAPL
  interval: D
strategy:
  name: ma-cross
  ma_cross:
    short_window: 10
    long_window: 30
backtest:
  dedup_window: 3600
`))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Backtest.DedupWindow.Std(), "integer durations are seconds")

	_, err = Load(writeConfig(t, `
data:
  ticker: AAPL
  interval: D
strategy:
  name: ma-cross
  ma_cross:
    short_window: 10
    long_window: 30
backtest:
  dedup_window: soon
`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Data.Ticker = "AAPL"
		cfg.Data.Interval = "D"
		cfg.Backtest.InitialCapital = 10000
		cfg.Backtest.PeriodsPerYear = 252
		cfg.Strategy.Name = "williams"
		cfg.Strategy.Williams.Period = 14
		return cfg
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"missing ticker", func(c *Config) { c.Data.Ticker = "" }, ErrMissingTicker},
		{"bad interval", func(c *Config) { c.Data.Interval = "2d" }, ErrBadInterval},
		{"inverted time range", func(c *Config) {
			c.Data.Start = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
			c.Data.End = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		}, ErrBadTimeRange},
		{"zero capital", func(c *Config) { c.Backtest.InitialCapital = 0 }, ErrBadCapital},
		{"negative periods per year", func(c *Config) { c.Backtest.PeriodsPerYear = -1 }, ErrBadPeriodsPerYear},
		{"missing strategy", func(c *Config) { c.Strategy.Name = "" }, ErrMissingStrategy},
		{"zero williams period", func(c *Config) { c.Strategy.Williams.Period = 0 }, ErrBadStrategyParams},
		{"zero ma-cross windows", func(c *Config) { c.Strategy.Name = "ma-cross" }, ErrBadStrategyParams},
		{"mean-reversion window of one", func(c *Config) {
			c.Strategy.Name = "mean-reversion"
			c.Strategy.MeanReversion.Window = 1
		}, ErrBadStrategyParams},
		{"composite vol period of one", func(c *Config) {
			c.Strategy.Name = "composite"
			c.Strategy.Composite.RSIPeriod = 14
			c.Strategy.Composite.WRPeriod = 14
			c.Strategy.Composite.VolPeriod = 1
		}, ErrBadStrategyParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}
