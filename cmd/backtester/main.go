package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/MihutMatei/quant-backtester/internal/config"
	"github.com/MihutMatei/quant-backtester/internal/engine"
	"github.com/MihutMatei/quant-backtester/internal/repository"
	"github.com/MihutMatei/quant-backtester/internal/store"
	"github.com/MihutMatei/quant-backtester/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log.Level)
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("backtest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := repository.NewDatabase(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to candle database: %w", err)
	}
	defer db.Close()

	asset, err := db.GetAssetByTicker(ctx, cfg.Data.Ticker)
	if err != nil {
		return err
	}
	candles, err := db.GetCandles(ctx, asset.Id, asset.Ticker, cfg.Interval(), cfg.Data.Start, cfg.Data.End)
	if err != nil {
		return err
	}
	log.Info("candles loaded", "ticker", asset.Ticker, "bars", len(candles))

	strat, err := buildStrategy(&cfg.Strategy)
	if err != nil {
		return err
	}
	intents, err := strat.Compute(candles)
	if err != nil {
		return err
	}

	eng := engine.NewEngine(engineConfig(cfg), log)
	startedAt := time.Now()
	result, err := eng.Run(candles, intents)
	if err != nil {
		return err
	}

	printReport(cfg, strat.Name(), result)
	if cfg.Report.PrintTrades {
		printTransactionSummary(result)
	}

	if cfg.Report.TransactionsCSV != "" {
		if err := engine.WriteTransactionsCSVFile(cfg.Report.TransactionsCSV, result.Transactions); err != nil {
			return err
		}
		log.Info("transaction log written", "path", cfg.Report.TransactionsCSV)
	}

	if cfg.Storage.SQLitePath != "" {
		if err := saveRun(ctx, cfg, strat.Name(), startedAt, result); err != nil {
			return err
		}
		log.Info("run persisted", "run_id", result.RunID.String(), "path", cfg.Storage.SQLitePath)
	}
	return nil
}

// buildStrategy constructs the closed set of strategy variants and selects
// one by the configured name.
func buildStrategy(cfg *config.StrategyConfig) (strategy.Strategy, error) {
	reg := strategy.NewRegistry()
	reg.Register(strategy.NewMACross(
		cfg.MACross.ShortWindow,
		cfg.MACross.LongWindow,
	))
	reg.Register(strategy.NewMeanReversion(
		cfg.MeanReversion.Window,
		cfg.MeanReversion.Threshold,
	))
	reg.Register(strategy.NewWilliamsR(
		cfg.Williams.Period,
		cfg.Williams.LongEntry,
		cfg.Williams.LongExit,
		cfg.Williams.ShortEntry,
		cfg.Williams.ShortExit,
	))
	reg.Register(strategy.NewComposite(
		cfg.Composite.RSIPeriod,
		cfg.Composite.RSILow,
		cfg.Composite.RSIHigh,
		cfg.Composite.WRPeriod,
		cfg.Composite.WRLongEntry,
		cfg.Composite.WRLongExit,
		cfg.Composite.WRShortEntry,
		cfg.Composite.WRShortExit,
		cfg.Composite.VolPeriod,
		cfg.Composite.VolMax,
	))
	return reg.Get(cfg.Name)
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		InitialCapital:     decimal.NewFromFloat(cfg.Backtest.InitialCapital),
		StopLossPct:        cfg.Backtest.StopLossPct,
		TakeProfitPct:      cfg.Backtest.TakeProfitPct,
		TrailingStopPct:    cfg.Backtest.TrailingStopPct,
		EnableTrailingStop: cfg.Backtest.EnableTrailingStop,
		EnableShorting:     cfg.Backtest.EnableShorting,
		SpreadPct:          cfg.Backtest.SpreadPct,
		DedupWindow:        cfg.Backtest.DedupWindow.Std(),
		PeriodsPerYear:     cfg.Backtest.PeriodsPerYear,
		ShowProgress:       cfg.Backtest.ShowProgress,
	}
}

func printReport(cfg *config.Config, strategyName string, result *engine.Result) {
	m := result.Metrics

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	table.Append("Ticker", cfg.Data.Ticker)
	table.Append("Strategy", strategyName)
	table.Append("Bars", fmt.Sprintf("%d", len(result.Ledger)))
	table.Append("Transactions", fmt.Sprintf("%d", m.TotalTransactions))
	table.Append("Final Equity", "$"+m.FinalEquity.StringFixed(2))
	table.Append("Total Return", fmt.Sprintf("%.2f%%", m.TotalReturnPct))
	table.Append("Buy & Hold", "$"+m.BuyHoldEquity.StringFixed(2))
	table.Append("CAGR", fmt.Sprintf("%.2f%%", m.CAGR*100))
	table.Append("Sharpe Ratio", fmt.Sprintf("%.2f", m.SharpeRatio))
	table.Append("Max Drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown*100))
	table.Render()
}

func printTransactionSummary(result *engine.Result) {
	txs := result.Transactions
	if len(txs) == 0 {
		fmt.Println("No transactions executed.")
		return
	}
	first := txs[0]
	last := txs[len(txs)-1]
	fmt.Printf("\nTransaction Summary:\n")
	fmt.Printf("Total transactions: %d\n", len(txs))
	fmt.Printf("First transaction: %s - %s\n", first.Time.Format("2006-01-02 15:04"), first.Action)
	fmt.Printf("Last transaction: %s - %s\n", last.Time.Format("2006-01-02 15:04"), last.Action)
	fmt.Printf("Final return: %s%%\n", last.ReturnPct.StringFixed(2))
}

func saveRun(ctx context.Context, cfg *config.Config, strategyName string, startedAt time.Time, result *engine.Result) error {
	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer st.Close()

	m := result.Metrics
	return st.SaveRun(ctx, &store.RunRecord{
		ID:             result.RunID,
		Ticker:         cfg.Data.Ticker,
		Strategy:       strategyName,
		StartedAt:      startedAt,
		Bars:           len(result.Ledger),
		InitialCapital: cfg.Backtest.InitialCapital,
		FinalEquity:    m.FinalEquity.InexactFloat64(),
		TotalReturn:    m.TotalReturnPct,
		CAGR:           m.CAGR,
		Sharpe:         m.SharpeRatio,
		MaxDrawdown:    m.MaxDrawdown,
		Transactions:   result.Transactions,
	})
}

func newLogger(level string) *slog.Logger {
	var slevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slevel = slog.LevelDebug
	case "warn":
		slevel = slog.LevelWarn
	case "error":
		slevel = slog.LevelError
	default:
		slevel = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slevel})
	return slog.New(handler)
}
