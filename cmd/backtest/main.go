package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// runAction loads the inputs, runs one backtest and prints its statistics.
func runAction(ctx context.Context, cmd *cli.Command) error {
	config, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	backtest := engine_v1.NewBacktestEngineV1()

	if err := backtest.Initialize(string(config)); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if err := backtest.SetContractPath(cmd.String("contract")); err != nil {
		return fmt.Errorf("failed to load contracts: %w", err)
	}

	if err := backtest.SetDataPath(cmd.String("data")); err != nil {
		return fmt.Errorf("failed to set data path: %w", err)
	}

	if results := cmd.String("results"); results != "" {
		if err := backtest.SetResultsFolder(results); err != nil {
			return fmt.Errorf("failed to set results folder: %w", err)
		}
	}

	result, err := backtest.Run(ctx, callbacks(cmd.Bool("progress")))
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printSummary(result)

	return nil
}

// callbacks drives a progress bar from the engine's lifecycle callbacks.
func callbacks(showProgress bool) engine.LifecycleCallbacks {
	if !showProgress {
		return engine.LifecycleCallbacks{}
	}

	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(_ string, symbol string, totalBars int) error {
		bar = progressbar.NewOptions(totalBars,
			progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %s", symbol)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
		)

		return nil
	})

	onProcessData := engine.OnProcessDataCallback(func(current int, _ int) error {
		if bar == nil {
			return nil
		}

		return bar.Set(current)
	})

	onBacktestEnd := engine.OnBacktestEndCallback(func(error) {
		if bar != nil {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
	})

	return engine.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnBacktestEnd: &onBacktestEnd,
	}
}

func printSummary(result engine.BacktestResult) {
	stats := result.Statistics

	fmt.Printf("Run %s (%s, %s)\n", result.RunID, stats.Symbol, result.Strategy)
	fmt.Printf("  bars:               %d\n", stats.Bars)
	fmt.Printf("  initial value:      %.2f\n", stats.InitialValue)
	fmt.Printf("  final value:        %.2f\n", stats.FinalValue)
	fmt.Printf("  cumulative return:  %.4f\n", stats.CumulativeReturn)
	fmt.Printf("  annualized return:  %s\n", formatOptional(stats.AnnualizedReturn))
	fmt.Printf("  max drawdown:       %.4f (%.2f over %d bars)\n", stats.MaxDrawdown, stats.MaxDrawdownValue, stats.MaxDrawdownDuration)
	fmt.Printf("  sharpe ratio:       %s\n", formatOptional(stats.SharpeRatio))
	fmt.Printf("  trades:             %d (%d won, %d lost)\n", stats.TradeCount, stats.WinningTrades, stats.LosingTrades)
	fmt.Printf("  win rate:           %s\n", formatOptional(stats.WinRate))
	fmt.Printf("  win/loss ratio:     %s\n", formatOptional(stats.WinLossRatio))
	fmt.Printf("  commission:         %.2f\n", stats.TotalCommission)
	fmt.Printf("  realized pnl:       %.2f\n", stats.RealizedPnL)

	if result.Account.Position != 0 {
		fmt.Printf("  open position:      %d @ %.4f\n", result.Account.Position, result.Account.AverageEntryPrice)
	}

	if result.ResultFolder != "" {
		fmt.Printf("Results written to %s\n", result.ResultFolder)
	}
}

func formatOptional(value optional.Option[float64]) string {
	if value.IsNone() {
		return "n/a"
	}

	return fmt.Sprintf("%.4f", value.Unwrap())
}

// schemaAction prints the JSON schema of the engine configuration.
func schemaAction(_ context.Context, cmd *cli.Command) error {
	config := engine_v1.DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	output := cmd.String("output")
	if output == "" {
		fmt.Println(schema)

		return nil
	}

	if err := os.WriteFile(output, []byte(schema), 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	log.Printf("Schema successfully generated at %s", output)

	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Backtest the dual moving average strategy on futures bars",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the engine configuration (YAML)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "contract",
						Aliases:  []string{"k"},
						Usage:    "Path to the contract file (YAML or JSON)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the bar file (parquet or csv)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Results folder, empty to skip writing results",
						Value:   "results",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Show a progress bar",
						Value: true,
					},
				},
				Action: runAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the engine configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the schema to this file instead of stdout",
					},
				},
				Action: schemaAction,
			},
		},
	}
}

func main() {
	cmd := newCommand()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
