package report

import (
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"gopkg.in/yaml.v3"
)

// statsFile is the on-disk layout of stats.yaml. Undefined ratios are written as null.
type statsFile struct {
	ID        string    `yaml:"id"`
	Strategy  string    `yaml:"strategy"`
	Timestamp time.Time `yaml:"timestamp"`
	Symbol    string    `yaml:"symbol"`
	Bars      int       `yaml:"bars"`

	InitialValue     float64  `yaml:"initial_value"`
	FinalValue       float64  `yaml:"final_value"`
	CumulativeReturn float64  `yaml:"cumulative_return"`
	AnnualizedReturn *float64 `yaml:"annualized_return"`

	MaxDrawdown         float64  `yaml:"max_drawdown"`
	MaxDrawdownValue    float64  `yaml:"max_drawdown_value"`
	MaxDrawdownDuration int      `yaml:"max_drawdown_duration"`
	SharpeRatio         *float64 `yaml:"sharpe_ratio"`

	Trades struct {
		Count        int      `yaml:"count"`
		Winning      int      `yaml:"winning"`
		Losing       int      `yaml:"losing"`
		WinRate      *float64 `yaml:"win_rate"`
		AverageWin   *float64 `yaml:"average_win"`
		AverageLoss  *float64 `yaml:"average_loss"`
		WinLossRatio *float64 `yaml:"win_loss_ratio"`
	} `yaml:"trades"`

	TotalCommission float64 `yaml:"total_commission"`
	RealizedPnL     float64 `yaml:"realized_pnl"`
}

func toPointer(value optional.Option[float64]) *float64 {
	if value.IsNone() {
		return nil
	}

	v := value.Unwrap()

	return &v
}

func fromPointer(value *float64) optional.Option[float64] {
	if value == nil {
		return optional.None[float64]()
	}

	return optional.Some(*value)
}

// WriteStats writes the statistics of a run to a YAML file.
func WriteStats(path string, strategy string, stats types.RunStatistics) error {
	file := statsFile{
		ID:                  stats.ID,
		Strategy:            strategy,
		Timestamp:           stats.Timestamp,
		Symbol:              stats.Symbol,
		Bars:                stats.Bars,
		InitialValue:        stats.InitialValue,
		FinalValue:          stats.FinalValue,
		CumulativeReturn:    stats.CumulativeReturn,
		AnnualizedReturn:    toPointer(stats.AnnualizedReturn),
		MaxDrawdown:         stats.MaxDrawdown,
		MaxDrawdownValue:    stats.MaxDrawdownValue,
		MaxDrawdownDuration: stats.MaxDrawdownDuration,
		SharpeRatio:         toPointer(stats.SharpeRatio),
		TotalCommission:     stats.TotalCommission,
		RealizedPnL:         stats.RealizedPnL,
	}

	file.Trades.Count = stats.TradeCount
	file.Trades.Winning = stats.WinningTrades
	file.Trades.Losing = stats.LosingTrades
	file.Trades.WinRate = toPointer(stats.WinRate)
	file.Trades.AverageWin = toPointer(stats.AverageWin)
	file.Trades.AverageLoss = toPointer(stats.AverageLoss)
	file.Trades.WinLossRatio = toPointer(stats.WinLossRatio)

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}

	return nil
}

// ReadStats reads a stats.yaml written by WriteStats. It returns the strategy name next to the statistics.
func ReadStats(path string) (types.RunStatistics, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RunStatistics{}, "", fmt.Errorf("failed to read stats file: %w", err)
	}

	var file statsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return types.RunStatistics{}, "", fmt.Errorf("failed to parse stats file: %w", err)
	}

	return types.RunStatistics{
		ID:                  file.ID,
		Timestamp:           file.Timestamp,
		Symbol:              file.Symbol,
		Bars:                file.Bars,
		InitialValue:        file.InitialValue,
		FinalValue:          file.FinalValue,
		CumulativeReturn:    file.CumulativeReturn,
		AnnualizedReturn:    fromPointer(file.AnnualizedReturn),
		MaxDrawdown:         file.MaxDrawdown,
		MaxDrawdownValue:    file.MaxDrawdownValue,
		MaxDrawdownDuration: file.MaxDrawdownDuration,
		SharpeRatio:         fromPointer(file.SharpeRatio),
		TradeCount:          file.Trades.Count,
		WinningTrades:       file.Trades.Winning,
		LosingTrades:        file.Trades.Losing,
		WinRate:             fromPointer(file.Trades.WinRate),
		AverageWin:          fromPointer(file.Trades.AverageWin),
		AverageLoss:         fromPointer(file.Trades.AverageLoss),
		WinLossRatio:        fromPointer(file.Trades.WinLossRatio),
		TotalCommission:     file.TotalCommission,
		RealizedPnL:         file.RealizedPnL,
	}, file.Strategy, nil
}
