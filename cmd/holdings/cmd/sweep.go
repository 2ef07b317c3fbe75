package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ricardolopes/holdings-backend/internal/usecase/backtest"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Compare grid intervals over the same price series",
	Long: `Sweep runs one backtest per trigger interval over the same daily
price CSV and prints a comparison table. Runs execute in parallel on a
bounded worker pool; the engine is stateless, so results are deterministic.

Example:
  holdings sweep --prices data/600900.csv --amount 10000 --intervals 2,3,5,8`,
	RunE: runSweep,
}

var (
	swPricesPath string
	swAmount     float64
	swIntervals  string
	swWorkers    int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&swPricesPath, "prices", "p", "", "path to daily price CSV (required)")
	sweepCmd.Flags().Float64VarP(&swAmount, "amount", "a", 10_000, "notional per grid step")
	sweepCmd.Flags().StringVar(&swIntervals, "intervals", "2,5,10", "comma-separated trigger intervals in percent")
	sweepCmd.Flags().IntVar(&swWorkers, "workers", runtime.NumCPU(), "parallel backtest workers")

	sweepCmd.MarkFlagRequired("prices")
}

func runSweep(cmd *cobra.Command, args []string) error {
	prices, err := loadPriceCSV(swPricesPath)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	var intervals []decimal.Decimal
	for _, part := range strings.Split(swIntervals, ",") {
		interval, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("bad interval %q: %w", part, err)
		}
		intervals = append(intervals, interval)
	}

	results := backtest.Sweep(prices, decimal.NewFromFloat(swAmount), intervals, swWorkers)

	cmd.Printf("%-10s %-8s %-14s %-16s %-8s\n", "interval", "trades", "profit", "max cash", "xirr")
	for _, res := range results {
		if res.Err != nil {
			cmd.Printf("%-10s error: %v\n", res.IntervalPercent.String()+"%", res.Err)
			continue
		}
		cmd.Printf("%-10s %-8d %-14s %-16s %-8s\n",
			res.IntervalPercent.String()+"%",
			res.Report.TradeCount,
			res.Report.TotalProfit,
			res.Report.MaxCashRequired,
			formatXIRR(res.Report),
		)
	}
	return nil
}
