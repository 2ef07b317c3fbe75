package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ricardolopes/holdings-backend/internal/domain"
	"github.com/ricardolopes/holdings-backend/internal/usecase/backtest"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a grid-strategy backtest over a daily price CSV",
	Long: `Backtest simulates the percentage-interval grid strategy against a
daily price series: buy a fixed notional on every drop of the interval below
the last trade price, sell on every equivalent rise. Shares transact in lots
of 100.

The CSV needs a date column (2006-01-02) followed by either a single close
column or full open,high,low,close,volume columns. A header row is skipped
automatically.

Example:
  holdings backtest --prices data/600900.csv --amount 10000 --interval 5`,
	RunE: runBacktest,
}

var (
	btPricesPath string
	btAmount     float64
	btInterval   float64
	btShowTrades bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btPricesPath, "prices", "p", "", "path to daily price CSV (required)")
	backtestCmd.Flags().Float64VarP(&btAmount, "amount", "a", 10_000, "notional per grid step")
	backtestCmd.Flags().Float64VarP(&btInterval, "interval", "i", 5, "trigger interval in percent")
	backtestCmd.Flags().BoolVar(&btShowTrades, "trades", false, "print the simulated trade log")

	backtestCmd.MarkFlagRequired("prices")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	prices, err := loadPriceCSV(btPricesPath)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	report, err := backtest.Run(prices, backtest.Params{
		Amount:          decimal.NewFromFloat(btAmount),
		IntervalPercent: decimal.NewFromFloat(btInterval),
	})
	if err != nil {
		return err
	}

	printReport(cmd, report)
	if btShowTrades {
		cmd.Println()
		for _, t := range report.Trades {
			cmd.Printf("%s  %-4s %6d @ %s\n", t.Date.Format("2006-01-02"), t.Side, t.Quantity, t.Price)
		}
	}
	return nil
}

func printReport(cmd *cobra.Command, report *backtest.Report) {
	cmd.Printf("Bars:              %d trades executed\n", report.TradeCount)
	cmd.Printf("Total profit:      %s\n", report.TotalProfit)
	cmd.Printf("Max cash required: %s\n", report.MaxCashRequired)
	cmd.Printf("Final position:    %d shares @ %s\n", report.FinalShares, report.FinalPrice)
	cmd.Printf("XIRR:              %s\n", formatXIRR(report))
}

func formatXIRR(report *backtest.Report) string {
	if !report.XIRRValid {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", report.XIRR*100)
}

// loadPriceCSV reads a daily price series. Accepted layouts per row:
// date,close or date,open,high,low,close[,volume].
func loadPriceCSV(path string) ([]*domain.PricePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var points []*domain.PricePoint
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("line %d: bad date %q", line, record[0])
		}

		p := &domain.PricePoint{Date: date}
		switch {
		case len(record) >= 5:
			if p.Open, err = decimal.NewFromString(strings.TrimSpace(record[1])); err != nil {
				return nil, fmt.Errorf("line %d: bad open: %w", line, err)
			}
			if p.High, err = decimal.NewFromString(strings.TrimSpace(record[2])); err != nil {
				return nil, fmt.Errorf("line %d: bad high: %w", line, err)
			}
			if p.Low, err = decimal.NewFromString(strings.TrimSpace(record[3])); err != nil {
				return nil, fmt.Errorf("line %d: bad low: %w", line, err)
			}
			if p.Close, err = decimal.NewFromString(strings.TrimSpace(record[4])); err != nil {
				return nil, fmt.Errorf("line %d: bad close: %w", line, err)
			}
			if len(record) >= 6 {
				if p.Volume, err = strconv.ParseInt(strings.TrimSpace(record[5]), 10, 64); err != nil {
					return nil, fmt.Errorf("line %d: bad volume: %w", line, err)
				}
			}
		case len(record) == 2:
			if p.Close, err = decimal.NewFromString(strings.TrimSpace(record[1])); err != nil {
				return nil, fmt.Errorf("line %d: bad close: %w", line, err)
			}
		default:
			return nil, fmt.Errorf("line %d: expected date,close or date,open,high,low,close[,volume]", line)
		}

		points = append(points, p)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("no price rows in %s", path)
	}
	return points, nil
}
