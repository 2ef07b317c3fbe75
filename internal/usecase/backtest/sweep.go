package backtest

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ricardolopes/holdings-backend/internal/domain"
)

// SweepResult pairs one interval of a parameter sweep with its report.
type SweepResult struct {
	IntervalPercent decimal.Decimal
	Report          *Report
	Err             error
}

// Sweep runs one backtest per interval over the same price series on a
// bounded worker pool. The engine is pure, so the runs are independent;
// results come back in the order of the intervals argument.
func Sweep(prices []*domain.PricePoint, amount decimal.Decimal, intervals []decimal.Decimal, workers int) []SweepResult {
	if workers <= 0 {
		workers = 1
	}

	results := make([]SweepResult, len(intervals))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, interval := range intervals {
		wg.Add(1)
		go func(i int, interval decimal.Decimal) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			report, err := Run(prices, Params{Amount: amount, IntervalPercent: interval})
			results[i] = SweepResult{IntervalPercent: interval, Report: report, Err: err}
		}(i, interval)
	}

	wg.Wait()
	return results
}
