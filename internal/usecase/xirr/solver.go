// Package xirr computes the extended internal rate of return: the annualized
// discount rate at which the net present value of an irregular cash-flow
// schedule is zero.
package xirr

import (
	"math"
	"sort"
	"time"

	"github.com/ricardolopes/holdings-backend/internal/domain"
)

const (
	// DefaultGuess is the starting rate for the Newton iteration (10%).
	DefaultGuess = 0.1

	maxIterations = 100
	tolerance     = 1e-6

	// minRate keeps (1+rate) strictly positive; rates at or below -100%
	// would put the discount factor through zero or into complex powers.
	minRate = -0.999999

	// maxRate caps the solution at 10,000% annualized; anything beyond is
	// economically implausible and treated as divergence.
	maxRate = 100.0

	daysPerYear = 365.0
)

// Solve runs SolveWithGuess with the default starting rate.
func Solve(flows []domain.CashFlow) (float64, bool) {
	return SolveWithGuess(flows, DefaultGuess)
}

// SolveWithGuess returns the annualized money-weighted rate of return for
// the given cash flows, or ok=false when no meaningful rate exists:
// fewer than two flows, all flows of one sign, a degenerate schedule with
// no solution, or a Newton iteration that diverges or cannot take a step.
//
// Undefined is a normal outcome, not an error; callers render it as "N/A".
// The function is pure and safe for concurrent use.
func SolveWithGuess(flows []domain.CashFlow, guess float64) (float64, bool) {
	if len(flows) < 2 {
		return 0, false
	}

	hasPositive, hasNegative := false, false
	for _, f := range flows {
		if f.Amount.IsPositive() {
			hasPositive = true
		}
		if f.Amount.IsNegative() {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return 0, false
	}

	sorted := make([]domain.CashFlow, len(flows))
	copy(sorted, flows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	start := sorted[0].Date
	amounts := make([]float64, len(sorted))
	years := make([]float64, len(sorted))
	sameDay := true
	for i, f := range sorted {
		amounts[i] = f.Amount.InexactFloat64()
		days := f.Date.Sub(start) / (24 * time.Hour)
		years[i] = float64(days) / daysPerYear
		if years[i] != 0 {
			sameDay = false
		}
	}

	// With every flow on one date the defining equation collapses to
	// sum(amounts) = 0: either the rate is irrelevant (return 0) or no
	// solution exists at all.
	if sameDay {
		sum := 0.0
		for _, a := range amounts {
			sum += a
		}
		if math.Abs(sum) <= tolerance {
			return 0, true
		}
		return 0, false
	}

	rate := guess
	for i := 0; i < maxIterations; i++ {
		if rate <= -1 {
			rate = minRate
		}

		npv := 0.0
		derivative := 0.0
		for j := range amounts {
			denominator := math.Pow(1+rate, years[j])
			if math.Abs(denominator) < tolerance {
				return 0, false
			}
			npv += amounts[j] / denominator
			if years[j] != 0 {
				derivative -= years[j] * amounts[j] / math.Pow(1+rate, years[j]+1)
			}
		}

		if math.Abs(npv) < tolerance {
			return rate, true
		}
		if math.Abs(derivative) < tolerance {
			// Newton step undefined.
			return 0, false
		}

		step := npv / derivative
		rate -= step
		if rate <= -1 {
			rate = minRate
		}
		if rate > maxRate {
			return 0, false
		}
		if math.Abs(step) < tolerance {
			return rate, true
		}
	}

	// Iteration budget exhausted without meeting the NPV tolerance; the
	// last estimate is still usable if it stayed in the plausible range.
	if rate > -1 && rate <= maxRate {
		return rate, true
	}
	return 0, false
}
