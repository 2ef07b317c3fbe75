package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ricardolopes/holdings-backend/internal/domain"
)

// Replay reconstructs the cost-basis state of one instrument from its seed
// position and the full event history. It is pure and idempotent: identical
// inputs always produce an identical snapshot, and the input slice is never
// mutated.
//
// seedQuantity/seedAvgCost describe the position held before the first
// recorded event; the running total cost starts at seedQuantity*seedAvgCost.
//
// Any malformed event fails the whole replay — no partial snapshot is
// produced, so the caller's previously stored snapshot stays intact.
func Replay(seedQuantity, seedAvgCost decimal.Decimal, events []*domain.TradeEvent) (*domain.LedgerSnapshot, error) {
	sorted := make([]*domain.TradeEvent, len(events))
	copy(sorted, events)

	// Order by timestamp; same-timestamp events keep insertion order.
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].Sequence < sorted[j].Sequence
	})

	quantity := seedQuantity
	totalCost := seedQuantity.Mul(seedAvgCost)

	for _, ev := range sorted {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}

		switch ev.Kind {
		case domain.EventBuy:
			quantity = quantity.Add(ev.Quantity)
			totalCost = totalCost.Add(ev.Quantity.Mul(ev.Price))

		case domain.EventSell:
			// Cost is reduced by the sale notional, not by the position's
			// average cost. Realized P/L therefore stays inside the basis;
			// flagged for product clarification in DESIGN.md.
			quantity = quantity.Sub(ev.Quantity)
			totalCost = totalCost.Sub(ev.Quantity.Mul(ev.Price))

		case domain.EventCashDividend:
			// Payout lowers the effective cost of the position.
			payout := ev.Quantity.Mul(ev.Price)
			if payout.IsPositive() {
				totalCost = totalCost.Sub(payout)
			}

		case domain.EventStockSplit:
			if ev.Price.IsPositive() {
				quantity = quantity.Mul(ev.Price)
			}

		case domain.EventStockDividend:
			// Bonus shares proportional to the holding at event time.
			if ev.Price.IsPositive() {
				quantity = quantity.Add(quantity.Mul(ev.Price))
			}
		}
	}

	averageCost := decimal.Zero
	if quantity.IsPositive() {
		averageCost = totalCost.Div(quantity)
	}

	return &domain.LedgerSnapshot{
		Quantity:    quantity,
		TotalCost:   totalCost,
		AverageCost: averageCost,
	}, nil
}
