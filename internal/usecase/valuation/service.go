// Package valuation composes a ledger snapshot, a current market price and
// the instrument's buy/sell history into a per-instrument performance view.
package valuation

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ricardolopes/holdings-backend/internal/domain"
	"github.com/ricardolopes/holdings-backend/internal/usecase/xirr"
)

// Result is the performance snapshot surfaced to dashboards.
type Result struct {
	Quantity     decimal.Decimal
	AverageCost  decimal.Decimal
	TotalCost    decimal.Decimal
	CurrentPrice decimal.Decimal
	MarketValue  decimal.Decimal
	Profit       decimal.Decimal // market value minus cost basis
	XIRR         float64
	XIRRValid    bool // false renders as "N/A"
}

// Evaluate builds the performance snapshot from already-materialized
// inputs. The cash-flow schedule uses buy/sell events only (buys negative,
// sells positive) plus a synthetic mark-to-market inflow dated now. With no
// buy/sell history there is no return metric and only the snapshot-derived
// profit is reported.
func Evaluate(snapshot *domain.LedgerSnapshot, events []*domain.TradeEvent, currentPrice decimal.Decimal, now time.Time) *Result {
	marketValue := snapshot.MarketValue(currentPrice)

	result := &Result{
		Quantity:     snapshot.Quantity,
		AverageCost:  snapshot.AverageCost,
		TotalCost:    snapshot.TotalCost,
		CurrentPrice: currentPrice,
		MarketValue:  marketValue,
		Profit:       marketValue.Sub(snapshot.TotalCost),
	}

	flows := make([]domain.CashFlow, 0, len(events)+1)
	for _, ev := range events {
		switch ev.Kind {
		case domain.EventBuy:
			flows = append(flows, domain.CashFlow{
				Amount: ev.Quantity.Mul(ev.Price).Neg(),
				Date:   ev.Timestamp,
			})
		case domain.EventSell:
			flows = append(flows, domain.CashFlow{
				Amount: ev.Quantity.Mul(ev.Price),
				Date:   ev.Timestamp,
			})
		}
	}
	if len(flows) == 0 {
		return result
	}

	flows = append(flows, domain.CashFlow{Amount: marketValue, Date: now})
	result.XIRR, result.XIRRValid = xirr.Solve(flows)
	return result
}

// Service resolves an instrument's stored snapshot and event history and
// evaluates them against a caller-supplied market price.
type Service struct {
	InstrumentRepo domain.InstrumentRepository
	EventRepo      domain.TradeEventRepository
	SnapshotRepo   domain.SnapshotRepository
}

// NewService creates a new valuation Service instance
func NewService(
	instrumentRepo domain.InstrumentRepository,
	eventRepo domain.TradeEventRepository,
	snapshotRepo domain.SnapshotRepository,
) *Service {
	return &Service{
		InstrumentRepo: instrumentRepo,
		EventRepo:      eventRepo,
		SnapshotRepo:   snapshotRepo,
	}
}

// EvaluateSymbol produces the performance snapshot for one instrument at
// the given market price.
func (s *Service) EvaluateSymbol(ctx context.Context, symbol string, currentPrice decimal.Decimal, now time.Time) (*Result, error) {
	if !currentPrice.IsPositive() {
		return nil, errors.New("current price must be positive")
	}

	instrument, err := s.InstrumentRepo.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.SnapshotRepo.Get(ctx, instrument.ID)
	if err != nil {
		return nil, err
	}

	events, err := s.EventRepo.ListByInstrument(ctx, instrument.ID)
	if err != nil {
		return nil, err
	}

	return Evaluate(snapshot, events, currentPrice, now), nil
}
