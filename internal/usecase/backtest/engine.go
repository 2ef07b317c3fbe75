// Package backtest simulates a percentage-interval grid-trading strategy
// against historical daily prices: buy a fixed notional on every drop of
// intervalPercent below the last trade price, sell on every equivalent rise.
package backtest

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ricardolopes/holdings-backend/internal/domain"
	"github.com/ricardolopes/holdings-backend/internal/usecase/xirr"
)

// lotSize is the minimum tradable share increment.
const lotSize = 100

var (
	hundred = decimal.NewFromInt(100)

	errAmountNotPositive   = errors.New("amount must be positive")
	errIntervalNotPositive = errors.New("interval percent must be positive")
	errNoPrices            = errors.New("price series cannot be empty")
)

// Params are the two scalar inputs of the grid strategy.
type Params struct {
	Amount          decimal.Decimal // notional to deploy per grid step
	IntervalPercent decimal.Decimal // trigger distance from the last trade price
}

// TradeSide labels a simulated execution.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// Trade is one simulated execution. Trades are engine output only and are
// never persisted.
type Trade struct {
	Side     TradeSide
	Price    decimal.Decimal
	Quantity int64
	Date     time.Time
}

// Report is the outcome of one simulation run.
type Report struct {
	Trades          []Trade
	CashFlows       []domain.CashFlow
	TotalProfit     decimal.Decimal // ending cash + value of remaining shares
	MaxCashRequired decimal.Decimal // peak capital the strategy had deployed
	TradeCount      int
	FinalShares     int64
	FinalPrice      decimal.Decimal
	XIRR            float64
	XIRRValid       bool
}

// roundToLot rounds a share count to the nearest full lot. A result of zero
// means the step's trade is skipped.
func roundToLot(shares decimal.Decimal) int64 {
	return shares.Div(decimal.NewFromInt(lotSize)).Round(0).IntPart() * lotSize
}

// Run simulates the grid strategy over an ascending daily price series.
// The simulation is a pure function of its inputs and holds no state
// between calls, so runs may be parallelized freely.
func Run(prices []*domain.PricePoint, params Params) (*Report, error) {
	if !params.Amount.IsPositive() {
		return nil, errAmountNotPositive
	}
	if !params.IntervalPercent.IsPositive() {
		return nil, errIntervalNotPositive
	}
	if len(prices) == 0 {
		return nil, errNoPrices
	}

	var (
		trades []Trade
		flows  []domain.CashFlow
		shares int64

		cash = decimal.Zero
		// Most negative cash level reached; its magnitude is the peak
		// capital requirement of the strategy.
		maxCashOccupied = decimal.Zero
	)

	buy := func(price decimal.Decimal, date time.Time, quantity int64) {
		cost := price.Mul(decimal.NewFromInt(quantity))
		cash = cash.Sub(cost)
		shares += quantity
		trades = append(trades, Trade{Side: SideBuy, Price: price, Quantity: quantity, Date: date})
		flows = append(flows, domain.CashFlow{Amount: cost.Neg(), Date: date})
		if cash.LessThan(maxCashOccupied) {
			maxCashOccupied = cash
		}
	}

	// Opening position at the reference close.
	first := prices[0]
	lastTradePrice := first.Close
	if qty := roundToLot(params.Amount.Div(first.Close)); qty > 0 {
		buy(first.Close, first.Date, qty)
	}

	for _, p := range prices[1:] {
		percentChange := p.Close.Sub(lastTradePrice).Div(lastTradePrice).Mul(hundred)

		switch {
		case percentChange.LessThanOrEqual(params.IntervalPercent.Neg()):
			qty := roundToLot(params.Amount.Div(p.Close))
			if qty == 0 {
				// Lot rounded to zero: skip the step, state unchanged.
				continue
			}
			buy(p.Close, p.Date, qty)
			lastTradePrice = p.Close

		case percentChange.GreaterThanOrEqual(params.IntervalPercent):
			qty := roundToLot(params.Amount.Div(p.Close))
			if qty > shares {
				qty = shares
			}
			if qty == 0 {
				continue
			}
			proceeds := p.Close.Mul(decimal.NewFromInt(qty))
			cash = cash.Add(proceeds)
			shares -= qty
			trades = append(trades, Trade{Side: SideSell, Price: p.Close, Quantity: qty, Date: p.Date})
			flows = append(flows, domain.CashFlow{Amount: proceeds, Date: p.Date})
			lastTradePrice = p.Close
		}
	}

	// Mark the open position to market for return computation only; this
	// synthetic flow is not a trade and never enters the trade log.
	final := prices[len(prices)-1]
	holdingValue := final.Close.Mul(decimal.NewFromInt(shares))
	if holdingValue.IsPositive() {
		flows = append(flows, domain.CashFlow{Amount: holdingValue, Date: final.Date})
	}

	rate, ok := xirr.Solve(flows)

	return &Report{
		Trades:          trades,
		CashFlows:       flows,
		TotalProfit:     cash.Add(holdingValue),
		MaxCashRequired: maxCashOccupied.Abs(),
		TradeCount:      len(trades),
		FinalShares:     shares,
		FinalPrice:      final.Close,
		XIRR:            rate,
		XIRRValid:       ok,
	}, nil
}
