package httpapi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ricardolopes/holdings-backend/internal/domain"
	"github.com/ricardolopes/holdings-backend/internal/usecase/backtest"
	"github.com/ricardolopes/holdings-backend/internal/usecase/valuation"
)

// Monetary amounts and quantities travel as strings so no precision is lost
// in transit; the XIRR rate is a nullable number (null renders as "N/A").

type instrumentRequest struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	SeedQuantity string `json:"seed_quantity"`
	SeedCost     string `json:"seed_cost"`
}

type instrumentResponse struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	SeedQuantity string    `json:"seed_quantity"`
	SeedCost     string    `json:"seed_cost"`
	CreatedAt    time.Time `json:"created_at"`
}

type eventRequest struct {
	Kind      string `json:"kind"`
	Quantity  string `json:"quantity,omitempty"`
	Price     string `json:"price"`
	Timestamp string `json:"timestamp,omitempty"` // RFC 3339; defaults to now
}

type eventResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Quantity  string    `json:"quantity"`
	Price     string    `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Sequence  int64     `json:"sequence"`
}

type snapshotResponse struct {
	InstrumentID string    `json:"instrument_id"`
	Quantity     string    `json:"quantity"`
	TotalCost    string    `json:"total_cost"`
	AverageCost  string    `json:"average_cost"`
	ComputedAt   time.Time `json:"computed_at"`
}

type eventMutationResponse struct {
	Event    *eventResponse    `json:"event,omitempty"`
	Snapshot *snapshotResponse `json:"snapshot"`
}

type valuationResponse struct {
	Quantity     string   `json:"quantity"`
	AverageCost  string   `json:"average_cost"`
	TotalCost    string   `json:"total_cost"`
	CurrentPrice string   `json:"current_price"`
	MarketValue  string   `json:"market_value"`
	Profit       string   `json:"profit"`
	XIRR         *float64 `json:"xirr"`
}

type pricePointRequest struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume int64  `json:"volume"`
}

type backtestRequest struct {
	Amount          string `json:"amount"`
	IntervalPercent string `json:"interval_percent"`
	From            string `json:"from,omitempty"` // YYYY-MM-DD
	To              string `json:"to,omitempty"`
}

type backtestTradeResponse struct {
	Side     string    `json:"side"`
	Price    string    `json:"price"`
	Quantity int64     `json:"quantity"`
	Date     time.Time `json:"date"`
}

type cashFlowResponse struct {
	Amount string    `json:"amount"`
	Date   time.Time `json:"date"`
}

type backtestResponse struct {
	Trades          []backtestTradeResponse `json:"trades"`
	CashFlows       []cashFlowResponse      `json:"cash_flows"`
	TotalProfit     string                  `json:"total_profit"`
	MaxCashRequired string                  `json:"max_cash_required"`
	TradeCount      int                     `json:"trade_count"`
	FinalShares     int64                   `json:"final_shares"`
	FinalPrice      string                  `json:"final_price"`
	XIRR            *float64                `json:"xirr"`
}

func instrumentToResponse(instrument *domain.Instrument) *instrumentResponse {
	return &instrumentResponse{
		ID:           instrument.ID.String(),
		Symbol:       instrument.Symbol,
		Name:         instrument.Name,
		SeedQuantity: instrument.SeedQuantity.String(),
		SeedCost:     instrument.SeedCost.String(),
		CreatedAt:    instrument.CreatedAt,
	}
}

func eventToResponse(event *domain.TradeEvent) *eventResponse {
	return &eventResponse{
		ID:        event.ID.String(),
		Kind:      string(event.Kind),
		Quantity:  event.Quantity.String(),
		Price:     event.Price.String(),
		Timestamp: event.Timestamp,
		Sequence:  event.Sequence,
	}
}

func snapshotToResponse(snapshot *domain.LedgerSnapshot) *snapshotResponse {
	return &snapshotResponse{
		InstrumentID: snapshot.InstrumentID.String(),
		Quantity:     snapshot.Quantity.String(),
		TotalCost:    snapshot.TotalCost.String(),
		AverageCost:  snapshot.AverageCost.String(),
		ComputedAt:   snapshot.ComputedAt,
	}
}

func valuationToResponse(result *valuation.Result) *valuationResponse {
	resp := &valuationResponse{
		Quantity:     result.Quantity.String(),
		AverageCost:  result.AverageCost.String(),
		TotalCost:    result.TotalCost.String(),
		CurrentPrice: result.CurrentPrice.String(),
		MarketValue:  result.MarketValue.String(),
		Profit:       result.Profit.String(),
	}
	if result.XIRRValid {
		rate := result.XIRR
		resp.XIRR = &rate
	}
	return resp
}

func backtestToResponse(report *backtest.Report) *backtestResponse {
	trades := make([]backtestTradeResponse, 0, len(report.Trades))
	for _, t := range report.Trades {
		trades = append(trades, backtestTradeResponse{
			Side:     string(t.Side),
			Price:    t.Price.String(),
			Quantity: t.Quantity,
			Date:     t.Date,
		})
	}

	flows := make([]cashFlowResponse, 0, len(report.CashFlows))
	for _, f := range report.CashFlows {
		flows = append(flows, cashFlowResponse{Amount: f.Amount.String(), Date: f.Date})
	}

	resp := &backtestResponse{
		Trades:          trades,
		CashFlows:       flows,
		TotalProfit:     report.TotalProfit.String(),
		MaxCashRequired: report.MaxCashRequired.String(),
		TradeCount:      report.TradeCount,
		FinalShares:     report.FinalShares,
		FinalPrice:      report.FinalPrice.String(),
	}
	if report.XIRRValid {
		rate := report.XIRR
		resp.XIRR = &rate
	}
	return resp
}

// parseDecimal parses a required decimal field.
func parseDecimal(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Decimal{}, fmt.Errorf("%s is required", field)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return d, nil
}

// parseOptionalDecimal parses a decimal field that defaults to zero.
func parseOptionalDecimal(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return parseDecimal(field, value)
}

const dateLayout = "2006-01-02"

// parseOptionalDate parses a YYYY-MM-DD field; empty means the zero time.
func parseOptionalDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return t, nil
}
