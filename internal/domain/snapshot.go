package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerSnapshot is the reconstructed cost-basis state of one instrument.
// It is a pure function of the instrument's seed position and its ordered
// event history: every mutation produces a fresh snapshot, the stored row
// is only ever replaced wholesale, never patched.
type LedgerSnapshot struct {
	InstrumentID uuid.UUID
	Quantity     decimal.Decimal
	TotalCost    decimal.Decimal
	AverageCost  decimal.Decimal // TotalCost/Quantity when Quantity > 0, else 0
	ComputedAt   time.Time
}

// MarketValue returns the position value at the given price.
func (s *LedgerSnapshot) MarketValue(price decimal.Decimal) decimal.Decimal {
	return s.Quantity.Mul(price)
}
