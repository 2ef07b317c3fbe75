package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricePoint is one daily OHLCV bar for an instrument. Price history is
// written by the market-data collaborator and read-only to the core.
type PricePoint struct {
	InstrumentID uuid.UUID
	Date         time.Time
	Open         decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	Close        decimal.Decimal
	Volume       int64
}
