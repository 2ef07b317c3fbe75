package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashFlow is a signed monetary amount on a date. Outflows (purchases) are
// negative, inflows (sales, mark-to-market valuations) are positive.
type CashFlow struct {
	Amount decimal.Decimal
	Date   time.Time
}
