package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind is the closed set of trade-like event types the ledger replays.
type EventKind string

const (
	EventBuy           EventKind = "BUY"
	EventSell          EventKind = "SELL"
	EventCashDividend  EventKind = "CASH_DIVIDEND"
	EventStockDividend EventKind = "STOCK_DIVIDEND"
	EventStockSplit    EventKind = "STOCK_SPLIT"
)

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventBuy, EventSell, EventCashDividend, EventStockDividend, EventStockSplit:
		return true
	}
	return false
}

// TradeEvent represents a single entry in an instrument's event history.
// The meaning of Quantity and Price depends on Kind:
//   - BUY/SELL: Quantity is shares, Price is the execution price
//   - CASH_DIVIDEND: Quantity is shares held, Price is the per-share payout
//   - STOCK_SPLIT/STOCK_DIVIDEND: Price carries the ratio, Quantity is unused
//
// Events are immutable once created except for corrective edits; every edit
// must be followed by a full ledger recompute for the instrument.
type TradeEvent struct {
	ID           uuid.UUID
	InstrumentID uuid.UUID
	Kind         EventKind
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	Timestamp    time.Time
	Sequence     int64 // insertion order, tiebreaker for same-timestamp events
}

// Validate ensures the event adheres to domain rules.
// Non-positive dividend payouts and split ratios are legal no-ops during
// replay, so only the hard malformations are rejected here.
func (e *TradeEvent) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	switch e.Kind {
	case EventBuy, EventSell:
		if e.Quantity.IsNegative() {
			return errors.New("quantity cannot be negative for a buy or sell event")
		}
		if e.Price.IsNegative() {
			return errors.New("price cannot be negative for a buy or sell event")
		}
	}
	return nil
}
