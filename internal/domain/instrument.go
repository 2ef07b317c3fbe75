package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Instrument represents a tracked security in the domain layer.
// The seed fields carry the position held before the first recorded event
// (pre-ledger history); editing them triggers a full snapshot recompute.
type Instrument struct {
	ID           uuid.UUID
	Symbol       string
	Name         string
	SeedQuantity decimal.Decimal // shares held before the event history starts
	SeedCost     decimal.Decimal // average cost per share of the seed position
	CreatedAt    time.Time
}

// Validate ensures the instrument adheres to domain rules
func (i *Instrument) Validate() error {
	if i.Symbol == "" {
		return errors.New("instrument symbol cannot be empty")
	}
	if i.SeedQuantity.IsNegative() {
		return errors.New("seed quantity cannot be negative")
	}
	if i.SeedCost.IsNegative() {
		return errors.New("seed cost cannot be negative")
	}
	return nil
}
