package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InstrumentRepository defines the interface for instrument persistence operations
type InstrumentRepository interface {
	// Create creates a new instrument
	Create(ctx context.Context, instrument *Instrument) error

	// GetByID retrieves an instrument by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Instrument, error)

	// GetBySymbol retrieves an instrument by its unique symbol
	GetBySymbol(ctx context.Context, symbol string) (*Instrument, error)

	// Update persists changes to an existing instrument (name, seed position)
	Update(ctx context.Context, instrument *Instrument) error

	// List retrieves all instruments ordered by symbol
	List(ctx context.Context) ([]*Instrument, error)
}

// TradeEventRepository defines the interface for trade event persistence operations
type TradeEventRepository interface {
	// Create persists a new event and assigns its insertion-order Sequence
	Create(ctx context.Context, event *TradeEvent) error

	// Update replaces the mutable fields of an existing event;
	// the Sequence assigned at creation is preserved
	Update(ctx context.Context, event *TradeEvent) error

	// Delete removes an event by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByID retrieves an event by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*TradeEvent, error)

	// ListByInstrument retrieves all events for an instrument ordered by
	// (timestamp, sequence) ascending
	ListByInstrument(ctx context.Context, instrumentID uuid.UUID) ([]*TradeEvent, error)
}

// SnapshotRepository defines the interface for ledger snapshot persistence operations
type SnapshotRepository interface {
	// Upsert replaces the stored snapshot for the instrument
	Upsert(ctx context.Context, snapshot *LedgerSnapshot) error

	// Get retrieves the current snapshot for an instrument
	Get(ctx context.Context, instrumentID uuid.UUID) (*LedgerSnapshot, error)
}

// PriceRepository defines the interface for daily price persistence operations
type PriceRepository interface {
	// UpsertBatch inserts or replaces daily bars (unique per instrument+date)
	UpsertBatch(ctx context.Context, points []*PricePoint) error

	// ListRange retrieves bars for an instrument with from <= date <= to,
	// ordered by date ascending. Zero time bounds mean unbounded.
	ListRange(ctx context.Context, instrumentID uuid.UUID, from, to time.Time) ([]*PricePoint, error)
}
