package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ricardolopes/holdings-backend/internal/domain"
)

// tradeEventRepository implements domain.TradeEventRepository
type tradeEventRepository struct {
	db *DB
}

// NewTradeEventRepository creates a new trade event repository
func NewTradeEventRepository(db *DB) domain.TradeEventRepository {
	return &tradeEventRepository{db: db}
}

// Create persists a new event. The sequence column is a BIGSERIAL, so the
// database assigns the insertion order and we read it back into the event.
func (r *tradeEventRepository) Create(ctx context.Context, event *domain.TradeEvent) error {
	query := `
		INSERT INTO trade_events (id, instrument_id, kind, quantity, price, event_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING sequence
	`

	err := r.db.QueryRowContext(ctx, query,
		event.ID,
		event.InstrumentID,
		string(event.Kind),
		event.Quantity.String(),
		event.Price.String(),
		event.Timestamp,
	).Scan(&event.Sequence)
	if err != nil {
		return fmt.Errorf("failed to insert trade event: %w", err)
	}

	return nil
}

// Update replaces the mutable fields of an existing event. The sequence
// assigned at creation is left untouched so corrective edits keep their
// original tiebreaker position.
func (r *tradeEventRepository) Update(ctx context.Context, event *domain.TradeEvent) error {
	query := `
		UPDATE trade_events
		SET kind = $2, quantity = $3, price = $4, event_time = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		event.ID,
		string(event.Kind),
		event.Quantity.String(),
		event.Price.String(),
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("trade event %s: %w", event.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes an event by ID
func (r *tradeEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trade_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("trade event %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// GetByID retrieves an event by its ID
func (r *tradeEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TradeEvent, error) {
	query := `
		SELECT id, instrument_id, kind, quantity, price, event_time, sequence
		FROM trade_events
		WHERE id = $1
	`

	event, err := scanTradeEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trade event %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return event, nil
}

// ListByInstrument retrieves all events for an instrument in replay order
func (r *tradeEventRepository) ListByInstrument(ctx context.Context, instrumentID uuid.UUID) ([]*domain.TradeEvent, error) {
	query := `
		SELECT id, instrument_id, kind, quantity, price, event_time, sequence
		FROM trade_events
		WHERE instrument_id = $1
		ORDER BY event_time, sequence
	`

	rows, err := r.db.QueryContext(ctx, query, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trade events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.TradeEvent, 0)
	for rows.Next() {
		event, err := scanTradeEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trade events: %w", err)
	}

	return events, nil
}

func scanTradeEvent(row rowScanner) (*domain.TradeEvent, error) {
	var event domain.TradeEvent
	var kindStr, quantityStr, priceStr string

	err := row.Scan(
		&event.ID,
		&event.InstrumentID,
		&kindStr,
		&quantityStr,
		&priceStr,
		&event.Timestamp,
		&event.Sequence,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan trade event: %w", err)
	}

	event.Kind = domain.EventKind(kindStr)
	if event.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse quantity: %w", err)
	}
	if event.Price, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}

	return &event, nil
}
