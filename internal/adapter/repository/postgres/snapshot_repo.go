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

// snapshotRepository implements domain.SnapshotRepository
type snapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new ledger snapshot repository
func NewSnapshotRepository(db *DB) domain.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Upsert replaces the stored snapshot for the instrument. The snapshot has
// no lifecycle of its own — one row per instrument, replaced wholesale.
func (r *snapshotRepository) Upsert(ctx context.Context, snapshot *domain.LedgerSnapshot) error {
	query := `
		INSERT INTO ledger_snapshots (instrument_id, quantity, total_cost, average_cost, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (instrument_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    total_cost = EXCLUDED.total_cost,
		    average_cost = EXCLUDED.average_cost,
		    computed_at = EXCLUDED.computed_at
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.InstrumentID,
		snapshot.Quantity.String(),
		snapshot.TotalCost.String(),
		snapshot.AverageCost.String(),
		snapshot.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ledger snapshot: %w", err)
	}

	return nil
}

// Get retrieves the current snapshot for an instrument
func (r *snapshotRepository) Get(ctx context.Context, instrumentID uuid.UUID) (*domain.LedgerSnapshot, error) {
	query := `
		SELECT instrument_id, quantity, total_cost, average_cost, computed_at
		FROM ledger_snapshots
		WHERE instrument_id = $1
	`

	var snapshot domain.LedgerSnapshot
	var quantityStr, totalCostStr, averageCostStr string

	err := r.db.QueryRowContext(ctx, query, instrumentID).Scan(
		&snapshot.InstrumentID,
		&quantityStr,
		&totalCostStr,
		&averageCostStr,
		&snapshot.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ledger snapshot for instrument %s: %w", instrumentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ledger snapshot: %w", err)
	}

	if snapshot.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse quantity: %w", err)
	}
	if snapshot.TotalCost, err = decimal.NewFromString(totalCostStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_cost: %w", err)
	}
	if snapshot.AverageCost, err = decimal.NewFromString(averageCostStr); err != nil {
		return nil, fmt.Errorf("failed to parse average_cost: %w", err)
	}

	return &snapshot, nil
}
