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

// instrumentRepository implements domain.InstrumentRepository
type instrumentRepository struct {
	db *DB
}

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(db *DB) domain.InstrumentRepository {
	return &instrumentRepository{db: db}
}

// Create creates a new instrument
func (r *instrumentRepository) Create(ctx context.Context, instrument *domain.Instrument) error {
	query := `
		INSERT INTO instruments (id, symbol, name, seed_quantity, seed_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		instrument.ID,
		instrument.Symbol,
		instrument.Name,
		instrument.SeedQuantity.String(),
		instrument.SeedCost.String(),
		instrument.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert instrument: %w", err)
	}

	return nil
}

// GetByID retrieves an instrument by its ID
func (r *instrumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Instrument, error) {
	query := `
		SELECT id, symbol, name, seed_quantity, seed_cost, created_at
		FROM instruments
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetBySymbol retrieves an instrument by its unique symbol
func (r *instrumentRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.Instrument, error) {
	query := `
		SELECT id, symbol, name, seed_quantity, seed_cost, created_at
		FROM instruments
		WHERE symbol = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, symbol))
}

// Update persists changes to an existing instrument
func (r *instrumentRepository) Update(ctx context.Context, instrument *domain.Instrument) error {
	query := `
		UPDATE instruments
		SET name = $2, seed_quantity = $3, seed_cost = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		instrument.ID,
		instrument.Name,
		instrument.SeedQuantity.String(),
		instrument.SeedCost.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update instrument: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("instrument %s: %w", instrument.ID, domain.ErrNotFound)
	}

	return nil
}

// List retrieves all instruments ordered by symbol
func (r *instrumentRepository) List(ctx context.Context) ([]*domain.Instrument, error) {
	query := `
		SELECT id, symbol, name, seed_quantity, seed_cost, created_at
		FROM instruments
		ORDER BY symbol
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	defer rows.Close()

	instruments := make([]*domain.Instrument, 0)
	for rows.Next() {
		instrument, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, instrument)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instruments: %w", err)
	}

	return instruments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *instrumentRepository) scanOne(row *sql.Row) (*domain.Instrument, error) {
	instrument, err := scanInstrument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("instrument: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return instrument, nil
}

func scanInstrument(row rowScanner) (*domain.Instrument, error) {
	var instrument domain.Instrument
	var seedQuantityStr, seedCostStr string

	err := row.Scan(
		&instrument.ID,
		&instrument.Symbol,
		&instrument.Name,
		&seedQuantityStr,
		&seedCostStr,
		&instrument.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan instrument: %w", err)
	}

	if instrument.SeedQuantity, err = decimal.NewFromString(seedQuantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse seed_quantity: %w", err)
	}
	if instrument.SeedCost, err = decimal.NewFromString(seedCostStr); err != nil {
		return nil, fmt.Errorf("failed to parse seed_cost: %w", err)
	}

	return &instrument, nil
}
