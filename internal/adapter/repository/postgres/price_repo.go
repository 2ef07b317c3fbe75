package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ricardolopes/holdings-backend/internal/domain"
)

// priceRepository implements domain.PriceRepository
type priceRepository struct {
	db *DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *DB) domain.PriceRepository {
	return &priceRepository{db: db}
}

// UpsertBatch inserts or replaces daily bars inside one database transaction
func (r *priceRepository) UpsertBatch(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO price_points (instrument_id, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (instrument_id, date) DO UPDATE
		SET open = EXCLUDED.open,
		    high = EXCLUDED.high,
		    low = EXCLUDED.low,
		    close = EXCLUDED.close,
		    volume = EXCLUDED.volume
	`

	for _, p := range points {
		_, err = dbTx.ExecContext(ctx, query,
			p.InstrumentID,
			p.Date,
			p.Open.String(),
			p.High.String(),
			p.Low.String(),
			p.Close.String(),
			p.Volume,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert price point: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListRange retrieves bars ascending by date; zero bounds mean unbounded
func (r *priceRepository) ListRange(ctx context.Context, instrumentID uuid.UUID, from, to time.Time) ([]*domain.PricePoint, error) {
	query := `
		SELECT instrument_id, date, open, high, low, close, volume
		FROM price_points
		WHERE instrument_id = $1
		  AND ($2::timestamptz IS NULL OR date >= $2)
		  AND ($3::timestamptz IS NULL OR date <= $3)
		ORDER BY date
	`

	var fromArg, toArg any
	if !from.IsZero() {
		fromArg = from
	}
	if !to.IsZero() {
		toArg = to
	}

	rows, err := r.db.QueryContext(ctx, query, instrumentID, fromArg, toArg)
	if err != nil {
		return nil, fmt.Errorf("failed to list price points: %w", err)
	}
	defer rows.Close()

	points := make([]*domain.PricePoint, 0)
	for rows.Next() {
		var p domain.PricePoint
		var openStr, highStr, lowStr, closeStr string

		err := rows.Scan(&p.InstrumentID, &p.Date, &openStr, &highStr, &lowStr, &closeStr, &p.Volume)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}

		if p.Open, err = decimal.NewFromString(openStr); err != nil {
			return nil, fmt.Errorf("failed to parse open: %w", err)
		}
		if p.High, err = decimal.NewFromString(highStr); err != nil {
			return nil, fmt.Errorf("failed to parse high: %w", err)
		}
		if p.Low, err = decimal.NewFromString(lowStr); err != nil {
			return nil, fmt.Errorf("failed to parse low: %w", err)
		}
		if p.Close, err = decimal.NewFromString(closeStr); err != nil {
			return nil, fmt.Errorf("failed to parse close: %w", err)
		}

		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price points: %w", err)
	}

	return points, nil
}
