// Package memory provides map-backed implementations of the domain
// repositories for tests and offline CLI use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ricardolopes/holdings-backend/internal/domain"
)

// Store is the shared backing state for the in-memory repositories.
type Store struct {
	mu          sync.RWMutex
	instruments map[uuid.UUID]domain.Instrument
	events      map[uuid.UUID]domain.TradeEvent
	snapshots   map[uuid.UUID]domain.LedgerSnapshot
	prices      map[uuid.UUID]map[time.Time]domain.PricePoint
	nextSeq     int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		instruments: make(map[uuid.UUID]domain.Instrument),
		events:      make(map[uuid.UUID]domain.TradeEvent),
		snapshots:   make(map[uuid.UUID]domain.LedgerSnapshot),
		prices:      make(map[uuid.UUID]map[time.Time]domain.PricePoint),
	}
}

// ---- InstrumentRepository ----

type instrumentRepo struct{ store *Store }

// NewInstrumentRepository creates an in-memory instrument repository.
func NewInstrumentRepository(store *Store) domain.InstrumentRepository {
	return &instrumentRepo{store: store}
}

func (r *instrumentRepo) Create(ctx context.Context, instrument *domain.Instrument) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.instruments {
		if existing.Symbol == instrument.Symbol {
			return fmt.Errorf("instrument symbol %q already exists", instrument.Symbol)
		}
	}
	r.store.instruments[instrument.ID] = *instrument
	return nil
}

func (r *instrumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Instrument, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	instrument, ok := r.store.instruments[id]
	if !ok {
		return nil, fmt.Errorf("instrument %s: %w", id, domain.ErrNotFound)
	}
	return &instrument, nil
}

func (r *instrumentRepo) GetBySymbol(ctx context.Context, symbol string) (*domain.Instrument, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, instrument := range r.store.instruments {
		if instrument.Symbol == symbol {
			found := instrument
			return &found, nil
		}
	}
	return nil, fmt.Errorf("instrument %q: %w", symbol, domain.ErrNotFound)
}

func (r *instrumentRepo) Update(ctx context.Context, instrument *domain.Instrument) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.instruments[instrument.ID]; !ok {
		return fmt.Errorf("instrument %s: %w", instrument.ID, domain.ErrNotFound)
	}
	r.store.instruments[instrument.ID] = *instrument
	return nil
}

func (r *instrumentRepo) List(ctx context.Context) ([]*domain.Instrument, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	instruments := make([]*domain.Instrument, 0, len(r.store.instruments))
	for _, instrument := range r.store.instruments {
		found := instrument
		instruments = append(instruments, &found)
	}
	sort.Slice(instruments, func(i, j int) bool {
		return instruments[i].Symbol < instruments[j].Symbol
	})
	return instruments, nil
}

// ---- TradeEventRepository ----

type tradeEventRepo struct{ store *Store }

// NewTradeEventRepository creates an in-memory trade event repository.
func NewTradeEventRepository(store *Store) domain.TradeEventRepository {
	return &tradeEventRepo{store: store}
}

func (r *tradeEventRepo) Create(ctx context.Context, event *domain.TradeEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextSeq++
	event.Sequence = r.store.nextSeq
	r.store.events[event.ID] = *event
	return nil
}

func (r *tradeEventRepo) Update(ctx context.Context, event *domain.TradeEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.events[event.ID]
	if !ok {
		return fmt.Errorf("trade event %s: %w", event.ID, domain.ErrNotFound)
	}
	event.Sequence = existing.Sequence
	r.store.events[event.ID] = *event
	return nil
}

func (r *tradeEventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[id]; !ok {
		return fmt.Errorf("trade event %s: %w", id, domain.ErrNotFound)
	}
	delete(r.store.events, id)
	return nil
}

func (r *tradeEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TradeEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	event, ok := r.store.events[id]
	if !ok {
		return nil, fmt.Errorf("trade event %s: %w", id, domain.ErrNotFound)
	}
	return &event, nil
}

func (r *tradeEventRepo) ListByInstrument(ctx context.Context, instrumentID uuid.UUID) ([]*domain.TradeEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	events := make([]*domain.TradeEvent, 0)
	for _, event := range r.store.events {
		if event.InstrumentID == instrumentID {
			found := event
			events = append(events, &found)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].Sequence < events[j].Sequence
	})
	return events, nil
}

// ---- SnapshotRepository ----

type snapshotRepo struct{ store *Store }

// NewSnapshotRepository creates an in-memory snapshot repository.
func NewSnapshotRepository(store *Store) domain.SnapshotRepository {
	return &snapshotRepo{store: store}
}

func (r *snapshotRepo) Upsert(ctx context.Context, snapshot *domain.LedgerSnapshot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.snapshots[snapshot.InstrumentID] = *snapshot
	return nil
}

func (r *snapshotRepo) Get(ctx context.Context, instrumentID uuid.UUID) (*domain.LedgerSnapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	snapshot, ok := r.store.snapshots[instrumentID]
	if !ok {
		return nil, fmt.Errorf("ledger snapshot for instrument %s: %w", instrumentID, domain.ErrNotFound)
	}
	return &snapshot, nil
}

// ---- PriceRepository ----

type priceRepo struct{ store *Store }

// NewPriceRepository creates an in-memory price repository.
func NewPriceRepository(store *Store) domain.PriceRepository {
	return &priceRepo{store: store}
}

func (r *priceRepo) UpsertBatch(ctx context.Context, points []*domain.PricePoint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range points {
		byDate, ok := r.store.prices[p.InstrumentID]
		if !ok {
			byDate = make(map[time.Time]domain.PricePoint)
			r.store.prices[p.InstrumentID] = byDate
		}
		byDate[p.Date.UTC()] = *p
	}
	return nil
}

func (r *priceRepo) ListRange(ctx context.Context, instrumentID uuid.UUID, from, to time.Time) ([]*domain.PricePoint, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	points := make([]*domain.PricePoint, 0)
	for _, p := range r.store.prices[instrumentID] {
		if !from.IsZero() && p.Date.Before(from) {
			continue
		}
		if !to.IsZero() && p.Date.After(to) {
			continue
		}
		found := p
		points = append(points, &found)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}
