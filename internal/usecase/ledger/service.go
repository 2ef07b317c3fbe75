package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ricardolopes/holdings-backend/internal/domain"
)

// Service owns the consistency discipline around trade events: every
// creation, edit or deletion of an event — and every edit of an
// instrument's seed position — is followed by a full snapshot recompute
// before the per-instrument lock is released. Incremental snapshot updates
// are deliberately not supported; per-instrument event counts are small
// enough that the O(n) replay is the cheaper price for correctness.
//
// Recomputation for different instruments is independent and runs in
// parallel; only same-instrument mutations serialize.
type Service struct {
	InstrumentRepo domain.InstrumentRepository
	EventRepo      domain.TradeEventRepository
	SnapshotRepo   domain.SnapshotRepository

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewService creates a new ledger Service instance
func NewService(
	instrumentRepo domain.InstrumentRepository,
	eventRepo domain.TradeEventRepository,
	snapshotRepo domain.SnapshotRepository,
) *Service {
	return &Service{
		InstrumentRepo: instrumentRepo,
		EventRepo:      eventRepo,
		SnapshotRepo:   snapshotRepo,
		locks:          make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing mutate-then-recompute for one instrument.
func (s *Service) lockFor(instrumentID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[instrumentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[instrumentID] = l
	}
	return l
}

// RecordEvent validates and persists a new trade event, then recomputes the
// instrument's snapshot. The event is rejected before persisting anything,
// so a validation failure leaves the prior snapshot intact.
func (s *Service) RecordEvent(ctx context.Context, event *domain.TradeEvent) (*domain.LedgerSnapshot, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l := s.lockFor(event.InstrumentID)
	l.Lock()
	defer l.Unlock()

	if err := s.EventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return s.recomputeLocked(ctx, event.InstrumentID)
}

// UpdateEvent applies a corrective edit to an existing event and recomputes
// the instrument's snapshot.
func (s *Service) UpdateEvent(ctx context.Context, event *domain.TradeEvent) (*domain.LedgerSnapshot, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	l := s.lockFor(event.InstrumentID)
	l.Lock()
	defer l.Unlock()

	if err := s.EventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return s.recomputeLocked(ctx, event.InstrumentID)
}

// DeleteEvent removes an event and recomputes the instrument's snapshot.
func (s *Service) DeleteEvent(ctx context.Context, instrumentID, eventID uuid.UUID) (*domain.LedgerSnapshot, error) {
	l := s.lockFor(instrumentID)
	l.Lock()
	defer l.Unlock()

	if err := s.EventRepo.Delete(ctx, eventID); err != nil {
		return nil, err
	}
	return s.recomputeLocked(ctx, instrumentID)
}

// UpdateSeed edits the instrument's pre-ledger position and recomputes its
// snapshot through the same canonical replay as event mutations.
func (s *Service) UpdateSeed(ctx context.Context, instrumentID uuid.UUID, seedQuantity, seedCost decimal.Decimal) (*domain.LedgerSnapshot, error) {
	l := s.lockFor(instrumentID)
	l.Lock()
	defer l.Unlock()

	instrument, err := s.InstrumentRepo.GetByID(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	instrument.SeedQuantity = seedQuantity
	instrument.SeedCost = seedCost
	if err := instrument.Validate(); err != nil {
		return nil, err
	}

	if err := s.InstrumentRepo.Update(ctx, instrument); err != nil {
		return nil, err
	}
	return s.recomputeLocked(ctx, instrumentID)
}

// Recompute rebuilds and stores the snapshot for an instrument without any
// event mutation. Used to seed the snapshot when an instrument is created.
func (s *Service) Recompute(ctx context.Context, instrumentID uuid.UUID) (*domain.LedgerSnapshot, error) {
	l := s.lockFor(instrumentID)
	l.Lock()
	defer l.Unlock()

	return s.recomputeLocked(ctx, instrumentID)
}

// Snapshot returns the currently stored snapshot for an instrument.
func (s *Service) Snapshot(ctx context.Context, instrumentID uuid.UUID) (*domain.LedgerSnapshot, error) {
	return s.SnapshotRepo.Get(ctx, instrumentID)
}

// recomputeLocked replays the full event history and upserts the resulting
// snapshot. Callers must hold the instrument's lock.
func (s *Service) recomputeLocked(ctx context.Context, instrumentID uuid.UUID) (*domain.LedgerSnapshot, error) {
	instrument, err := s.InstrumentRepo.GetByID(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	events, err := s.EventRepo.ListByInstrument(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	snapshot, err := Replay(instrument.SeedQuantity, instrument.SeedCost, events)
	if err != nil {
		return nil, err
	}
	snapshot.InstrumentID = instrumentID
	snapshot.ComputedAt = time.Now()

	if err := s.SnapshotRepo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
