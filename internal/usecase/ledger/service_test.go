package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ricardolopes/holdings-backend/internal/domain"
)

// MockInstrumentRepository is a mock implementation of InstrumentRepository for testing
type MockInstrumentRepository struct {
	mock.Mock
}

func (m *MockInstrumentRepository) Create(ctx context.Context, instrument *domain.Instrument) error {
	args := m.Called(ctx, instrument)
	return args.Error(0)
}

func (m *MockInstrumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Instrument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.Instrument, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) Update(ctx context.Context, instrument *domain.Instrument) error {
	args := m.Called(ctx, instrument)
	return args.Error(0)
}

func (m *MockInstrumentRepository) List(ctx context.Context) ([]*domain.Instrument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Instrument), args.Error(1)
}

// MockTradeEventRepository is a mock implementation of TradeEventRepository for testing
type MockTradeEventRepository struct {
	mock.Mock
}

func (m *MockTradeEventRepository) Create(ctx context.Context, event *domain.TradeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockTradeEventRepository) Update(ctx context.Context, event *domain.TradeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockTradeEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTradeEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TradeEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TradeEvent), args.Error(1)
}

func (m *MockTradeEventRepository) ListByInstrument(ctx context.Context, instrumentID uuid.UUID) ([]*domain.TradeEvent, error) {
	args := m.Called(ctx, instrumentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TradeEvent), args.Error(1)
}

// MockSnapshotRepository is a mock implementation of SnapshotRepository for testing
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Upsert(ctx context.Context, snapshot *domain.LedgerSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) Get(ctx context.Context, instrumentID uuid.UUID) (*domain.LedgerSnapshot, error) {
	args := m.Called(ctx, instrumentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerSnapshot), args.Error(1)
}

func newTestService() (*Service, *MockInstrumentRepository, *MockTradeEventRepository, *MockSnapshotRepository) {
	instrumentRepo := new(MockInstrumentRepository)
	eventRepo := new(MockTradeEventRepository)
	snapshotRepo := new(MockSnapshotRepository)
	return NewService(instrumentRepo, eventRepo, snapshotRepo), instrumentRepo, eventRepo, snapshotRepo
}

func TestRecordEvent_PersistsAndRecomputes(t *testing.T) {
	ctx := context.Background()
	service, instrumentRepo, eventRepo, snapshotRepo := newTestService()

	instrumentID := uuid.New()
	instrument := &domain.Instrument{
		ID:           instrumentID,
		Symbol:       "600900",
		SeedQuantity: decimal.Zero,
		SeedCost:     decimal.Zero,
	}
	event := &domain.TradeEvent{
		InstrumentID: instrumentID,
		Kind:         domain.EventBuy,
		Quantity:     decimal.NewFromInt(100),
		Price:        decimal.NewFromInt(10),
	}

	eventRepo.On("Create", ctx, event).Return(nil)
	instrumentRepo.On("GetByID", ctx, instrumentID).Return(instrument, nil)
	eventRepo.On("ListByInstrument", ctx, instrumentID).Return([]*domain.TradeEvent{event}, nil)
	snapshotRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.LedgerSnapshot")).Return(nil)

	snapshot, err := service.RecordEvent(ctx, event)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, instrumentID, snapshot.InstrumentID)
	assert.True(t, snapshot.Quantity.Equal(decimal.NewFromInt(100)))
	assert.True(t, snapshot.TotalCost.Equal(decimal.NewFromInt(1000)))
	assert.False(t, snapshot.ComputedAt.IsZero())

	instrumentRepo.AssertExpectations(t)
	eventRepo.AssertExpectations(t)
	snapshotRepo.AssertExpectations(t)
}

func TestRecordEvent_InvalidEventTouchesNothing(t *testing.T) {
	ctx := context.Background()
	service, instrumentRepo, eventRepo, snapshotRepo := newTestService()

	event := &domain.TradeEvent{
		InstrumentID: uuid.New(),
		Kind:         domain.EventBuy,
		Quantity:     decimal.NewFromInt(-100),
		Price:        decimal.NewFromInt(10),
	}

	snapshot, err := service.RecordEvent(ctx, event)

	assert.Error(t, err)
	assert.Nil(t, snapshot)
	eventRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	snapshotRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	instrumentRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdateEvent_Recomputes(t *testing.T) {
	ctx := context.Background()
	service, instrumentRepo, eventRepo, snapshotRepo := newTestService()

	instrumentID := uuid.New()
	instrument := &domain.Instrument{ID: instrumentID, Symbol: "600900", SeedQuantity: decimal.Zero, SeedCost: decimal.Zero}
	event := &domain.TradeEvent{
		ID:           uuid.New(),
		InstrumentID: instrumentID,
		Kind:         domain.EventBuy,
		Quantity:     decimal.NewFromInt(200),
		Price:        decimal.NewFromInt(12),
		Timestamp:    time.Now(),
	}

	eventRepo.On("Update", ctx, event).Return(nil)
	instrumentRepo.On("GetByID", ctx, instrumentID).Return(instrument, nil)
	eventRepo.On("ListByInstrument", ctx, instrumentID).Return([]*domain.TradeEvent{event}, nil)
	snapshotRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.LedgerSnapshot")).Return(nil)

	snapshot, err := service.UpdateEvent(ctx, event)

	require.NoError(t, err)
	assert.True(t, snapshot.Quantity.Equal(decimal.NewFromInt(200)))
	eventRepo.AssertExpectations(t)
}

func TestDeleteEvent_Recomputes(t *testing.T) {
	ctx := context.Background()
	service, instrumentRepo, eventRepo, snapshotRepo := newTestService()

	instrumentID := uuid.New()
	eventID := uuid.New()
	instrument := &domain.Instrument{ID: instrumentID, Symbol: "600900", SeedQuantity: decimal.NewFromInt(100), SeedCost: decimal.NewFromInt(10)}

	eventRepo.On("Delete", ctx, eventID).Return(nil)
	instrumentRepo.On("GetByID", ctx, instrumentID).Return(instrument, nil)
	eventRepo.On("ListByInstrument", ctx, instrumentID).Return([]*domain.TradeEvent{}, nil)
	snapshotRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.LedgerSnapshot")).Return(nil)

	snapshot, err := service.DeleteEvent(ctx, instrumentID, eventID)

	require.NoError(t, err)
	// Only the seed position remains after the delete.
	assert.True(t, snapshot.Quantity.Equal(decimal.NewFromInt(100)))
	assert.True(t, snapshot.TotalCost.Equal(decimal.NewFromInt(1000)))
	eventRepo.AssertExpectations(t)
}

func TestDeleteEvent_MissingEventKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	service, _, eventRepo, snapshotRepo := newTestService()

	instrumentID := uuid.New()
	eventID := uuid.New()

	eventRepo.On("Delete", ctx, eventID).Return(domain.ErrNotFound)

	snapshot, err := service.DeleteEvent(ctx, instrumentID, eventID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, snapshot)
	snapshotRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestUpdateSeed_PersistsAndRecomputes(t *testing.T) {
	ctx := context.Background()
	service, instrumentRepo, eventRepo, snapshotRepo := newTestService()

	instrumentID := uuid.New()
	instrument := &domain.Instrument{ID: instrumentID, Symbol: "600900", SeedQuantity: decimal.Zero, SeedCost: decimal.Zero}

	instrumentRepo.On("GetByID", ctx, instrumentID).Return(instrument, nil)
	instrumentRepo.On("Update", ctx, instrument).Return(nil)
	eventRepo.On("ListByInstrument", ctx, instrumentID).Return([]*domain.TradeEvent{}, nil)
	snapshotRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.LedgerSnapshot")).Return(nil)

	snapshot, err := service.UpdateSeed(ctx, instrumentID, decimal.NewFromInt(500), decimal.NewFromInt(8))

	require.NoError(t, err)
	assert.True(t, snapshot.Quantity.Equal(decimal.NewFromInt(500)))
	assert.True(t, snapshot.TotalCost.Equal(decimal.NewFromInt(4000)))
	instrumentRepo.AssertExpectations(t)
}

func TestUpdateSeed_NegativeSeedRejected(t *testing.T) {
	ctx := context.Background()
	service, instrumentRepo, _, snapshotRepo := newTestService()

	instrumentID := uuid.New()
	instrument := &domain.Instrument{ID: instrumentID, Symbol: "600900", SeedQuantity: decimal.Zero, SeedCost: decimal.Zero}

	instrumentRepo.On("GetByID", ctx, instrumentID).Return(instrument, nil)

	snapshot, err := service.UpdateSeed(ctx, instrumentID, decimal.NewFromInt(-1), decimal.Zero)

	assert.Error(t, err)
	assert.Nil(t, snapshot)
	instrumentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	snapshotRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestRecordEvent_UpsertFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	service, instrumentRepo, eventRepo, snapshotRepo := newTestService()

	instrumentID := uuid.New()
	instrument := &domain.Instrument{ID: instrumentID, Symbol: "600900", SeedQuantity: decimal.Zero, SeedCost: decimal.Zero}
	event := &domain.TradeEvent{
		InstrumentID: instrumentID,
		Kind:         domain.EventBuy,
		Quantity:     decimal.NewFromInt(100),
		Price:        decimal.NewFromInt(10),
	}
	storeErr := errors.New("connection reset")

	eventRepo.On("Create", ctx, event).Return(nil)
	instrumentRepo.On("GetByID", ctx, instrumentID).Return(instrument, nil)
	eventRepo.On("ListByInstrument", ctx, instrumentID).Return([]*domain.TradeEvent{event}, nil)
	snapshotRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.LedgerSnapshot")).Return(storeErr)

	snapshot, err := service.RecordEvent(ctx, event)

	assert.ErrorIs(t, err, storeErr)
	assert.Nil(t, snapshot)
}
