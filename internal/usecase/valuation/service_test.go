package valuation

import (
	"context"
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

var valuationEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestEvaluate_ProfitAndReturn(t *testing.T) {
	snapshot := &domain.LedgerSnapshot{
		Quantity:    decimal.NewFromInt(100),
		TotalCost:   decimal.NewFromInt(1000),
		AverageCost: decimal.NewFromInt(10),
	}
	events := []*domain.TradeEvent{
		{
			Kind:      domain.EventBuy,
			Quantity:  decimal.NewFromInt(100),
			Price:     decimal.NewFromInt(10),
			Timestamp: valuationEpoch,
		},
	}

	result := Evaluate(snapshot, events, decimal.NewFromInt(15), valuationEpoch.AddDate(0, 0, 365))

	assert.True(t, result.MarketValue.Equal(decimal.NewFromInt(1500)))
	assert.True(t, result.Profit.Equal(decimal.NewFromInt(500)))
	require.True(t, result.XIRRValid)
	// -1000 in, 1500 marked to market a year later.
	assert.InDelta(t, 0.50, result.XIRR, 0.001)
}

func TestEvaluate_SellFlowsArePositive(t *testing.T) {
	snapshot := &domain.LedgerSnapshot{
		Quantity:    decimal.NewFromInt(50),
		TotalCost:   decimal.NewFromInt(400),
		AverageCost: decimal.NewFromInt(8),
	}
	events := []*domain.TradeEvent{
		{
			Kind:      domain.EventBuy,
			Quantity:  decimal.NewFromInt(100),
			Price:     decimal.NewFromInt(10),
			Timestamp: valuationEpoch,
		},
		{
			Kind:      domain.EventSell,
			Quantity:  decimal.NewFromInt(50),
			Price:     decimal.NewFromInt(12),
			Timestamp: valuationEpoch.AddDate(0, 0, 180),
		},
	}

	result := Evaluate(snapshot, events, decimal.NewFromInt(12), valuationEpoch.AddDate(0, 0, 365))

	require.True(t, result.XIRRValid)
	// Bought 1000, got 600 back mid-year and holds 600 at the horizon.
	assert.Greater(t, result.XIRR, 0.0)
}

func TestEvaluate_DividendOnlyHistoryHasNoReturn(t *testing.T) {
	snapshot := &domain.LedgerSnapshot{
		Quantity:    decimal.NewFromInt(100),
		TotalCost:   decimal.NewFromInt(950),
		AverageCost: decimal.NewFromFloat(9.5),
	}
	events := []*domain.TradeEvent{
		{
			Kind:      domain.EventCashDividend,
			Quantity:  decimal.NewFromInt(100),
			Price:     decimal.NewFromFloat(0.5),
			Timestamp: valuationEpoch,
		},
	}

	result := Evaluate(snapshot, events, decimal.NewFromInt(11), valuationEpoch.AddDate(0, 0, 365))

	assert.False(t, result.XIRRValid)
	// The snapshot-derived figures are still reported.
	assert.True(t, result.MarketValue.Equal(decimal.NewFromInt(1100)))
	assert.True(t, result.Profit.Equal(decimal.NewFromInt(150)))
}

func TestEvaluate_EmptyHistory(t *testing.T) {
	snapshot := &domain.LedgerSnapshot{
		Quantity:    decimal.Zero,
		TotalCost:   decimal.Zero,
		AverageCost: decimal.Zero,
	}

	result := Evaluate(snapshot, nil, decimal.NewFromInt(10), valuationEpoch)

	assert.False(t, result.XIRRValid)
	assert.True(t, result.MarketValue.IsZero())
	assert.True(t, result.Profit.IsZero())
}

func TestEvaluateSymbol_ResolvesAndEvaluates(t *testing.T) {
	ctx := context.Background()
	instrumentRepo := new(MockInstrumentRepository)
	eventRepo := new(MockTradeEventRepository)
	snapshotRepo := new(MockSnapshotRepository)
	service := NewService(instrumentRepo, eventRepo, snapshotRepo)

	instrumentID := uuid.New()
	instrument := &domain.Instrument{ID: instrumentID, Symbol: "600900"}
	snapshot := &domain.LedgerSnapshot{
		InstrumentID: instrumentID,
		Quantity:     decimal.NewFromInt(100),
		TotalCost:    decimal.NewFromInt(1000),
		AverageCost:  decimal.NewFromInt(10),
	}
	events := []*domain.TradeEvent{
		{
			Kind:      domain.EventBuy,
			Quantity:  decimal.NewFromInt(100),
			Price:     decimal.NewFromInt(10),
			Timestamp: valuationEpoch,
		},
	}

	instrumentRepo.On("GetBySymbol", ctx, "600900").Return(instrument, nil)
	snapshotRepo.On("Get", ctx, instrumentID).Return(snapshot, nil)
	eventRepo.On("ListByInstrument", ctx, instrumentID).Return(events, nil)

	result, err := service.EvaluateSymbol(ctx, "600900", decimal.NewFromInt(15), valuationEpoch.AddDate(0, 0, 365))

	require.NoError(t, err)
	assert.True(t, result.Profit.Equal(decimal.NewFromInt(500)))
	instrumentRepo.AssertExpectations(t)
	snapshotRepo.AssertExpectations(t)
	eventRepo.AssertExpectations(t)
}

func TestEvaluateSymbol_NonPositivePriceRejected(t *testing.T) {
	ctx := context.Background()
	instrumentRepo := new(MockInstrumentRepository)
	service := NewService(instrumentRepo, new(MockTradeEventRepository), new(MockSnapshotRepository))

	_, err := service.EvaluateSymbol(ctx, "600900", decimal.Zero, valuationEpoch)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
	instrumentRepo.AssertNotCalled(t, "GetBySymbol", mock.Anything, mock.Anything)
}

func TestEvaluateSymbol_UnknownSymbol(t *testing.T) {
	ctx := context.Background()
	instrumentRepo := new(MockInstrumentRepository)
	service := NewService(instrumentRepo, new(MockTradeEventRepository), new(MockSnapshotRepository))

	instrumentRepo.On("GetBySymbol", ctx, "NOPE").Return(nil, domain.ErrNotFound)

	_, err := service.EvaluateSymbol(ctx, "NOPE", decimal.NewFromInt(10), valuationEpoch)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
