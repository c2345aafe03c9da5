package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"satshop/internal/errors"
	"satshop/internal/model"
	"satshop/internal/rbac"
	"satshop/internal/repository"
)

// MockCashEntryRepository is a mock implementation of CashEntryRepository.
type MockCashEntryRepository struct {
	mock.Mock
}

func (m *MockCashEntryRepository) Append(ctx context.Context, entry *model.CashEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCashEntryRepository) List(ctx context.Context, filter repository.EntryFilter) ([]model.CashEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CashEntry), args.Error(1)
}

func (m *MockCashEntryRepository) ListUpTo(ctx context.Context, sequence uint64) ([]model.CashEntry, error) {
	args := m.Called(ctx, sequence)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CashEntry), args.Error(1)
}

func (m *MockCashEntryRepository) LatestSequence(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func cashierActor() *model.User {
	return &model.User{ID: 3, Username: "caja", Role: rbac.RoleCashier, Active: true}
}

func TestLedgerService_RecordEntry(t *testing.T) {
	t.Run("cashier records an inflow", func(t *testing.T) {
		mockRepo := new(MockCashEntryRepository)
		mockRepo.On("Append", mock.Anything, mock.AnythingOfType("*model.CashEntry")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*model.CashEntry).Sequence = 1
			}).Return(nil)

		service := NewLedgerService(mockRepo, nil)
		entry, err := service.RecordEntry(context.Background(), cashierActor(),
			model.EntryKindInflow, decimal.NewFromInt(100), "Deposit for order #1", nil)

		assert.NoError(t, err)
		assert.Equal(t, uint64(1), entry.Sequence)
		assert.Equal(t, model.EntryKindInflow, entry.Kind)
		assert.Equal(t, uint(3), entry.RecordedByID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("technician is denied", func(t *testing.T) {
		mockRepo := new(MockCashEntryRepository)
		service := NewLedgerService(mockRepo, nil)

		actor := &model.User{ID: 2, Username: "tech", Role: rbac.RoleTechnician, Active: true}
		_, err := service.RecordEntry(context.Background(), actor,
			model.EntryKindInflow, decimal.NewFromInt(100), "Deposit", nil)

		assert.ErrorIs(t, err, errors.ErrUnauthorized)
		mockRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("zero and negative amounts are rejected", func(t *testing.T) {
		mockRepo := new(MockCashEntryRepository)
		service := NewLedgerService(mockRepo, nil)

		for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
			_, err := service.RecordEntry(context.Background(), cashierActor(),
				model.EntryKindOutflow, amount, "Refund", nil)
			assert.ErrorIs(t, err, errors.ErrInvalidAmount)
		}
		mockRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestLedgerService_CurrentBalance(t *testing.T) {
	t.Run("balance is the signed fold over all entries", func(t *testing.T) {
		mockRepo := new(MockCashEntryRepository)
		mockRepo.On("List", mock.Anything, repository.EntryFilter{}).Return([]model.CashEntry{
			{Sequence: 1, Kind: model.EntryKindInflow, Amount: decimal.NewFromInt(100)},
			{Sequence: 2, Kind: model.EntryKindOutflow, Amount: decimal.NewFromInt(30)},
		}, nil)

		service := NewLedgerService(mockRepo, nil)
		balance, err := service.CurrentBalance(context.Background(), cashierActor())

		assert.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(70)), "got %s", balance)
	})

	t.Run("empty ledger balances to zero", func(t *testing.T) {
		mockRepo := new(MockCashEntryRepository)
		mockRepo.On("List", mock.Anything, repository.EntryFilter{}).Return([]model.CashEntry{}, nil)

		service := NewLedgerService(mockRepo, nil)
		balance, err := service.CurrentBalance(context.Background(), cashierActor())

		assert.NoError(t, err)
		assert.True(t, balance.IsZero())
	})

	t.Run("technician cannot read the balance", func(t *testing.T) {
		mockRepo := new(MockCashEntryRepository)
		service := NewLedgerService(mockRepo, nil)

		actor := &model.User{ID: 2, Username: "tech", Role: rbac.RoleTechnician, Active: true}
		_, err := service.CurrentBalance(context.Background(), actor)

		assert.ErrorIs(t, err, errors.ErrUnauthorized)
		mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestLedgerService_BalanceAsOf(t *testing.T) {
	mockRepo := new(MockCashEntryRepository)
	mockRepo.On("ListUpTo", mock.Anything, uint64(1)).Return([]model.CashEntry{
		{Sequence: 1, Kind: model.EntryKindInflow, Amount: decimal.NewFromInt(100)},
	}, nil)
	mockRepo.On("ListUpTo", mock.Anything, uint64(2)).Return([]model.CashEntry{
		{Sequence: 1, Kind: model.EntryKindInflow, Amount: decimal.NewFromInt(100)},
		{Sequence: 2, Kind: model.EntryKindOutflow, Amount: decimal.NewFromInt(30)},
	}, nil)

	service := NewLedgerService(mockRepo, nil)

	asOf1, err := service.BalanceAsOf(context.Background(), cashierActor(), 1)
	assert.NoError(t, err)
	assert.True(t, asOf1.Equal(decimal.NewFromInt(100)))

	asOf2, err := service.BalanceAsOf(context.Background(), cashierActor(), 2)
	assert.NoError(t, err)
	assert.True(t, asOf2.Equal(decimal.NewFromInt(70)))
}

func TestLedgerService_BalanceAsOfZero(t *testing.T) {
	// Sequences start at 1, so the prefix up to 0 is empty regardless of
	// what the ledger holds.
	mockRepo := new(MockCashEntryRepository)
	service := NewLedgerService(mockRepo, nil)

	balance, err := service.BalanceAsOf(context.Background(), cashierActor(), 0)
	assert.NoError(t, err)
	assert.True(t, balance.IsZero(), "got %s", balance)
	mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "ListUpTo", mock.Anything, mock.Anything)
}

func TestLedgerService_BalanceAsOf_Unauthorized(t *testing.T) {
	mockRepo := new(MockCashEntryRepository)
	service := NewLedgerService(mockRepo, nil)

	actor := &model.User{ID: 2, Username: "tech", Role: rbac.RoleTechnician, Active: true}
	_, err := service.BalanceAsOf(context.Background(), actor, 1)

	assert.ErrorIs(t, err, errors.ErrUnauthorized)
	mockRepo.AssertNotCalled(t, "ListUpTo", mock.Anything, mock.Anything)
}

func TestLedgerService_ListEntries(t *testing.T) {
	t.Run("technician cannot view the ledger", func(t *testing.T) {
		service := NewLedgerService(new(MockCashEntryRepository), nil)
		actor := &model.User{ID: 2, Username: "tech", Role: rbac.RoleTechnician, Active: true}
		_, err := service.ListEntries(context.Background(), actor, repository.EntryFilter{})
		assert.ErrorIs(t, err, errors.ErrUnauthorized)
	})

	t.Run("entries come back in insertion order", func(t *testing.T) {
		mockRepo := new(MockCashEntryRepository)
		mockRepo.On("List", mock.Anything, repository.EntryFilter{}).Return([]model.CashEntry{
			{Sequence: 1}, {Sequence: 2}, {Sequence: 3},
		}, nil)

		service := NewLedgerService(mockRepo, nil)
		entries, err := service.ListEntries(context.Background(), cashierActor(), repository.EntryFilter{})
		assert.NoError(t, err)
		for i := 1; i < len(entries); i++ {
			assert.Greater(t, entries[i].Sequence, entries[i-1].Sequence)
		}
	})
}
