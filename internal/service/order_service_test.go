package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"satshop/internal/errors"
	"satshop/internal/model"
	"satshop/internal/rbac"
	"satshop/internal/repository"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPublicToken(ctx context.Context, token string) (*model.Order, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, query string, status model.OrderStatus) ([]model.Order, error) {
	args := m.Called(ctx, query, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) AddHistory(ctx context.Context, h *model.StatusHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockOrderRepository) AddPart(ctx context.Context, part *model.Part) error {
	args := m.Called(ctx, part)
	return args.Error(0)
}

func (m *MockOrderRepository) DeletePart(ctx context.Context, orderID, partID uint) error {
	args := m.Called(ctx, orderID, partID)
	return args.Error(0)
}

func (m *MockOrderRepository) ListParts(ctx context.Context, orderID uint) ([]model.Part, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Part), args.Error(1)
}

// MockClientRepository is a mock implementation of ClientRepository.
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *model.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Update(ctx context.Context, client *model.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uint) (*model.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockClientRepository) List(ctx context.Context, query string) ([]model.Client, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Client), args.Error(1)
}

type orderTestDeps struct {
	orders  *MockOrderRepository
	clients *MockClientRepository
	cash    *MockCashEntryRepository
	service OrderService
}

func newOrderTestDeps() orderTestDeps {
	orders := new(MockOrderRepository)
	clients := new(MockClientRepository)
	cash := new(MockCashEntryRepository)
	ledger := NewLedgerService(cash, nil)
	return orderTestDeps{
		orders:  orders,
		clients: clients,
		cash:    cash,
		service: NewOrderService(orders, clients, cash, ledger, "http://localhost:8080"),
	}
}

func expectAppend(cash *MockCashEntryRepository, match func(*model.CashEntry) bool) {
	cash.On("Append", mock.Anything, mock.MatchedBy(match)).Return(nil)
}

func TestOrderService_CreateOrder(t *testing.T) {
	t.Run("deposit produces a tagged inflow", func(t *testing.T) {
		deps := newOrderTestDeps()
		deps.clients.On("FindByID", mock.Anything, uint(1)).Return(&model.Client{ID: 1, Name: "Juan Perez"}, nil)
		deps.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*model.Order).ID = 10
			}).Return(nil)
		deps.orders.On("AddHistory", mock.Anything, mock.MatchedBy(func(h *model.StatusHistory) bool {
			return h.OrderID == 10 && h.Status == model.OrderStatusReceived
		})).Return(nil)
		expectAppend(deps.cash, func(e *model.CashEntry) bool {
			return e.Kind == model.EntryKindInflow &&
				e.Amount.Equal(decimal.NewFromInt(50)) &&
				e.OrderID != nil && *e.OrderID == 10 &&
				e.Description == "Deposit for order #10"
		})

		order, err := deps.service.CreateOrder(context.Background(), adminActor(), OrderInput{
			ClientID:      1,
			Brand:         "Samsung",
			Model:         "Galaxy S21",
			IMEI:          "356938035643809",
			ReportedIssue: "Cracked screen",
			EstimatedCost: decimal.NewFromInt(180),
			Deposit:       decimal.NewFromInt(50),
		})

		assert.NoError(t, err)
		assert.Equal(t, model.OrderStatusReceived, order.Status)
		deps.cash.AssertExpectations(t)
	})

	t.Run("no deposit means no ledger entry", func(t *testing.T) {
		deps := newOrderTestDeps()
		deps.clients.On("FindByID", mock.Anything, uint(1)).Return(&model.Client{ID: 1}, nil)
		deps.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).Return(nil)
		deps.orders.On("AddHistory", mock.Anything, mock.AnythingOfType("*model.StatusHistory")).Return(nil)

		// Technicians cannot record cash, but without a deposit that never comes up.
		actor := &model.User{ID: 2, Username: "tech", Role: rbac.RoleTechnician, Active: true}
		_, err := deps.service.CreateOrder(context.Background(), actor, OrderInput{ClientID: 1, Brand: "Apple"})

		assert.NoError(t, err)
		deps.cash.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("deposit by an actor without cash permission is rejected outright", func(t *testing.T) {
		deps := newOrderTestDeps()
		deps.clients.On("FindByID", mock.Anything, uint(1)).Return(&model.Client{ID: 1}, nil)

		actor := &model.User{ID: 2, Username: "tech", Role: rbac.RoleTechnician, Active: true}
		_, err := deps.service.CreateOrder(context.Background(), actor, OrderInput{
			ClientID: 1,
			Deposit:  decimal.NewFromInt(50),
		})

		assert.ErrorIs(t, err, errors.ErrUnauthorized)
		deps.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown client", func(t *testing.T) {
		deps := newOrderTestDeps()
		deps.clients.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.CreateOrder(context.Background(), adminActor(), OrderInput{ClientID: 99})
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestOrderService_ChangeStatus(t *testing.T) {
	t.Run("delivery settles the uncollected remainder", func(t *testing.T) {
		deps := newOrderTestDeps()
		orderID := uint(10)
		deps.orders.On("FindByID", mock.Anything, orderID).Return(&model.Order{
			ID:            orderID,
			Status:        model.OrderStatusReady,
			EstimatedCost: decimal.NewFromInt(180),
			Deposit:       decimal.NewFromInt(50),
		}, nil)
		deps.orders.On("Update", mock.Anything, mock.AnythingOfType("*model.Order")).Return(nil)
		deps.orders.On("AddHistory", mock.Anything, mock.AnythingOfType("*model.StatusHistory")).Return(nil)
		deps.cash.On("List", mock.Anything, repository.EntryFilter{OrderID: &orderID}).Return([]model.CashEntry{
			{Sequence: 1, Kind: model.EntryKindInflow, Amount: decimal.NewFromInt(50), OrderID: &orderID},
		}, nil)
		expectAppend(deps.cash, func(e *model.CashEntry) bool {
			return e.Kind == model.EntryKindInflow &&
				e.Amount.Equal(decimal.NewFromInt(130)) &&
				e.Description == "Final payment for order #10"
		})

		order, err := deps.service.ChangeStatus(context.Background(), adminActor(), orderID, model.OrderStatusDelivered, "Picked up")
		assert.NoError(t, err)
		assert.Equal(t, model.OrderStatusDelivered, order.Status)
		deps.cash.AssertExpectations(t)
	})

	t.Run("delivery with the estimate already collected posts nothing", func(t *testing.T) {
		deps := newOrderTestDeps()
		orderID := uint(11)
		deps.orders.On("FindByID", mock.Anything, orderID).Return(&model.Order{
			ID:            orderID,
			Status:        model.OrderStatusReady,
			EstimatedCost: decimal.NewFromInt(100),
		}, nil)
		deps.orders.On("Update", mock.Anything, mock.AnythingOfType("*model.Order")).Return(nil)
		deps.orders.On("AddHistory", mock.Anything, mock.AnythingOfType("*model.StatusHistory")).Return(nil)
		deps.cash.On("List", mock.Anything, repository.EntryFilter{OrderID: &orderID}).Return([]model.CashEntry{
			{Sequence: 1, Kind: model.EntryKindInflow, Amount: decimal.NewFromInt(100), OrderID: &orderID},
		}, nil)

		_, err := deps.service.ChangeStatus(context.Background(), adminActor(), orderID, model.OrderStatusDelivered, "")
		assert.NoError(t, err)
		deps.cash.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("cancellation refunds the deposit exactly once", func(t *testing.T) {
		deps := newOrderTestDeps()
		orderID := uint(12)
		deps.orders.On("FindByID", mock.Anything, orderID).Return(&model.Order{
			ID:      orderID,
			Status:  model.OrderStatusDiagnosing,
			Deposit: decimal.NewFromInt(50),
		}, nil)
		deps.orders.On("Update", mock.Anything, mock.AnythingOfType("*model.Order")).Return(nil)
		deps.orders.On("AddHistory", mock.Anything, mock.AnythingOfType("*model.StatusHistory")).Return(nil)
		deps.cash.On("List", mock.Anything, repository.EntryFilter{OrderID: &orderID}).Return([]model.CashEntry{
			{Sequence: 1, Kind: model.EntryKindInflow, Amount: decimal.NewFromInt(50), OrderID: &orderID},
		}, nil).Once()
		expectAppend(deps.cash, func(e *model.CashEntry) bool {
			return e.Kind == model.EntryKindOutflow &&
				e.Amount.Equal(decimal.NewFromInt(50)) &&
				e.Description == "Deposit refund for order #12"
		})

		_, err := deps.service.ChangeStatus(context.Background(), adminActor(), orderID, model.OrderStatusCancelled, "Client gave up")
		assert.NoError(t, err)
		deps.cash.AssertExpectations(t)

		// A second cancellation sees the existing refund and stays silent.
		deps.cash.On("List", mock.Anything, repository.EntryFilter{OrderID: &orderID}).Return([]model.CashEntry{
			{Sequence: 1, Kind: model.EntryKindInflow, Amount: decimal.NewFromInt(50), OrderID: &orderID},
			{Sequence: 2, Kind: model.EntryKindOutflow, Amount: decimal.NewFromInt(50), OrderID: &orderID,
				Description: "Deposit refund for order #12"},
		}, nil)

		_, err = deps.service.ChangeStatus(context.Background(), adminActor(), orderID, model.OrderStatusCancelled, "")
		assert.NoError(t, err)
		deps.cash.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		deps := newOrderTestDeps()
		_, err := deps.service.ChangeStatus(context.Background(), adminActor(), 1, model.OrderStatus("exploded"), "")
		assert.ErrorIs(t, err, errors.ErrInvalidStatus)
	})

	t.Run("rejected settlement leaves the order untouched", func(t *testing.T) {
		deps := newOrderTestDeps()
		orderID := uint(13)
		deps.orders.On("FindByID", mock.Anything, orderID).Return(&model.Order{
			ID:            orderID,
			Status:        model.OrderStatusReady,
			EstimatedCost: decimal.NewFromInt(180),
			Deposit:       decimal.NewFromInt(50),
		}, nil)
		deps.cash.On("List", mock.Anything, repository.EntryFilter{OrderID: &orderID}).Return([]model.CashEntry{
			{Sequence: 1, Kind: model.EntryKindInflow, Amount: decimal.NewFromInt(50), OrderID: &orderID},
		}, nil)

		// A technician cannot post the remainder, so the delivery must not
		// go through either: no status write, no history row.
		actor := &model.User{ID: 2, Username: "tech", Role: rbac.RoleTechnician, Active: true}
		_, err := deps.service.ChangeStatus(context.Background(), actor, orderID, model.OrderStatusDelivered, "Picked up")

		assert.ErrorIs(t, err, errors.ErrUnauthorized)
		deps.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		deps.orders.AssertNotCalled(t, "AddHistory", mock.Anything, mock.Anything)
		deps.cash.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("technician delivery with nothing owed still goes through", func(t *testing.T) {
		deps := newOrderTestDeps()
		orderID := uint(14)
		deps.orders.On("FindByID", mock.Anything, orderID).Return(&model.Order{
			ID:            orderID,
			Status:        model.OrderStatusReady,
			EstimatedCost: decimal.NewFromInt(100),
		}, nil)
		deps.orders.On("Update", mock.Anything, mock.AnythingOfType("*model.Order")).Return(nil)
		deps.orders.On("AddHistory", mock.Anything, mock.AnythingOfType("*model.StatusHistory")).Return(nil)
		deps.cash.On("List", mock.Anything, repository.EntryFilter{OrderID: &orderID}).Return([]model.CashEntry{
			{Sequence: 1, Kind: model.EntryKindInflow, Amount: decimal.NewFromInt(100), OrderID: &orderID},
		}, nil)

		actor := &model.User{ID: 2, Username: "tech", Role: rbac.RoleTechnician, Active: true}
		order, err := deps.service.ChangeStatus(context.Background(), actor, orderID, model.OrderStatusDelivered, "")

		assert.NoError(t, err)
		assert.Equal(t, model.OrderStatusDelivered, order.Status)
		deps.cash.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestOrderService_GetOrder(t *testing.T) {
	stubOrder := func() *model.Order {
		return &model.Order{
			ID:     10,
			Status: model.OrderStatusInProgress,
			Client: model.Client{ID: 1, Name: "Juan Perez"},
			Parts: []model.Part{
				{ID: 1, OrderID: 10, Name: "Display assembly", Cost: decimal.NewFromInt(95)},
			},
		}
	}

	t.Run("cashier gets the order without parts", func(t *testing.T) {
		deps := newOrderTestDeps()
		deps.orders.On("FindByID", mock.Anything, uint(10)).Return(stubOrder(), nil)

		actor := &model.User{ID: 3, Username: "caja", Role: rbac.RoleCashier, Active: true}
		order, err := deps.service.GetOrder(context.Background(), actor, 10)

		assert.NoError(t, err)
		assert.Equal(t, uint(10), order.ID)
		assert.Nil(t, order.Parts)
	})

	t.Run("technician and admin see the parts", func(t *testing.T) {
		for _, role := range []rbac.Role{rbac.RoleTechnician, rbac.RoleAdmin} {
			deps := newOrderTestDeps()
			deps.orders.On("FindByID", mock.Anything, uint(10)).Return(stubOrder(), nil)

			actor := &model.User{ID: 2, Username: "someone", Role: role, Active: true}
			order, err := deps.service.GetOrder(context.Background(), actor, 10)

			assert.NoError(t, err)
			assert.Len(t, order.Parts, 1, "role %s", role)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		deps := newOrderTestDeps()
		deps.orders.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.GetOrder(context.Background(), adminActor(), 99)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestOrderService_Parts(t *testing.T) {
	t.Run("cashier cannot see internal parts", func(t *testing.T) {
		deps := newOrderTestDeps()
		actor := &model.User{ID: 3, Username: "caja", Role: rbac.RoleCashier, Active: true}

		_, err := deps.service.Parts(context.Background(), actor, 1)
		assert.ErrorIs(t, err, errors.ErrUnauthorized)

		_, err = deps.service.AddPart(context.Background(), actor, 1, "Screen", decimal.NewFromInt(95), 1)
		assert.ErrorIs(t, err, errors.ErrUnauthorized)

		err = deps.service.RemovePart(context.Background(), actor, 1, 2)
		assert.ErrorIs(t, err, errors.ErrUnauthorized)
	})

	t.Run("technician adds a part with defaulted quantity", func(t *testing.T) {
		deps := newOrderTestDeps()
		deps.orders.On("FindByID", mock.Anything, uint(1)).Return(&model.Order{ID: 1}, nil)
		deps.orders.On("AddPart", mock.Anything, mock.MatchedBy(func(p *model.Part) bool {
			return p.OrderID == 1 && p.Name == "Screen" && p.Quantity == 1
		})).Return(nil)

		actor := &model.User{ID: 2, Username: "tech", Role: rbac.RoleTechnician, Active: true}
		part, err := deps.service.AddPart(context.Background(), actor, 1, "Screen", decimal.NewFromInt(95), 0)
		assert.NoError(t, err)
		assert.Equal(t, 1, part.Quantity)
	})
}

func TestOrderService_PublicOrder(t *testing.T) {
	deps := newOrderTestDeps()
	deps.orders.On("FindByPublicToken", mock.Anything, "ABC234DEFG").Return(&model.Order{
		ID:          10,
		Brand:       "Samsung",
		Model:       "Galaxy S21",
		UnlockCode:  "1234",
		Status:      model.OrderStatusInProgress,
		PublicToken: "ABC234DEFG",
		Client:      model.Client{ID: 1, Name: "Juan Perez"},
		Parts: []model.Part{
			{ID: 1, OrderID: 10, Name: "Display assembly"},
		},
		History: []model.StatusHistory{
			{OrderID: 10, Status: model.OrderStatusInProgress, Note: "Repair started"},
		},
	}, nil)
	deps.orders.On("FindByPublicToken", mock.Anything, "NOPE").Return(nil, gorm.ErrRecordNotFound)

	view, err := deps.service.PublicOrder(context.Background(), "ABC234DEFG")
	assert.NoError(t, err)
	assert.Equal(t, uint(10), view.OrderID)
	assert.Equal(t, "Juan Perez", view.ClientName)
	assert.Len(t, view.History, 1)

	_, err = deps.service.PublicOrder(context.Background(), "NOPE")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestOrderService_ShareLink(t *testing.T) {
	deps := newOrderTestDeps()
	deps.orders.On("FindByID", mock.Anything, uint(10)).Return(&model.Order{
		ID:          10,
		PublicToken: "ABC234DEFG",
		Client:      model.Client{ID: 1, Name: "Juan Perez"},
	}, nil)

	link, err := deps.service.ShareLink(context.Background(), 10)
	assert.NoError(t, err)
	assert.Contains(t, link, "https://wa.me/?text=")
	assert.Contains(t, link, "ABC234DEFG")
	assert.NotContains(t, link, " ", "share text must be URL encoded")
}
