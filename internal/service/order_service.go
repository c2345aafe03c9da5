package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"satshop/internal/errors"
	"satshop/internal/model"
	"satshop/internal/rbac"
	"satshop/internal/repository"
)

const depositRefundPrefix = "Deposit refund"

// OrderInput carries the editable fields of a repair order.
type OrderInput struct {
	ClientID      uint
	Brand         string
	Model         string
	IMEI          string
	Accessories   string
	UnlockCode    string
	ReportedIssue string
	Diagnosis     string
	EstimatedCost decimal.Decimal
	Deposit       decimal.Decimal
}

// PublicOrderView is the projection of an order safe for the customer-facing
// page: no parts, no unlock code, no internal costs.
type PublicOrderView struct {
	OrderID       uint                `json:"order_id"`
	ClientName    string              `json:"client_name"`
	Brand         string              `json:"brand"`
	Model         string              `json:"model"`
	ReportedIssue string              `json:"reported_issue"`
	Status        model.OrderStatus   `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	History       []PublicHistoryItem `json:"history"`
}

// PublicHistoryItem is one workflow transition in the public view.
type PublicHistoryItem struct {
	Status    model.OrderStatus `json:"status"`
	Note      string            `json:"note"`
	CreatedAt time.Time         `json:"created_at"`
}

// OrderService is the order/parts registry. It owns the order workflow and
// notifies the ledger when an order-linked cash movement occurs: a deposit
// on creation, the remaining payment on delivery, and a deposit refund on
// cancellation.
type OrderService interface {
	CreateOrder(ctx context.Context, actor *model.User, input OrderInput) (*model.Order, error)
	UpdateOrder(ctx context.Context, id uint, input OrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, actor *model.User, id uint) (*model.Order, error)
	ListOrders(ctx context.Context, query string, status model.OrderStatus) ([]model.Order, error)
	ChangeStatus(ctx context.Context, actor *model.User, id uint, status model.OrderStatus, note string) (*model.Order, error)
	AddPart(ctx context.Context, actor *model.User, orderID uint, name string, cost decimal.Decimal, quantity int) (*model.Part, error)
	RemovePart(ctx context.Context, actor *model.User, orderID, partID uint) error
	Parts(ctx context.Context, actor *model.User, orderID uint) ([]model.Part, error)
	PublicOrder(ctx context.Context, token string) (*PublicOrderView, error)
	ShareLink(ctx context.Context, id uint) (string, error)
}

type orderService struct {
	orderRepo  repository.OrderRepository
	clientRepo repository.ClientRepository
	cashRepo   repository.CashEntryRepository
	ledger     LedgerService
	baseURL    string
}

// NewOrderService creates a new order service. baseURL is the externally
// reachable root used to build public tracking links.
func NewOrderService(
	orderRepo repository.OrderRepository,
	clientRepo repository.ClientRepository,
	cashRepo repository.CashEntryRepository,
	ledger LedgerService,
	baseURL string,
) OrderService {
	return &orderService{
		orderRepo:  orderRepo,
		clientRepo: clientRepo,
		cashRepo:   cashRepo,
		ledger:     ledger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// CreateOrder registers a new repair order. A positive deposit produces an
// inflow ledger entry tagged with the order, so the actor must be allowed
// to record cash entries in that case.
func (s *orderService) CreateOrder(ctx context.Context, actor *model.User, input OrderInput) (*model.Order, error) {
	if _, err := s.clientRepo.FindByID(ctx, input.ClientID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}

	hasDeposit := input.Deposit.GreaterThan(decimal.Zero)
	if hasDeposit && !rbac.IsAllowed(actor.Role, rbac.ActionRecordCashEntry) {
		return nil, errors.ErrUnauthorized
	}

	order := &model.Order{
		ClientID:      input.ClientID,
		Brand:         input.Brand,
		Model:         input.Model,
		IMEI:          input.IMEI,
		Accessories:   input.Accessories,
		UnlockCode:    input.UnlockCode,
		ReportedIssue: input.ReportedIssue,
		Diagnosis:     input.Diagnosis,
		EstimatedCost: input.EstimatedCost,
		Deposit:       input.Deposit,
		Status:        model.OrderStatusReceived,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.orderRepo.AddHistory(ctx, &model.StatusHistory{
		OrderID: order.ID,
		Status:  order.Status,
		Note:    "Order received",
	}); err != nil {
		return nil, err
	}

	if hasDeposit {
		orderID := order.ID
		_, err := s.ledger.RecordEntry(ctx, actor, model.EntryKindInflow, input.Deposit,
			fmt.Sprintf("Deposit for order #%d", order.ID), &orderID)
		if err != nil {
			return nil, err
		}
	}

	zap.S().Infow("order created", "order_id", order.ID, "client_id", order.ClientID, "by", actor.Username)
	return order, nil
}

// UpdateOrder edits order fields. The workflow status is changed only
// through ChangeStatus.
func (s *orderService) UpdateOrder(ctx context.Context, id uint, input OrderInput) (*model.Order, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.clientRepo.FindByID(ctx, input.ClientID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}

	order.ClientID = input.ClientID
	order.Brand = input.Brand
	order.Model = input.Model
	order.IMEI = input.IMEI
	order.Accessories = input.Accessories
	order.UnlockCode = input.UnlockCode
	order.ReportedIssue = input.ReportedIssue
	order.Diagnosis = input.Diagnosis
	order.EstimatedCost = input.EstimatedCost
	order.Deposit = input.Deposit

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns the order detail. The internal parts list is included
// only for roles allowed to see it.
func (s *orderService) GetOrder(ctx context.Context, actor *model.User, id uint) (*model.Order, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rbac.IsAllowed(actor.Role, rbac.ActionViewOrderParts) {
		order.Parts = nil
	}
	return order, nil
}

func (s *orderService) findOrder(ctx context.Context, id uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, query string, status model.OrderStatus) ([]model.Order, error) {
	if status != "" && !model.ValidOrderStatus(status) {
		return nil, errors.ErrInvalidStatus
	}
	return s.orderRepo.List(ctx, query, status)
}

// pendingEntry is a cash movement implied by a status transition, computed
// before the transition is written.
type pendingEntry struct {
	kind        model.EntryKind
	amount      decimal.Decimal
	description string
}

// ChangeStatus moves an order through the workflow, recording history.
// Delivery posts the uncollected remainder of the estimate as an inflow;
// cancellation refunds the not-yet-refunded part of the deposit as an
// outflow. Both go through the ledger under the acting user, and both are
// validated before the order is touched so a rejected cash movement leaves
// no half-applied transition behind.
func (s *orderService) ChangeStatus(ctx context.Context, actor *model.User, id uint, status model.OrderStatus, note string) (*model.Order, error) {
	if !model.ValidOrderStatus(status) {
		return nil, errors.ErrInvalidStatus
	}

	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	var pending *pendingEntry
	switch status {
	case model.OrderStatusDelivered:
		pending, err = s.remainderEntry(ctx, order)
	case model.OrderStatusCancelled:
		pending, err = s.refundEntry(ctx, order)
	}
	if err != nil {
		return nil, err
	}
	if pending != nil && !rbac.IsAllowed(actor.Role, rbac.ActionRecordCashEntry) {
		return nil, errors.ErrUnauthorized
	}

	order.Status = status
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.AddHistory(ctx, &model.StatusHistory{
		OrderID: order.ID,
		Status:  status,
		Note:    note,
	}); err != nil {
		return nil, err
	}

	if pending != nil {
		orderID := order.ID
		if _, err := s.ledger.RecordEntry(ctx, actor, pending.kind, pending.amount, pending.description, &orderID); err != nil {
			return nil, err
		}
	}

	zap.S().Infow("order status changed", "order_id", order.ID, "status", status, "by", actor.Username)
	return order, nil
}

// remainderEntry computes the not-yet-collected part of the estimate, or nil
// when nothing is owed.
func (s *orderService) remainderEntry(ctx context.Context, order *model.Order) (*pendingEntry, error) {
	if !order.EstimatedCost.GreaterThan(decimal.Zero) {
		return nil, nil
	}

	entries, err := s.entriesFor(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	paid := decimal.Zero
	for i := range entries {
		if entries[i].Kind == model.EntryKindInflow {
			paid = paid.Add(entries[i].Amount)
		}
	}

	remaining := order.EstimatedCost.Sub(paid)
	if !remaining.GreaterThan(decimal.Zero) {
		return nil, nil
	}
	return &pendingEntry{
		kind:        model.EntryKindInflow,
		amount:      remaining,
		description: fmt.Sprintf("Final payment for order #%d", order.ID),
	}, nil
}

// refundEntry computes the part of the deposit not already refunded, or nil.
// Repeated cancellations therefore never refund twice.
func (s *orderService) refundEntry(ctx context.Context, order *model.Order) (*pendingEntry, error) {
	if !order.Deposit.GreaterThan(decimal.Zero) {
		return nil, nil
	}

	entries, err := s.entriesFor(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	refunded := decimal.Zero
	for i := range entries {
		if entries[i].Kind == model.EntryKindOutflow && strings.HasPrefix(entries[i].Description, depositRefundPrefix) {
			refunded = refunded.Add(entries[i].Amount)
		}
	}

	toRefund := order.Deposit.Sub(refunded)
	if !toRefund.GreaterThan(decimal.Zero) {
		return nil, nil
	}
	return &pendingEntry{
		kind:        model.EntryKindOutflow,
		amount:      toRefund,
		description: fmt.Sprintf("%s for order #%d", depositRefundPrefix, order.ID),
	}, nil
}

func (s *orderService) entriesFor(ctx context.Context, orderID uint) ([]model.CashEntry, error) {
	return s.cashRepo.List(ctx, repository.EntryFilter{OrderID: &orderID})
}

// AddPart appends an internal part line to an order.
func (s *orderService) AddPart(ctx context.Context, actor *model.User, orderID uint, name string, cost decimal.Decimal, quantity int) (*model.Part, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionViewOrderParts) {
		return nil, errors.ErrUnauthorized
	}
	if _, err := s.findOrder(ctx, orderID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		quantity = 1
	}

	part := &model.Part{
		OrderID:  orderID,
		Name:     name,
		Cost:     cost,
		Quantity: quantity,
	}
	if err := s.orderRepo.AddPart(ctx, part); err != nil {
		return nil, err
	}
	return part, nil
}

// RemovePart deletes a part line. Parts never outlive their order.
func (s *orderService) RemovePart(ctx context.Context, actor *model.User, orderID, partID uint) error {
	if !rbac.IsAllowed(actor.Role, rbac.ActionViewOrderParts) {
		return errors.ErrUnauthorized
	}
	if err := s.orderRepo.DeletePart(ctx, orderID, partID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrNotFound
		}
		return err
	}
	return nil
}

// Parts lists the internal parts of an order, for technician/admin only.
func (s *orderService) Parts(ctx context.Context, actor *model.User, orderID uint) ([]model.Part, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionViewOrderParts) {
		return nil, errors.ErrUnauthorized
	}
	if _, err := s.findOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orderRepo.ListParts(ctx, orderID)
}

// PublicOrder resolves a tracking token to the customer-facing projection.
func (s *orderService) PublicOrder(ctx context.Context, token string) (*PublicOrderView, error) {
	order, err := s.orderRepo.FindByPublicToken(ctx, token)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}

	view := &PublicOrderView{
		OrderID:       order.ID,
		ClientName:    order.Client.Name,
		Brand:         order.Brand,
		Model:         order.Model,
		ReportedIssue: order.ReportedIssue,
		Status:        order.Status,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	for _, h := range order.History {
		view.History = append(view.History, PublicHistoryItem{
			Status:    h.Status,
			Note:      h.Note,
			CreatedAt: h.CreatedAt,
		})
	}
	return view, nil
}

// ShareLink builds a WhatsApp share URL carrying the public tracking link.
func (s *orderService) ShareLink(ctx context.Context, id uint) (string, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return "", err
	}

	publicURL := fmt.Sprintf("%s/t/%s", s.baseURL, order.PublicToken)
	text := fmt.Sprintf("Hi %s, here is the status of your repair order #%d: %s",
		order.Client.Name, order.ID, publicURL)
	return "https://wa.me/?text=" + url.QueryEscape(text), nil
}
