package repository

import (
	"context"

	"gorm.io/gorm"

	"satshop/internal/model"
)

// OrderRepository defines repair order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Update(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByPublicToken(ctx context.Context, token string) (*model.Order, error)
	List(ctx context.Context, query string, status model.OrderStatus) ([]model.Order, error)
	AddHistory(ctx context.Context, h *model.StatusHistory) error
	AddPart(ctx context.Context, part *model.Part) error
	DeletePart(ctx context.Context, orderID, partID uint) error
	ListParts(ctx context.Context, orderID uint) ([]model.Part, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Parts").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc")
		}).
		First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByPublicToken(ctx context.Context, token string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc")
		}).
		Where("public_token = ?", token).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, query string, status model.OrderStatus) ([]model.Order, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Joins("JOIN clients ON clients.id = orders.client_id").
		Preload("Client")
	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"orders.imei LIKE ? OR orders.brand LIKE ? OR orders.model LIKE ? OR clients.name LIKE ? OR clients.tax_id LIKE ?",
			like, like, like, like, like,
		)
	}
	if status != "" {
		q = q.Where("orders.status = ?", status)
	}

	var orders []model.Order
	if err := q.Order("orders.created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) AddHistory(ctx context.Context, h *model.StatusHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *orderRepository) AddPart(ctx context.Context, part *model.Part) error {
	return r.db.WithContext(ctx).Create(part).Error
}

func (r *orderRepository) DeletePart(ctx context.Context, orderID, partID uint) error {
	res := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&model.Part{}, partID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) ListParts(ctx context.Context, orderID uint) ([]model.Part, error) {
	var parts []model.Part
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}
