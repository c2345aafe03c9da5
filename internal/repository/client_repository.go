package repository

import (
	"context"

	"gorm.io/gorm"

	"satshop/internal/model"
)

// ClientRepository defines customer persistence operations.
type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	Update(ctx context.Context, client *model.Client) error
	FindByID(ctx context.Context, id uint) (*model.Client, error)
	List(ctx context.Context, query string) ([]model.Client, error)
}

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *clientRepository) FindByID(ctx context.Context, id uint) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, query string) ([]model.Client, error) {
	q := r.db.WithContext(ctx).Model(&model.Client{})
	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"name LIKE ? OR phone LIKE ? OR email LIKE ? OR address LIKE ? OR tax_id LIKE ?",
			like, like, like, like, like,
		)
	}

	var clients []model.Client
	if err := q.Order("created_at desc").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}
