package service

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"satshop/internal/errors"
	"satshop/internal/model"
	"satshop/internal/repository"
)

// ClientService exposes customer record operations.
type ClientService interface {
	CreateClient(ctx context.Context, client *model.Client) (*model.Client, error)
	UpdateClient(ctx context.Context, client *model.Client) (*model.Client, error)
	GetClient(ctx context.Context, id uint) (*model.Client, error)
	ListClients(ctx context.Context, query string) ([]model.Client, error)
}

type clientService struct {
	repo repository.ClientRepository
}

// NewClientService builds a ClientService.
func NewClientService(repo repository.ClientRepository) ClientService {
	return &clientService{repo: repo}
}

func (s *clientService) CreateClient(ctx context.Context, client *model.Client) (*model.Client, error) {
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) UpdateClient(ctx context.Context, client *model.Client) (*model.Client, error) {
	if _, err := s.GetClient(ctx, client.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) GetClient(ctx context.Context, id uint) (*model.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}
	return client, nil
}

func (s *clientService) ListClients(ctx context.Context, query string) ([]model.Client, error) {
	return s.repo.List(ctx, query)
}
