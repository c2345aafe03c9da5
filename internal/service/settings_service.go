package service

import (
	"context"
	"encoding/json"
	"time"

	"satshop/internal/cache"
	"satshop/internal/errors"
	"satshop/internal/model"
	"satshop/internal/rbac"
	"satshop/internal/repository"
)

const (
	settingsCacheKey = "settings"
	settingsCacheTTL = 5 * time.Minute
)

// SettingsService manages the company settings singleton.
type SettingsService interface {
	GetSettings(ctx context.Context, actor *model.User) (*model.Settings, error)
	UpdateSettings(ctx context.Context, actor *model.User, s *model.Settings) (*model.Settings, error)
	// CompanyName is read internally (receipts, public page header) without
	// an actor check.
	CompanyName(ctx context.Context) (string, error)
}

type settingsService struct {
	repo  repository.SettingsRepository
	cache *cache.Client
}

// NewSettingsService builds a SettingsService with repository and cache.
func NewSettingsService(repo repository.SettingsRepository, cache *cache.Client) SettingsService {
	return &settingsService{repo: repo, cache: cache}
}

func (s *settingsService) GetSettings(ctx context.Context, actor *model.User) (*model.Settings, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionViewSettings) {
		return nil, errors.ErrUnauthorized
	}
	return s.load(ctx)
}

func (s *settingsService) UpdateSettings(ctx context.Context, actor *model.User, in *model.Settings) (*model.Settings, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionEditSettings) {
		return nil, errors.ErrUnauthorized
	}

	if err := s.repo.Save(ctx, in); err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, settingsCacheKey)
	return in, nil
}

func (s *settingsService) CompanyName(ctx context.Context) (string, error) {
	settings, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return settings.CompanyName, nil
}

func (s *settingsService) load(ctx context.Context) (*model.Settings, error) {
	if data, _ := s.cache.Get(ctx, settingsCacheKey); data != nil {
		var cached model.Settings
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(settings); err == nil {
		_ = s.cache.Set(ctx, settingsCacheKey, payload, settingsCacheTTL)
	}
	return settings, nil
}
