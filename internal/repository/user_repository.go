package repository

import (
	"context"

	"gorm.io/gorm"

	"satshop/internal/model"
	"satshop/internal/rbac"
)

// UserRepository defines staff account persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	CountActiveAdmins(ctx context.Context) (int64, error)
	// Locking variants for use inside WithTransaction. The FOR UPDATE on the
	// admin rows is what makes the safety-guard checks atomic with the
	// mutation they protect.
	FindByIDForUpdate(ctx context.Context, id uint) (*model.User, error)
	CountActiveAdminsForUpdate(ctx context.Context) (int64, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, id).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns all users in creation order.
func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("role = ? AND active = ?", rbac.RoleAdmin, true).
		Count(&count).Error
	return count, err
}

// FindByIDForUpdate finds a user by ID with a row-level lock.
func (r *userRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CountActiveAdminsForUpdate counts active admins while locking their rows,
// so a concurrent demotion cannot slip between the check and the mutation.
func (r *userRepository) CountActiveAdminsForUpdate(ctx context.Context) (int64, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		Where("role = ? AND active = ?", rbac.RoleAdmin, true).
		Find(&users).Error
	return int64(len(users)), err
}

// WithTransaction executes a function within a database transaction.
func (r *userRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &userRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
