package repository

import (
	"context"

	"tem-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, activeFilter *bool, page, limit int) ([]model.User, int64, error)
	ListActiveAdmins(ctx context.Context) ([]model.User, error)
	ListByManager(ctx context.Context, managerID uuid.UUID) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Manager").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, activeFilter *bool, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.User{})
	if activeFilter != nil {
		query = query.Where("is_active = ?", *activeFilter)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Manager")
	if activeFilter != nil {
		fetch = fetch.Where("is_active = ?", *activeFilter)
	}
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) ListActiveAdmins(ctx context.Context) ([]model.User, error) {
	var admins []model.User
	if err := GetDB(ctx, r.db).
		Where("role = ? AND is_active = ?", model.RoleAdmin, true).
		Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *userRepository) ListByManager(ctx context.Context, managerID uuid.UUID) ([]model.User, error) {
	var reports []model.User
	if err := GetDB(ctx, r.db).
		Where("manager_id = ?", managerID).
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}
