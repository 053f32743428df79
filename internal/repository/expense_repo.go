package repository

import (
	"context"

	"tem-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExpenseRepository interface {
	Create(ctx context.Context, claim *model.ExpenseClaim) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExpenseClaim, error)
	List(ctx context.Context, filter RequestFilter) ([]model.ExpenseClaim, int64, error)
	// ApplyReview mirrors TravelRepository.ApplyReview for expense claims.
	ApplyReview(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error)
}

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, claim *model.ExpenseClaim) error {
	return GetDB(ctx, r.db).Create(claim).Error
}

func (r *expenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExpenseClaim, error) {
	var claim model.ExpenseClaim
	if err := GetDB(ctx, r.db).
		Preload("Employee").
		Preload("Employee.Manager").
		Preload("TravelRequest").
		Preload("ManagerReviewer").
		Preload("AdminReviewer").
		First(&claim, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *expenseRepository) List(ctx context.Context, filter RequestFilter) ([]model.ExpenseClaim, int64, error) {
	var claims []model.ExpenseClaim
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.EmployeeIDs != nil {
			q = q.Where("employee_id IN ?", filter.EmployeeIDs)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q
	}

	if err := apply(db.Model(&model.ExpenseClaim{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("Employee").Preload("TravelRequest").Preload("ManagerReviewer").Preload("AdminReviewer")).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&claims).Error; err != nil {
		return nil, 0, err
	}

	return claims, total, nil
}

func (r *expenseRepository) ApplyReview(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	res := GetDB(ctx, r.db).
		Model(&model.ExpenseClaim{}).
		Where("id = ? AND admin_status = ?", id, model.StatusPending).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
