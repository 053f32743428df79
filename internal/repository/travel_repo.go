package repository

import (
	"context"

	"tem-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestFilter narrows listing of approvable requests. A nil EmployeeIDs
// means no submitter restriction; an empty non-nil slice matches nothing.
type RequestFilter struct {
	EmployeeIDs []uuid.UUID
	Status      string
	Page        int
	Limit       int
}

type TravelRepository interface {
	Create(ctx context.Context, req *model.TravelRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TravelRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.TravelRequest, int64, error)
	// ApplyReview performs the guarded review update: rows are only touched
	// while admin_status is still Pending, closing the concurrent-review race.
	// Returns false when the guard rejected the write.
	ApplyReview(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error)
}

type travelRepository struct {
	db *gorm.DB
}

func NewTravelRepository(db *gorm.DB) TravelRepository {
	return &travelRepository{db: db}
}

func (r *travelRepository) Create(ctx context.Context, req *model.TravelRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *travelRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TravelRequest, error) {
	var req model.TravelRequest
	if err := GetDB(ctx, r.db).
		Preload("Employee").
		Preload("Employee.Manager").
		Preload("ManagerReviewer").
		Preload("AdminReviewer").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *travelRepository) List(ctx context.Context, filter RequestFilter) ([]model.TravelRequest, int64, error) {
	var requests []model.TravelRequest
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

	if err := apply(db.Model(&model.TravelRequest{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("Employee").Preload("ManagerReviewer").Preload("AdminReviewer")).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *travelRepository) ApplyReview(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	res := GetDB(ctx, r.db).
		Model(&model.TravelRequest{}).
		Where("id = ? AND admin_status = ?", id, model.StatusPending).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
