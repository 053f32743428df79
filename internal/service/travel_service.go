package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tem-backend/internal/model"
	"tem-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fanOutTimeout bounds a detached notification dispatch; the submit/review
// caller never waits on it.
const fanOutTimeout = 30 * time.Second

// --- DTOs ---

type CreateTravelRequestDTO struct {
	Destination   string  `json:"destination" binding:"required"`
	Purpose       string  `json:"purpose" binding:"required"`
	StartDate     string  `json:"start_date" binding:"required"`
	EndDate       string  `json:"end_date" binding:"required"`
	EstimatedCost float64 `json:"estimated_cost" binding:"required,gte=0"`
	Priority      string  `json:"priority" binding:"omitempty,oneof=Low Medium High"`
}

type ReviewDTO struct {
	Status         string `json:"status" binding:"required,oneof=Approved Rejected"`
	ReviewComments string `json:"review_comments"`
}

// ListQuery carries caller-supplied listing filters. EmployeeID lets a
// manager ask for their own submissions instead of their reports'.
type ListQuery struct {
	Status     string
	EmployeeID string
	Page       int
	Limit      int
}

// --- Interface ---

type TravelService interface {
	Create(ctx context.Context, submitter *model.User, req CreateTravelRequestDTO) (*model.TravelRequest, error)
	List(ctx context.Context, principal *model.User, query ListQuery) ([]model.TravelRequest, int64, error)
	Review(ctx context.Context, reviewer *model.User, id string, req ReviewDTO) (*model.TravelRequest, error)
}

type travelService struct {
	travelRepo repository.TravelRepository
	userRepo   repository.UserRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	notifier   Notifier
	dispatch   func(fn func())
	now        func() time.Time
}

func NewTravelService(
	travelRepo repository.TravelRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) TravelService {
	return &travelService{
		travelRepo: travelRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		notifier:   notifier,
		dispatch:   func(fn func()) { go fn() },
		now:        time.Now,
	}
}

// --- Implementation ---

func (s *travelService) Create(ctx context.Context, submitter *model.User, req CreateTravelRequestDTO) (*model.TravelRequest, error) {
	if submitter.Role != model.RoleEmployee && submitter.Role != model.RoleManager {
		return nil, fmt.Errorf("%w: only employees or managers can submit travel requests", ErrForbidden)
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date: %v", ErrValidation, err)
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end date: %v", ErrValidation, err)
	}

	today := startOfDay(s.now())
	if startOfDay(startDate).Before(today) {
		return nil, fmt.Errorf("%w: travel start date must be today or a future date", ErrValidation)
	}
	if startOfDay(endDate).Before(startOfDay(startDate)) {
		return nil, fmt.Errorf("%w: return date must be the same as or after travel start date", ErrValidation)
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	travel := &model.TravelRequest{
		EmployeeID:    submitter.ID,
		Destination:   req.Destination,
		Purpose:       req.Purpose,
		StartDate:     startDate,
		EndDate:       endDate,
		EstimatedCost: decimal.NewFromFloat(req.EstimatedCost),
		Priority:      priority,
		Approval: model.Approval{
			Status:        model.StatusPending,
			ManagerStatus: model.StatusPending,
			AdminStatus:   model.StatusPending,
		},
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.travelRepo.Create(txCtx, travel); createErr != nil {
			return fmt.Errorf("failed to create travel request: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"destination":    req.Destination,
			"start_date":     startDate.Format("2006-01-02"),
			"end_date":       endDate.Format("2006-01-02"),
			"estimated_cost": travel.EstimatedCost.StringFixed(2),
		})
		submitterID := submitter.ID
		audit := &model.AuditLog{
			UserID:     &submitterID,
			Action:     model.ActionSubmitTravelRequest,
			EntityID:   travel.ID.String(),
			EntityName: model.KindTravelRequest,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	loaded, err := s.travelRepo.GetByID(ctx, travel.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload travel request: %w", err)
	}

	s.dispatch(func() {
		bg, cancel := context.WithTimeout(context.Background(), fanOutTimeout)
		defer cancel()
		s.notifier.TravelSubmitted(bg, loaded)
	})

	return loaded, nil
}

func (s *travelService) List(ctx context.Context, principal *model.User, query ListQuery) ([]model.TravelRequest, int64, error) {
	employeeIDs, err := visibleEmployeeIDs(ctx, s.userRepo, principal, query.EmployeeID)
	if err != nil {
		return nil, 0, err
	}
	return s.travelRepo.List(ctx, repository.RequestFilter{
		EmployeeIDs: employeeIDs,
		Status:      query.Status,
		Page:        query.Page,
		Limit:       query.Limit,
	})
}

func (s *travelService) Review(ctx context.Context, reviewer *model.User, id string, req ReviewDTO) (*model.TravelRequest, error) {
	travelID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid travel request id", ErrValidation)
	}

	travel, err := s.travelRepo.GetByID(ctx, travelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: travel request", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load travel request: %w", err)
	}

	fields, err := buildReviewUpdate(&travel.Approval, travel.Employee, reviewer, req.Status, req.ReviewComments, s.now())
	if err != nil {
		return nil, err
	}

	// Conditional write: only lands while admin_status is still Pending.
	// Losing the race means another reviewer finalized first.
	applied, err := s.travelRepo.ApplyReview(ctx, travelID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update travel request: %w", err)
	}
	if !applied {
		return nil, ErrFinalized
	}

	updated, err := s.travelRepo.GetByID(ctx, travelID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload travel request: %w", err)
	}

	s.dispatch(func() {
		bg, cancel := context.WithTimeout(context.Background(), fanOutTimeout)
		defer cancel()
		s.notifier.TravelReviewed(bg, updated, reviewer, req.Status, req.ReviewComments)
	})

	return updated, nil
}

// visibleEmployeeIDs resolves which submitters a principal may list:
// employees see themselves, managers see their reports (or themselves when
// asking explicitly), admins see everyone (nil filter).
func visibleEmployeeIDs(ctx context.Context, userRepo repository.UserRepository, principal *model.User, employeeParam string) ([]uuid.UUID, error) {
	switch principal.Role {
	case model.RoleEmployee:
		return []uuid.UUID{principal.ID}, nil
	case model.RoleManager:
		if employeeParam == principal.ID.String() {
			return []uuid.UUID{principal.ID}, nil
		}
		reports, err := userRepo.ListByManager(ctx, principal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reports: %w", err)
		}
		ids := make([]uuid.UUID, 0, len(reports))
		for _, r := range reports {
			ids = append(ids, r.ID)
		}
		return ids, nil
	case model.RoleAdmin:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, principal.Role)
	}
}

// parseDate accepts RFC3339 timestamps or plain dates
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
