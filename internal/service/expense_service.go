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

// --- DTOs ---

type CreateExpenseClaimDTO struct {
	TravelRequestID string  `json:"travel_request_id" binding:"required"`
	Amount          float64 `json:"amount" binding:"required,gte=0"`
	Description     string  `json:"description" binding:"required"`
	ExpenseDate     string  `json:"expense_date" binding:"required"`
	Category        string  `json:"category" binding:"required,oneof=Transportation Accommodation Meals Miscellaneous"`
}

// --- Interface ---

type ExpenseService interface {
	Create(ctx context.Context, submitter *model.User, req CreateExpenseClaimDTO) (*model.ExpenseClaim, error)
	List(ctx context.Context, principal *model.User, query ListQuery) ([]model.ExpenseClaim, int64, error)
	Review(ctx context.Context, reviewer *model.User, id string, req ReviewDTO) (*model.ExpenseClaim, error)
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	travelRepo  repository.TravelRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    Notifier
	dispatch    func(fn func())
	now         func() time.Time
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	travelRepo repository.TravelRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		travelRepo:  travelRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifier,
		dispatch:    func(fn func()) { go fn() },
		now:         time.Now,
	}
}

// --- Implementation ---

func (s *expenseService) Create(ctx context.Context, submitter *model.User, req CreateExpenseClaimDTO) (*model.ExpenseClaim, error) {
	if submitter.Role != model.RoleEmployee && submitter.Role != model.RoleManager {
		return nil, fmt.Errorf("%w: only employees or managers can submit expense claims", ErrForbidden)
	}

	travelID, err := uuid.Parse(req.TravelRequestID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid travel request id", ErrValidation)
	}

	travel, err := s.travelRepo.GetByID(ctx, travelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid or unapproved travel request", ErrValidation)
		}
		return nil, fmt.Errorf("failed to load travel request: %w", err)
	}
	if travel.Status != model.StatusApproved {
		return nil, fmt.Errorf("%w: invalid or unapproved travel request", ErrValidation)
	}

	expenseDate, err := parseDate(req.ExpenseDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid expense date: %v", ErrValidation, err)
	}

	// Date-only window check, inclusive on both ends
	day := startOfDay(expenseDate)
	travelStart := startOfDay(travel.StartDate)
	travelEnd := startOfDay(travel.EndDate)
	if day.Before(travelStart) || day.After(travelEnd) {
		return nil, fmt.Errorf("%w: expense date must be within the travel period: %s to %s",
			ErrValidation, formatDate(travelStart), formatDate(travelEnd))
	}

	claim := &model.ExpenseClaim{
		EmployeeID:      submitter.ID,
		TravelRequestID: travel.ID,
		Amount:          decimal.NewFromFloat(req.Amount),
		Description:     req.Description,
		ExpenseDate:     expenseDate,
		Category:        req.Category,
		Approval: model.Approval{
			Status:        model.StatusPending,
			ManagerStatus: model.StatusPending,
			AdminStatus:   model.StatusPending,
		},
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.expenseRepo.Create(txCtx, claim); createErr != nil {
			return fmt.Errorf("failed to create expense claim: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"travel_request_id": travel.ID.String(),
			"amount":            claim.Amount.StringFixed(2),
			"category":          req.Category,
			"expense_date":      expenseDate.Format("2006-01-02"),
		})
		submitterID := submitter.ID
		audit := &model.AuditLog{
			UserID:     &submitterID,
			Action:     model.ActionSubmitExpenseClaim,
			EntityID:   claim.ID.String(),
			EntityName: model.KindExpenseClaim,
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

	loaded, err := s.expenseRepo.GetByID(ctx, claim.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload expense claim: %w", err)
	}

	s.dispatch(func() {
		bg, cancel := context.WithTimeout(context.Background(), fanOutTimeout)
		defer cancel()
		s.notifier.ExpenseSubmitted(bg, loaded)
	})

	return loaded, nil
}

func (s *expenseService) List(ctx context.Context, principal *model.User, query ListQuery) ([]model.ExpenseClaim, int64, error) {
	employeeIDs, err := visibleEmployeeIDs(ctx, s.userRepo, principal, query.EmployeeID)
	if err != nil {
		return nil, 0, err
	}
	return s.expenseRepo.List(ctx, repository.RequestFilter{
		EmployeeIDs: employeeIDs,
		Status:      query.Status,
		Page:        query.Page,
		Limit:       query.Limit,
	})
}

func (s *expenseService) Review(ctx context.Context, reviewer *model.User, id string, req ReviewDTO) (*model.ExpenseClaim, error) {
	claimID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid expense claim id", ErrValidation)
	}

	claim, err := s.expenseRepo.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: expense claim", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load expense claim: %w", err)
	}

	fields, err := buildReviewUpdate(&claim.Approval, claim.Employee, reviewer, req.Status, req.ReviewComments, s.now())
	if err != nil {
		return nil, err
	}

	applied, err := s.expenseRepo.ApplyReview(ctx, claimID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense claim: %w", err)
	}
	if !applied {
		return nil, ErrFinalized
	}

	updated, err := s.expenseRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload expense claim: %w", err)
	}

	s.dispatch(func() {
		bg, cancel := context.WithTimeout(context.Background(), fanOutTimeout)
		defer cancel()
		s.notifier.ExpenseReviewed(bg, updated, reviewer, req.Status, req.ReviewComments)
	})

	return updated, nil
}
