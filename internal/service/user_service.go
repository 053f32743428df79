package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tem-backend/internal/model"
	"tem-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Department string `json:"department"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// UpdateUserRequest carries the admin-only mutations. Pointer fields
// distinguish "leave unchanged" from explicit zero values; ManagerID accepts
// an empty string to unassign.
type UpdateUserRequest struct {
	Role      *string `json:"role" binding:"omitempty,oneof=Employee Manager Admin"`
	IsActive  *bool   `json:"is_active"`
	ManagerID *string `json:"manager_id"`
}

// --- Interface ---

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	List(ctx context.Context, statusFilter string, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, admin *model.User, id string, req UpdateUserRequest) (*model.User, error)
}

type userService struct {
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	notifier  Notifier
	email     EmailSender
	jwtSecret []byte
	dispatch  func(fn func())
	now       func() time.Time
}

func NewUserService(
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	notifier Notifier,
	email EmailSender,
	jwtSecret []byte,
) UserService {
	return &userService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		notifier:  notifier,
		email:     email,
		jwtSecret: jwtSecret,
		dispatch:  func(fn func()) { go fn() },
		now:       time.Now,
	}
}

// --- Implementation ---

// Register creates an inactive employee account awaiting admin approval and
// tells active admins about it.
func (s *userService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	department := req.Department
	if department == "" {
		department = "General"
	}

	user := &model.User{
		Email:      req.Email,
		Password:   string(hashed),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       model.RoleEmployee,
		Department: department,
		IsActive:   false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.dispatch(func() {
		bg, cancel := context.WithTimeout(context.Background(), fanOutTimeout)
		defer cancel()
		s.notifier.UserRegistered(bg, user)
	})

	return user, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrValidation)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrValidation)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: your account is pending admin approval", ErrForbidden)
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{Token: token, User: user}, nil
}

func (s *userService) List(ctx context.Context, statusFilter string, page, limit int) ([]model.User, int64, error) {
	var activeFilter *bool
	switch statusFilter {
	case "pending":
		f := false
		activeFilter = &f
	case "active":
		f := true
		activeFilter = &f
	}
	return s.userRepo.List(ctx, activeFilter, page, limit)
}

// Update applies admin changes to role, activation, and manager assignment.
// Manager assignment feeds the approval chain's authorization check, so the
// assigned user must actually hold the Manager role.
func (s *userService) Update(ctx context.Context, admin *model.User, id string, req UpdateUserRequest) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrValidation)
	}

	if admin.ID == userID {
		return nil, fmt.Errorf("%w: you cannot change your own role, status, or manager", ErrForbidden)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	previousManagerID := user.ManagerID

	if req.Role != nil && *req.Role != user.Role {
		user.Role = *req.Role
		if user.Role == model.RoleManager {
			// Managers report to admins directly, not to another manager
			user.ManagerID = nil
			user.Manager = nil
		}
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.ManagerID != nil {
		if *req.ManagerID == "" {
			user.ManagerID = nil
			user.Manager = nil
		} else {
			managerID, parseErr := uuid.Parse(*req.ManagerID)
			if parseErr != nil {
				return nil, fmt.Errorf("%w: invalid manager id", ErrValidation)
			}
			manager, loadErr := s.userRepo.GetByID(ctx, managerID)
			if loadErr != nil {
				return nil, fmt.Errorf("%w: assigned manager does not exist", ErrValidation)
			}
			if manager.Role != model.RoleManager {
				return nil, fmt.Errorf("%w: assigned user is not a manager", ErrValidation)
			}
			user.ManagerID = &manager.ID
			user.Manager = manager
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	updated, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	adminID := admin.ID
	s.dispatch(func() {
		bg, cancel := context.WithTimeout(context.Background(), fanOutTimeout)
		defer cancel()

		details, _ := json.Marshal(map[string]interface{}{
			"role":       updated.Role,
			"is_active":  updated.IsActive,
			"manager_id": updated.ManagerID,
		})
		if auditErr := s.auditRepo.Log(bg, &model.AuditLog{
			UserID:     &adminID,
			Action:     model.ActionUpdateUser,
			EntityID:   updated.ID.String(),
			EntityName: updated.FullName(),
			Details:    string(details),
		}); auditErr != nil {
			slog.Warn("failed to write user update audit log", "error", auditErr)
		}

		s.sendManagerChangeEmails(bg, updated, previousManagerID)
	})

	return updated, nil
}

// sendManagerChangeEmails tells both sides of a manager re-assignment.
// Best-effort like every other outbound email.
func (s *userService) sendManagerChangeEmails(ctx context.Context, user *model.User, previousManagerID *uuid.UUID) {
	changed := (user.ManagerID == nil) != (previousManagerID == nil) ||
		(user.ManagerID != nil && previousManagerID != nil && *user.ManagerID != *previousManagerID)
	if !changed {
		return
	}

	if user.Manager != nil {
		s.trySend(ctx, Email{
			To:      user.Email,
			Subject: "Your assigned manager has changed",
			Body: fmt.Sprintf("Dear %s,\n\nYour assigned manager has been updated by the admin.\n\nNew manager: %s (%s)",
				user.FullName(), user.Manager.FullName(), user.Manager.Email),
		})
		s.trySend(ctx, Email{
			To:      user.Manager.Email,
			Subject: "You have been assigned a new report",
			Body: fmt.Sprintf("Dear %s,\n\nYou have been assigned as the manager for %s (%s).\n\nPlease log in to the system to view their requests and activities.",
				user.Manager.FullName(), user.FullName(), user.Email),
		})
		return
	}

	s.trySend(ctx, Email{
		To:      user.Email,
		Subject: "Your manager has been unassigned",
		Body: fmt.Sprintf("Dear %s,\n\nYou no longer have a manager assigned to you. Please contact the admin if you have questions.",
			user.FullName()),
	})
}

func (s *userService) trySend(ctx context.Context, msg Email) {
	if err := s.email.Send(ctx, msg); err != nil {
		slog.Warn("email send failed", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}
