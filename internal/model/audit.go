package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionRegisterUser = "REGISTER_USER"
	ActionUpdateUser   = "UPDATE_USER"

	ActionSubmitTravelRequest  = "SUBMIT_TRAVEL_REQUEST"
	ActionApproveTravelRequest = "APPROVE_TRAVEL_REQUEST"
	ActionRejectTravelRequest  = "REJECT_TRAVEL_REQUEST"

	ActionSubmitExpenseClaim  = "SUBMIT_EXPENSE_CLAIM"
	ActionApproveExpenseClaim = "APPROVE_EXPENSE_CLAIM"
	ActionRejectExpenseClaim  = "REJECT_EXPENSE_CLAIM"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
