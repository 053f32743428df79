package model

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus enum constants, shared by the aggregate status and both tiers
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// RequestKind identifies which approvable entity a notification or audit
// entry points back to.
const (
	KindTravelRequest = "TravelRequest"
	KindExpenseClaim  = "ExpenseClaim"
	KindUser          = "User"
)

// Approval is the dual-tier review sub-model embedded in TravelRequest and
// ExpenseClaim. Status is always derived from (ManagerStatus, AdminStatus):
// the admin decision wins once present, otherwise the manager decision stands.
type Approval struct {
	Status string `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`

	ManagerStatus     string     `gorm:"type:varchar(20);not null;default:'Pending'" json:"manager_status"`
	ManagerReviewedBy *uuid.UUID `gorm:"type:uuid" json:"manager_reviewed_by"`
	ManagerReviewer   *User      `gorm:"foreignKey:ManagerReviewedBy" json:"manager_reviewer,omitempty"`
	ManagerComments   string     `gorm:"type:text" json:"manager_comments"`
	ManagerReviewedAt *time.Time `json:"manager_reviewed_at"`

	AdminStatus     string     `gorm:"type:varchar(20);not null;default:'Pending'" json:"admin_status"`
	AdminReviewedBy *uuid.UUID `gorm:"type:uuid" json:"admin_reviewed_by"`
	AdminReviewer   *User      `gorm:"foreignKey:AdminReviewedBy" json:"admin_reviewer,omitempty"`
	AdminComments   string     `gorm:"type:text" json:"admin_comments"`
	AdminReviewedAt *time.Time `json:"admin_reviewed_at"`
}

// Finalized reports whether an admin has made the terminal decision.
// No field of the approval may change afterwards.
func (a *Approval) Finalized() bool {
	return a.AdminStatus == StatusApproved || a.AdminStatus == StatusRejected
}

// DeriveStatus returns the aggregate status for the current tier statuses.
func (a *Approval) DeriveStatus() string {
	if a.AdminStatus != StatusPending {
		return a.AdminStatus
	}
	return a.ManagerStatus
}

// ValidDecision reports whether s is an acceptable review decision.
func ValidDecision(s string) bool {
	return s == StatusApproved || s == StatusRejected
}
