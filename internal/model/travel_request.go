package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Priority enum constants
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// TravelRequest is a trip proposal submitted by an employee or manager,
// reviewed through the embedded dual-tier approval.
type TravelRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee   *User     `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`

	Destination   string          `gorm:"type:varchar(255);not null" json:"destination"`
	Purpose       string          `gorm:"type:text;not null" json:"purpose"`
	StartDate     time.Time       `gorm:"not null" json:"start_date"`
	EndDate       time.Time       `gorm:"not null" json:"end_date"`
	EstimatedCost decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"estimated_cost"`
	Priority      string          `gorm:"type:varchar(10);not null;default:'Medium'" json:"priority"` // Low, Medium, High

	Approval

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
