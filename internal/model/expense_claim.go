package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory enum constants
const (
	CategoryTransportation = "Transportation"
	CategoryAccommodation  = "Accommodation"
	CategoryMeals          = "Meals"
	CategoryMiscellaneous  = "Miscellaneous"
)

// ExpenseClaim is a reimbursement claim tied to an approved travel request.
// The expense date must fall within the travel window.
type ExpenseClaim struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee   *User     `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`

	TravelRequestID uuid.UUID      `gorm:"type:uuid;not null;index" json:"travel_request_id"`
	TravelRequest   *TravelRequest `gorm:"foreignKey:TravelRequestID" json:"travel_request,omitempty"`

	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Description string          `gorm:"type:text;not null" json:"description"`
	ExpenseDate time.Time       `gorm:"not null" json:"expense_date"`
	Category    string          `gorm:"type:varchar(20);not null" json:"category"` // Transportation, Accommodation, Meals, Miscellaneous

	Approval

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
