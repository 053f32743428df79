package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType enum constants. UI icon/color selection keys off this
// exact set, so adding a value requires a consumer update.
const (
	NotifExpenseSubmitted    = "expense_submitted"
	NotifExpenseApproved     = "expense_approved"
	NotifExpenseRejected     = "expense_rejected"
	NotifTravelSubmitted     = "travel_submitted"
	NotifTravelApproved      = "travel_approved"
	NotifTravelRejected      = "travel_rejected"
	NotifGeneral             = "general"
	NotifUserPendingApproval = "user_pending_approval"
)

// Notification is the durable in-app record created by the fan-out.
// Only the recipient mutates it, and only to mark it read.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Recipient   *User      `gorm:"foreignKey:RecipientID" json:"-"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	Type        string     `gorm:"type:varchar(30);not null" json:"type"`
	IsRead      bool       `gorm:"not null;default:false;index" json:"is_read"`
	RelatedID   *uuid.UUID `gorm:"type:uuid" json:"related_id"`
	RelatedKind string     `gorm:"type:varchar(20)" json:"related_kind"` // TravelRequest, ExpenseClaim, User
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
