package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants
const (
	RoleEmployee = "Employee"
	RoleManager  = "Manager"
	RoleAdmin    = "Admin"
)

// User represents the central user entity for logic and database structure.
// New accounts start inactive until an admin approves them.
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email      string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	FirstName  string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName   string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Role       string         `gorm:"type:varchar(20);not null;default:'Employee'" json:"role"` // Employee, Manager, Admin
	Department string         `gorm:"type:varchar(100);not null;default:'General'" json:"department"`
	IsActive   bool           `gorm:"not null;default:false;index" json:"is_active"`
	ManagerID  *uuid.UUID     `gorm:"type:uuid;index" json:"manager_id"`
	Manager    *User          `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// FullName returns the display name used in notifications and emails
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ValidRole reports whether role is one of the three known roles
func ValidRole(role string) bool {
	return role == RoleEmployee || role == RoleManager || role == RoleAdmin
}
