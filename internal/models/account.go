package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleReviewer || r == RoleAdmin
}

type Status string

const (
	StatusActive   Status = "active"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusRejected:
		return true
	}
	return false
}

// Account is a reviewer or admin identity. (email, role) is unique, so one
// person may hold both a reviewer and an admin row.
type Account struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string         `gorm:"not null;size:255;uniqueIndex:idx_accounts_email_role" json:"email"`
	Role            Role           `gorm:"size:20;not null;uniqueIndex:idx_accounts_email_role" json:"role"`
	Status          Status         `gorm:"size:20;not null;index" json:"status"`
	IsActive        bool           `gorm:"not null" json:"is_active"`
	ProfileComplete bool           `gorm:"not null" json:"profile_complete"`
	Password        string         `gorm:"not null" json:"-"`
	AuthProvider    string         `gorm:"size:50" json:"-"`
	ProviderUserID  string         `gorm:"size:255" json:"-"`
	Name            *string        `gorm:"size:255" json:"name"`
	Age             *int           `json:"age"`
	Gender          *string        `gorm:"size:50" json:"gender"`
	Languages       datatypes.JSON `gorm:"type:jsonb" json:"languages"`
	NativeLanguage  *string        `gorm:"size:100" json:"native_language"`
	Accent          *string        `gorm:"size:100" json:"accent"`
	Location        *string        `gorm:"size:255" json:"location"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	LastLoginAt     *time.Time     `json:"last_login_at"`
}
