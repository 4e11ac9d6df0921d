package domain

import (
	"time"
)

// Profile represents a team member inside a company. It is the
// company-scoped view of an account: the same person logging into a
// different company would have a different profile.
type Profile struct {
	ID        string    `json:"id" db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Avatar    *string   `json:"avatar,omitempty" db:"avatar"`
	RoleID    string    `json:"role_id" db:"role_id"`
	RoleName  string    `json:"role_name" db:"role_name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Role represents a named role. System roles (is_system) are shared
// across companies and carry the built-in permission grids; custom
// roles belong to one company.
type Role struct {
	ID          string    `json:"id" db:"id"`
	CompanyID   *string   `json:"company_id,omitempty" db:"company_id"`
	Name        string    `json:"name" db:"name"`
	DisplayName string    `json:"display_name" db:"display_name"`
	IsSystem    bool      `json:"is_system" db:"is_system"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID           string                 `json:"id" db:"id"`
	CompanyID    string                 `json:"company_id" db:"company_id"`
	ActorID      *string                `json:"actor_id" db:"actor_id"`
	ActorName    string                 `json:"actor_name" db:"actor_name"`
	Action       string                 `json:"action" db:"action"`
	ResourceType string                 `json:"resource_type" db:"resource_type"`
	ResourceID   *string                `json:"resource_id,omitempty" db:"resource_id"`
	Details      map[string]interface{} `json:"details,omitempty" db:"-"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}
