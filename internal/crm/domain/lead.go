package domain

import (
	"time"
)

// Lead statuses
const (
	LeadStatusNew        = "new"
	LeadStatusContacted  = "contacted"
	LeadStatusQualified  = "qualified"
	LeadStatusProposal   = "proposal"
	LeadStatusWon        = "won"
	LeadStatusLost       = "lost"
)

// ValidLeadStatuses lists the accepted lead statuses
var ValidLeadStatuses = []string{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusProposal,
	LeadStatusWon,
	LeadStatusLost,
}

// Lead represents a sales lead
type Lead struct {
	ID             string     `json:"id" db:"id"`
	CompanyID      string     `json:"company_id" db:"company_id"`
	Name           string     `json:"name" db:"name"`
	Email          *string    `json:"email,omitempty" db:"email"`
	Phone          *string    `json:"phone,omitempty" db:"phone"`
	Source         *string    `json:"source,omitempty" db:"source"`
	Status         string     `json:"status" db:"status"`
	ColumnID       *string    `json:"column_id,omitempty" db:"column_id"`
	AssignedTo     *string    `json:"assigned_to,omitempty" db:"assigned_to"`
	PartnerID      *string    `json:"partner_id,omitempty" db:"partner_id"`
	ProductID      *string    `json:"product_id,omitempty" db:"product_id"`
	Value          *float64   `json:"value,omitempty" db:"value"`
	Notes          *string    `json:"notes,omitempty" db:"notes"`
	LastContactAt  *time.Time `json:"last_contact_at,omitempty" db:"last_contact_at"`
	CreatedBy      *string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time `json:"-" db:"deleted_at"`
}

// FollowUp represents a scheduled follow-up on a lead
type FollowUp struct {
	ID          string     `json:"id" db:"id"`
	CompanyID   string     `json:"company_id" db:"company_id"`
	LeadID      string     `json:"lead_id" db:"lead_id"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	DueAt       time.Time  `json:"due_at" db:"due_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedBy   *string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// PipelineColumn represents a kanban column of the sales pipeline.
// Position is the zero-based ordering inside the board.
type PipelineColumn struct {
	ID        string    `json:"id" db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	Name      string    `json:"name" db:"name"`
	Color     *string   `json:"color,omitempty" db:"color"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
