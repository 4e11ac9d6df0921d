package domain

import (
	"time"
)

// Appointment statuses
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusNoShow    = "no_show"
	AppointmentStatusCancelled = "cancelled"
)

// ValidAppointmentStatuses lists the accepted appointment statuses
var ValidAppointmentStatuses = []string{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
	AppointmentStatusCompleted,
	AppointmentStatusNoShow,
	AppointmentStatusCancelled,
}

// Appointment represents a scheduled appointment with a lead
type Appointment struct {
	ID          string     `json:"id" db:"id"`
	CompanyID   string     `json:"company_id" db:"company_id"`
	LeadID      *string    `json:"lead_id,omitempty" db:"lead_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Status      string     `json:"status" db:"status"`
	ScheduledAt time.Time  `json:"scheduled_at" db:"scheduled_at"`
	Duration    int        `json:"duration_minutes" db:"duration_minutes"`
	AssignedTo  *string    `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedBy   *string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Meeting represents the record of a held meeting
type Meeting struct {
	ID            string     `json:"id" db:"id"`
	CompanyID     string     `json:"company_id" db:"company_id"`
	AppointmentID *string    `json:"appointment_id,omitempty" db:"appointment_id"`
	LeadID        *string    `json:"lead_id,omitempty" db:"lead_id"`
	Title         string     `json:"title" db:"title"`
	Summary       *string    `json:"summary,omitempty" db:"summary"`
	Outcome       *string    `json:"outcome,omitempty" db:"outcome"`
	HeldAt        time.Time  `json:"held_at" db:"held_at"`
	RecordedBy    *string    `json:"recorded_by,omitempty" db:"recorded_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
