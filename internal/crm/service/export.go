package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/repository"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

// ExportService writes company data as CSV for download.
type ExportService struct {
	leadRepo *repository.LeadRepository
	apptRepo *repository.AppointmentRepository
	audit    *AuditService
	logger   *logger.Logger
}

// NewExportService creates a new export service
func NewExportService(
	leadRepo *repository.LeadRepository,
	apptRepo *repository.AppointmentRepository,
	audit *AuditService,
	log *logger.Logger,
) *ExportService {
	return &ExportService{
		leadRepo: leadRepo,
		apptRepo: apptRepo,
		audit:    audit,
		logger:   log,
	}
}

// ExportLeads streams the company's leads as CSV.
func (s *ExportService) ExportLeads(ctx context.Context, w io.Writer) error {
	leads, err := s.leadRepo.List(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"id", "name", "email", "phone", "source", "status", "value", "notes", "last_contact_at", "created_at"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, lead := range leads {
		if err := cw.Write(leadRow(lead)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	s.audit.Record(ctx, "leads.exported", "leads", "", map[string]interface{}{"count": len(leads)})
	return nil
}

// ExportAppointments streams the company's appointments as CSV.
func (s *ExportService) ExportAppointments(ctx context.Context, w io.Writer) error {
	appointments, err := s.apptRepo.List(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"id", "title", "status", "scheduled_at", "duration_minutes", "lead_id", "created_at"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, appt := range appointments {
		if err := cw.Write(appointmentRow(appt)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	s.audit.Record(ctx, "appointments.exported", "appointments", "", map[string]interface{}{"count": len(appointments)})
	return nil
}

func leadRow(lead *domain.Lead) []string {
	value := ""
	if lead.Value != nil {
		value = strconv.FormatFloat(*lead.Value, 'f', 2, 64)
	}
	lastContact := ""
	if lead.LastContactAt != nil {
		lastContact = lead.LastContactAt.Format(time.RFC3339)
	}
	return []string{
		lead.ID,
		lead.Name,
		deref(lead.Email),
		deref(lead.Phone),
		deref(lead.Source),
		lead.Status,
		value,
		deref(lead.Notes),
		lastContact,
		lead.CreatedAt.Format(time.RFC3339),
	}
}

func appointmentRow(appt *domain.Appointment) []string {
	return []string{
		appt.ID,
		appt.Title,
		appt.Status,
		appt.ScheduledAt.Format(time.RFC3339),
		strconv.Itoa(appt.Duration),
		deref(appt.LeadID),
		appt.CreatedAt.Format(time.RFC3339),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
