package service

import (
	"context"
	"time"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/events"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/repository"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
)

// AppointmentService handles appointment business logic
type AppointmentService struct {
	repo      *repository.AppointmentRepository
	publisher *events.ChangePublisher
	audit     *AuditService
	logger    *logger.Logger
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(
	repo *repository.AppointmentRepository,
	publisher *events.ChangePublisher,
	audit *AuditService,
	log *logger.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:      repo,
		publisher: publisher,
		audit:     audit,
		logger:    log,
	}
}

func validAppointmentStatus(status string) bool {
	for _, s := range domain.ValidAppointmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Create creates a new appointment
func (s *AppointmentService) Create(ctx context.Context, appointment *domain.Appointment) error {
	if appointment.Status != "" && !validAppointmentStatus(appointment.Status) {
		return errors.Validation(map[string]string{"status": "invalid appointment status"})
	}
	if appointment.ScheduledAt.IsZero() {
		return errors.Validation(map[string]string{"scheduled_at": "scheduled time is required"})
	}
	if appointment.Duration <= 0 {
		appointment.Duration = 30
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		return err
	}

	s.publisher.PublishCreated(ctx, messaging.TableAppointments, appointment.ID, appointment)
	s.audit.Record(ctx, "appointment.created", "appointment", appointment.ID, map[string]interface{}{"title": appointment.Title})

	s.logger.Info().
		Str("appointment_id", appointment.ID).
		Time("scheduled_at", appointment.ScheduledAt).
		Msg("appointment created")

	return nil
}

// Get gets an appointment by ID
func (s *AppointmentService) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// List lists the company's appointments
// ListBetween lists appointments scheduled inside a time window
func (s *AppointmentService) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.Appointment, error) {
	return s.repo.ListBetween(ctx, from, to)
}

func (s *AppointmentService) List(ctx context.Context) ([]*domain.Appointment, error) {
	return s.repo.List(ctx)
}

// Update updates an appointment
func (s *AppointmentService) Update(ctx context.Context, appointment *domain.Appointment) error {
	if !validAppointmentStatus(appointment.Status) {
		return errors.Validation(map[string]string{"status": "invalid appointment status"})
	}

	old, err := s.repo.Get(ctx, appointment.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableAppointments, appointment.ID, appointment, old)
	s.audit.Record(ctx, "appointment.updated", "appointment", appointment.ID, nil)

	return nil
}

// UpdateStatus changes only the status of an appointment
func (s *AppointmentService) UpdateStatus(ctx context.Context, id, status string) (*domain.Appointment, error) {
	if !validAppointmentStatus(status) {
		return nil, errors.Validation(map[string]string{"status": "invalid appointment status"})
	}

	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	old := *appointment
	appointment.Status = status

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableAppointments, appointment.ID, appointment, &old)
	return appointment, nil
}

// Delete hard-deletes an appointment
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishDeleted(ctx, messaging.TableAppointments, id, old)
	s.audit.Record(ctx, "appointment.deleted", "appointment", id, nil)

	return nil
}

// MeetingService handles meeting record logic
type MeetingService struct {
	repo            *repository.MeetingRepository
	appointmentRepo *repository.AppointmentRepository
	publisher       *events.ChangePublisher
	audit           *AuditService
	logger          *logger.Logger
}

// NewMeetingService creates a new meeting service
func NewMeetingService(
	repo *repository.MeetingRepository,
	appointmentRepo *repository.AppointmentRepository,
	publisher *events.ChangePublisher,
	audit *AuditService,
	log *logger.Logger,
) *MeetingService {
	return &MeetingService{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		publisher:       publisher,
		audit:           audit,
		logger:          log,
	}
}

// Create records a held meeting. When the meeting closes an
// appointment, the appointment moves to completed.
func (s *MeetingService) Create(ctx context.Context, meeting *domain.Meeting) error {
	if meeting.HeldAt.IsZero() {
		return errors.Validation(map[string]string{"held_at": "meeting time is required"})
	}

	if err := s.repo.Create(ctx, meeting); err != nil {
		return err
	}

	s.publisher.PublishCreated(ctx, messaging.TableMeetings, meeting.ID, meeting)
	s.audit.Record(ctx, "meeting.created", "meeting", meeting.ID, nil)

	if meeting.AppointmentID != nil {
		if err := s.completeAppointment(ctx, *meeting.AppointmentID); err != nil {
			s.logger.Warn().Err(err).
				Str("appointment_id", *meeting.AppointmentID).
				Msg("failed to complete appointment for recorded meeting")
		}
	}

	return nil
}

func (s *MeetingService) completeAppointment(ctx context.Context, appointmentID string) error {
	appointment, err := s.appointmentRepo.Get(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appointment.Status == domain.AppointmentStatusCompleted {
		return nil
	}

	old := *appointment
	appointment.Status = domain.AppointmentStatusCompleted
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableAppointments, appointment.ID, appointment, &old)
	return nil
}

// Get gets a meeting by ID
func (s *MeetingService) Get(ctx context.Context, id string) (*domain.Meeting, error) {
	return s.repo.Get(ctx, id)
}

// List lists the company's meetings
func (s *MeetingService) List(ctx context.Context) ([]*domain.Meeting, error) {
	return s.repo.List(ctx)
}

// Update updates a meeting record
func (s *MeetingService) Update(ctx context.Context, meeting *domain.Meeting) error {
	old, err := s.repo.Get(ctx, meeting.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, meeting); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableMeetings, meeting.ID, meeting, old)
	return nil
}

// Delete hard-deletes a meeting record
func (s *MeetingService) Delete(ctx context.Context, id string) error {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishDeleted(ctx, messaging.TableMeetings, id, old)
	s.audit.Record(ctx, "meeting.deleted", "meeting", id, nil)

	return nil
}
