package service

import (
	"context"
	"sync"
	"time"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/repository"
	"github.com/joaofarinelli/we-crm-sub002/internal/realtime"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// DashboardSummary is the aggregate view served to the dashboard.
type DashboardSummary struct {
	TotalLeads           int                   `json:"total_leads"`
	LeadsByColumn        map[string]int        `json:"leads_by_column"`
	AppointmentsByStatus map[string]int        `json:"appointments_by_status"`
	PendingFollowUps     int                   `json:"pending_follow_ups"`
	UpcomingAppointments []*domain.Appointment `json:"upcoming_appointments"`
}

// DashboardService aggregates pipeline and schedule figures. Per
// company it keeps live lead and appointment collections wired to the
// change hub, so repeated summary reads are served from in-process
// snapshots instead of fresh table scans.
type DashboardService struct {
	leadRepo     *repository.LeadRepository
	apptRepo     *repository.AppointmentRepository
	followUpRepo *repository.FollowUpRepository
	hub          *realtime.Hub
	logger       *logger.Logger

	mu        sync.Mutex
	leadViews map[string]*realtime.Collection[*domain.Lead]
	apptViews map[string]*realtime.Collection[*domain.Appointment]
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	leadRepo *repository.LeadRepository,
	apptRepo *repository.AppointmentRepository,
	followUpRepo *repository.FollowUpRepository,
	hub *realtime.Hub,
	log *logger.Logger,
) *DashboardService {
	return &DashboardService{
		leadRepo:     leadRepo,
		apptRepo:     apptRepo,
		followUpRepo: followUpRepo,
		hub:          hub,
		logger:       log,
		leadViews:    make(map[string]*realtime.Collection[*domain.Lead]),
		apptViews:    make(map[string]*realtime.Collection[*domain.Appointment]),
	}
}

// Summary assembles the dashboard for the caller's company.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	leads, err := s.leadView(companyID)
	if err != nil {
		return nil, err
	}
	appointments, err := s.apptView(companyID)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		LeadsByColumn:        make(map[string]int),
		AppointmentsByStatus: make(map[string]int),
		UpcomingAppointments: make([]*domain.Appointment, 0),
	}

	leadSnapshot := leads.Snapshot()
	summary.TotalLeads = len(leadSnapshot)
	for _, lead := range leadSnapshot {
		column := ""
		if lead.ColumnID != nil {
			column = *lead.ColumnID
		}
		summary.LeadsByColumn[column]++
	}

	now := time.Now()
	horizon := now.Add(7 * 24 * time.Hour)
	for _, appt := range appointments.Snapshot() {
		summary.AppointmentsByStatus[appt.Status]++
		if appt.Status == domain.AppointmentStatusScheduled || appt.Status == domain.AppointmentStatusConfirmed {
			if appt.ScheduledAt.After(now) && appt.ScheduledAt.Before(horizon) {
				summary.UpcomingAppointments = append(summary.UpcomingAppointments, appt)
			}
		}
	}

	pending, err := s.followUpRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	summary.PendingFollowUps = len(pending)

	return summary, nil
}

// leadView returns the company's live lead collection, subscribing it
// on first use.
func (s *DashboardService) leadView(companyID string) (*realtime.Collection[*domain.Lead], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if view, ok := s.leadViews[companyID]; ok {
		return view, nil
	}

	// The collection refetches from background goroutines; it carries
	// its own company-scoped context rather than any request context.
	viewCtx := tenant.WithCompanyID(context.Background(), companyID)
	view := realtime.NewCollection(companyID, messaging.TableLeads, func(ctx context.Context) ([]*domain.Lead, error) {
		return s.leadRepo.List(viewCtx)
	}, s.hub, s.logger)

	if err := view.Subscribe(viewCtx); err != nil {
		return nil, err
	}
	s.leadViews[companyID] = view
	return view, nil
}

func (s *DashboardService) apptView(companyID string) (*realtime.Collection[*domain.Appointment], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if view, ok := s.apptViews[companyID]; ok {
		return view, nil
	}

	viewCtx := tenant.WithCompanyID(context.Background(), companyID)
	view := realtime.NewCollection(companyID, messaging.TableAppointments, func(ctx context.Context) ([]*domain.Appointment, error) {
		return s.apptRepo.List(viewCtx)
	}, s.hub, s.logger)

	if err := view.Subscribe(viewCtx); err != nil {
		return nil, err
	}
	s.apptViews[companyID] = view
	return view, nil
}

// Close unsubscribes every live collection. Called on shutdown.
func (s *DashboardService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, view := range s.leadViews {
		view.Unsubscribe()
	}
	for _, view := range s.apptViews {
		view.Unsubscribe()
	}
	s.leadViews = make(map[string]*realtime.Collection[*domain.Lead])
	s.apptViews = make(map[string]*realtime.Collection[*domain.Appointment])
}
