package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CompanyFixture represents test company data
type CompanyFixture struct {
	ID       string
	Name     string
	IsActive bool
}

// AccountFixture represents test account data
type AccountFixture struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	IsActive     bool
}

// LeadFixture represents test lead data
type LeadFixture struct {
	ID        string
	CompanyID string
	Name      string
	Email     string
	Status    string
	ColumnID  *string
	Value     *float64
	CreatedAt time.Time
}

// ColumnFixture represents test pipeline column data
type ColumnFixture struct {
	ID        string
	CompanyID string
	Name      string
	Color     string
	Position  int
}

// AppointmentFixture represents test appointment data
type AppointmentFixture struct {
	ID          string
	CompanyID   string
	LeadID      *string
	Title       string
	Status      string
	ScheduledAt time.Time
	Duration    int
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Company creates a company fixture with defaults
func (f *FixtureFactory) Company(opts ...func(*CompanyFixture)) CompanyFixture {
	seq := f.nextSeq()

	company := CompanyFixture{
		ID:       uuid.New().String(),
		Name:     fmt.Sprintf("Test Company %d", seq),
		IsActive: true,
	}

	for _, opt := range opts {
		opt(&company)
	}

	return company
}

// Account creates an account fixture with defaults
func (f *FixtureFactory) Account(opts ...func(*AccountFixture)) AccountFixture {
	seq := f.nextSeq()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	account := AccountFixture{
		ID:           uuid.New().String(),
		Email:        fmt.Sprintf("user%d@test.wecrm.com.br", seq),
		PasswordHash: string(hash),
		Name:         fmt.Sprintf("Test User %d", seq),
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(&account)
	}

	return account
}

// WithEmail sets the account email
func WithEmail(email string) func(*AccountFixture) {
	return func(a *AccountFixture) {
		a.Email = email
	}
}

// WithPassword sets the account password (hashed)
func WithPassword(password string) func(*AccountFixture) {
	return func(a *AccountFixture) {
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		a.PasswordHash = string(hash)
	}
}

// WithInactive marks the account as disabled
func WithInactive() func(*AccountFixture) {
	return func(a *AccountFixture) {
		a.IsActive = false
	}
}

// Lead creates a lead fixture with defaults
func (f *FixtureFactory) Lead(companyID string, opts ...func(*LeadFixture)) LeadFixture {
	seq := f.nextSeq()

	lead := LeadFixture{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      fmt.Sprintf("Lead %d", seq),
		Email:     fmt.Sprintf("lead%d@example.com", seq),
		Status:    "new",
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&lead)
	}

	return lead
}

// WithStatus sets the lead status
func WithStatus(status string) func(*LeadFixture) {
	return func(l *LeadFixture) {
		l.Status = status
	}
}

// WithColumn places the lead in a pipeline column
func WithColumn(columnID string) func(*LeadFixture) {
	return func(l *LeadFixture) {
		l.ColumnID = &columnID
	}
}

// Column creates a pipeline column fixture with defaults
func (f *FixtureFactory) Column(companyID string, opts ...func(*ColumnFixture)) ColumnFixture {
	seq := f.nextSeq()

	column := ColumnFixture{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      fmt.Sprintf("Stage %d", seq),
		Color:     "#4A90D9",
		Position:  seq,
	}

	for _, opt := range opts {
		opt(&column)
	}

	return column
}

// Appointment creates an appointment fixture with defaults
func (f *FixtureFactory) Appointment(companyID string, opts ...func(*AppointmentFixture)) AppointmentFixture {
	seq := f.nextSeq()

	appointment := AppointmentFixture{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Title:       fmt.Sprintf("Demo call %d", seq),
		Status:      "scheduled",
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Duration:    30,
	}

	for _, opt := range opts {
		opt(&appointment)
	}

	return appointment
}
